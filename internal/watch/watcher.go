// Package watch feeds filesystem events into the ingestion pipeline.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// DefaultSettle is how long a file must stay quiet after its last
// write event before it is ingested. Editors and downloads produce
// bursts of writes; ingesting mid-burst reads half a file.
const DefaultSettle = 500 * time.Millisecond

// Watcher ingests files as they appear or change in a directory.
// Content hashing makes redundant events harmless: an unchanged file
// re-ingests as a skip.
type Watcher struct {
	ingestor driving.Ingestor
	settle   time.Duration

	// OnResult, when set, observes every ingestion outcome.
	OnResult func(domain.IngestResult)
}

// New creates a watcher feeding the given ingestor.
func New(ingestor driving.Ingestor) *Watcher {
	return &Watcher{
		ingestor: ingestor,
		settle:   DefaultSettle,
	}
}

// Watch ingests existing files in dir, then blocks ingesting new and
// modified ones until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching %s: %w: not a directory", dir, domain.ErrInvalidInput)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("Watching %s", dir)

	if err := w.ingestExisting(ctx, dir); err != nil {
		return err
	}

	// pending maps path to its settle timer; a new event on the same
	// path resets the timer.
	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if ignorable(path) {
				continue
			}
			if t, ok := pending[path]; ok {
				t.Reset(w.settle)
				continue
			}
			pending[path] = time.AfterFunc(w.settle, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(pending, path)
			w.ingestPath(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// ingestExisting one-shots every regular file already in the directory.
func (w *Watcher) ingestExisting(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if ignorable(path) {
			continue
		}
		w.ingestPath(ctx, path)
	}
	return nil
}

// ingestPath runs one file through the pipeline and reports the result.
func (w *Watcher) ingestPath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	res := w.ingestor.IngestFile(ctx, path, "")
	switch res.Status {
	case domain.IngestSuccess:
		logger.Info("Ingested %s (%d chunks)", res.Name, res.ChunkCount)
	case domain.IngestSkipped:
		logger.Debug("Skipped %s: %s", res.Name, res.Message)
	case domain.IngestError:
		logger.Warn("Failed %s: %s", res.Name, res.Message)
	}
	if w.OnResult != nil {
		w.OnResult(res)
	}
}

// ignorable filters hidden files and editor temp artefacts.
func ignorable(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}
