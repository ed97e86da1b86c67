package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// recordingIngestor captures IngestFile calls.
type recordingIngestor struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingIngestor) IngestFile(ctx context.Context, path, name string) domain.IngestResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	return domain.IngestResult{Status: domain.IngestSuccess, Name: filepath.Base(path)}
}

func (r *recordingIngestor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recordingIngestor) Ingest(ctx context.Context, data []byte, name string) domain.IngestResult {
	return domain.IngestResult{}
}

func (r *recordingIngestor) IngestBatch(ctx context.Context, paths []string) []domain.IngestResult {
	return nil
}

func (r *recordingIngestor) IngestText(ctx context.Context, text, title string) domain.IngestResult {
	return domain.IngestResult{}
}

func (r *recordingIngestor) Remove(ctx context.Context, nameOrHash string) (bool, error) {
	return false, nil
}

func (r *recordingIngestor) Clear(ctx context.Context) error { return nil }

func (r *recordingIngestor) List(ctx context.Context) ([]domain.Document, error) { return nil, nil }

func (r *recordingIngestor) SearchFiles(ctx context.Context, term string) ([]string, error) {
	return nil, nil
}

func (r *recordingIngestor) Stats(ctx context.Context) (domain.Stats, error) {
	return domain.Stats{}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWatch_IngestsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("already here"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("skip me"), 0600))

	ing := &recordingIngestor{}
	w := New(ing)
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, dir) }()

	waitFor(t, func() bool { return len(ing.seen()) == 1 })
	assert.Equal(t, []string{"existing.txt"}, ing.seen())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.md"), []byte("new arrival"), 0600))
	waitFor(t, func() bool { return len(ing.seen()) == 2 })
	assert.Contains(t, ing.seen(), "dropped.md")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatch_RejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	w := New(&recordingIngestor{})
	err := w.Watch(context.Background(), file)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = w.Watch(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestIgnorable(t *testing.T) {
	assert.True(t, ignorable("/data/.DS_Store"))
	assert.True(t, ignorable("/data/notes.txt~"))
	assert.True(t, ignorable("/data/.report.swp"))
	assert.True(t, ignorable("/data/download.tmp"))
	assert.False(t, ignorable("/data/report.txt"))
}
