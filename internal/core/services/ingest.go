package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.Ingestor = (*IngestionService)(nil)

// Default ingestion limits.
const (
	// DefaultMaxFileSize caps raw document size at 50 MB.
	DefaultMaxFileSize = 50 << 20

	// DefaultBatchWorkers bounds concurrent files in IngestBatch.
	DefaultBatchWorkers = 4
)

// IngestionService runs the document pipeline: hash, dedup check,
// parse, chunk, embed, index, record.
type IngestionService struct {
	registry driven.ParserRegistry
	splitter driven.Splitter
	embedder driven.EmbeddingService
	ledger   driven.Ledger
	index    driven.VectorIndex

	maxFileSize  int64
	batchWorkers int

	// hashLocks serialises concurrent ingestion of the same content
	// hash; distinct hashes proceed in parallel. Entries are
	// reference-counted and dropped once uncontended, so a long-lived
	// watch process does not accumulate one mutex per hash ever seen.
	mu        sync.Mutex
	hashLocks map[string]*hashLock
}

// hashLock is one reference-counted entry in hashLocks.
type hashLock struct {
	mu   sync.Mutex
	refs int
}

// IngestOption configures an IngestionService.
type IngestOption func(*IngestionService)

// WithMaxFileSize overrides the raw document size cap in bytes.
func WithMaxFileSize(n int64) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// WithBatchWorkers overrides the IngestBatch concurrency bound.
func WithBatchWorkers(n int) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	registry driven.ParserRegistry,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	ledger driven.Ledger,
	index driven.VectorIndex,
	opts ...IngestOption,
) *IngestionService {
	s := &IngestionService{
		registry:     registry,
		splitter:     splitter,
		embedder:     embedder,
		ledger:       ledger,
		index:        index,
		maxFileSize:  DefaultMaxFileSize,
		batchWorkers: DefaultBatchWorkers,
		hashLocks:    make(map[string]*hashLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest runs the full pipeline over raw bytes under a display name.
func (s *IngestionService) Ingest(ctx context.Context, data []byte, name string) domain.IngestResult {
	declaredType := strings.ToLower(filepath.Ext(name))
	if !s.registry.Supports(declaredType) {
		return errorResult(name, int64(len(data)), "",
			fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, declaredType))
	}
	return s.ingest(ctx, data, name, declaredType, func(ctx context.Context) (string, error) {
		return s.registry.Parse(ctx, data, declaredType)
	})
}

// IngestText ingests raw text under a display title, bypassing the
// parser registry.
func (s *IngestionService) IngestText(ctx context.Context, text, title string) domain.IngestResult {
	if strings.TrimSpace(title) == "" {
		title = "pasted-" + time.Now().UTC().Format("20060102-150405") + ".txt"
	}
	return s.ingest(ctx, []byte(text), title, ".txt", func(context.Context) (string, error) {
		return text, nil
	})
}

// ingest is the shared pipeline body. parse produces the text for the
// already-validated raw bytes.
func (s *IngestionService) ingest(
	ctx context.Context, data []byte, name, declaredType string,
	parse func(context.Context) (string, error),
) domain.IngestResult {
	size := int64(len(data))

	logger.Section("Ingest %s", name)
	logger.Debug("Size: %d bytes, type: %s", size, declaredType)

	if size > s.maxFileSize {
		return errorResult(name, size, "",
			fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrSizeLimitExceeded, size, s.maxFileSize))
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	logger.Debug("Content hash: %s", hash)

	unlock := s.lockHash(hash)
	defer unlock()

	known, err := s.ledger.IsKnown(ctx, hash)
	if err != nil {
		return errorResult(name, size, hash, fmt.Errorf("checking ledger: %w", err))
	}
	if known {
		logger.Info("Already ingested, skipping")
		return domain.IngestResult{
			Status:  domain.IngestSkipped,
			Name:    name,
			Hash:    hash,
			Size:    size,
			Message: "document already ingested",
		}
	}

	text, err := parse(ctx)
	if err != nil {
		return errorResult(name, size, hash, fmt.Errorf("parsing: %w", err))
	}
	if strings.TrimSpace(text) == "" {
		return errorResult(name, size, hash, domain.ErrEmptyContent)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return errorResult(name, size, hash, domain.ErrEmptyContent)
	}
	logger.Debug("Split into %d chunks", len(chunks))

	embeddings, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return errorResult(name, size, hash, fmt.Errorf("embedding: %w", err))
	}
	if len(embeddings) != len(chunks) {
		return errorResult(name, size, hash,
			fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks)))
	}

	uploadDate := time.Now().UTC()
	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = domain.IndexEntry{
			ID:        uuid.NewString(),
			Content:   chunk,
			Embedding: embeddings[i],
			Meta: domain.ChunkMeta{
				Source:      name,
				ChunkID:     i,
				TotalChunks: len(chunks),
				FileHash:    hash,
				UploadDate:  uploadDate,
			},
		}
	}

	// Index before recording: a ledger record must never exist without
	// its entries. A crash between the two leaves orphaned entries that
	// the next ingest of the same bytes replaces.
	if err := s.index.Upsert(ctx, entries); err != nil {
		return errorResult(name, size, hash, fmt.Errorf("indexing: %w", err))
	}

	doc := domain.Document{
		Hash:       hash,
		Name:       name,
		Size:       size,
		Type:       declaredType,
		ChunkCount: len(chunks),
		IngestedAt: uploadDate,
		Preview:    preview(text),
	}
	if err := s.ledger.Record(ctx, doc); err != nil {
		return errorResult(name, size, hash, fmt.Errorf("recording: %w", err))
	}

	logger.Info("Ingested %s: %d chunks", name, len(chunks))
	return domain.IngestResult{
		Status:     domain.IngestSuccess,
		Name:       name,
		Hash:       hash,
		ChunkCount: len(chunks),
		Size:       size,
		Message:    fmt.Sprintf("ingested %d chunks", len(chunks)),
	}
}

// IngestFile reads and ingests a file from disk.
func (s *IngestionService) IngestFile(ctx context.Context, path, name string) domain.IngestResult {
	if name == "" {
		name = filepath.Base(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return errorResult(name, 0, "", fmt.Errorf("reading file: %w", err))
	}
	if info.Size() > s.maxFileSize {
		// Checked before reading so an oversized file never loads.
		return errorResult(name, info.Size(), "",
			fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrSizeLimitExceeded, info.Size(), s.maxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errorResult(name, info.Size(), "", fmt.Errorf("reading file: %w", err))
	}
	return s.Ingest(ctx, data, name)
}

// IngestBatch ingests several files with bounded concurrency. Results
// are index-aligned with paths.
func (s *IngestionService) IngestBatch(ctx context.Context, paths []string) []domain.IngestResult {
	results := make([]domain.IngestResult, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.batchWorkers)
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.IngestFile(ctx, path, "")
		}(i, path)
	}
	wg.Wait()

	return results
}

// Remove deletes a document and its index entries by display name or
// content hash.
func (s *IngestionService) Remove(ctx context.Context, nameOrHash string) (bool, error) {
	hashes, err := s.resolveHashes(ctx, nameOrHash)
	if err != nil {
		return false, err
	}
	if len(hashes) == 0 {
		return false, nil
	}

	for _, hash := range hashes {
		// Record goes first so a record never outlives its entries'
		// removal; leftover entries are replaced on re-ingest.
		if err := s.ledger.Remove(ctx, hash); err != nil {
			return false, fmt.Errorf("removing record: %w", err)
		}
		if _, err := s.index.DeleteWhere(ctx, func(e domain.IndexEntry) bool {
			return e.Meta.FileHash == hash
		}); err != nil {
			return false, fmt.Errorf("removing entries: %w", err)
		}
	}

	logger.Info("Removed %d document(s) for %q", len(hashes), nameOrHash)
	return true, nil
}

// resolveHashes maps a display name or content hash to the matching
// ledger hashes.
func (s *IngestionService) resolveHashes(ctx context.Context, nameOrHash string) ([]string, error) {
	if _, err := s.ledger.Get(ctx, nameOrHash); err == nil {
		return []string{nameOrHash}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolving document: %w", err)
	}

	docs, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var hashes []string
	for _, doc := range docs {
		if doc.Name == nameOrHash {
			hashes = append(hashes, doc.Hash)
		}
	}
	return hashes, nil
}

// Clear removes all documents and index entries.
func (s *IngestionService) Clear(ctx context.Context) error {
	if err := s.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("clearing ledger: %w", err)
	}
	if _, err := s.index.DeleteWhere(ctx, nil); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	logger.Info("Cleared knowledge base")
	return nil
}

// List returns the ledger inventory.
func (s *IngestionService) List(ctx context.Context) ([]domain.Document, error) {
	return s.ledger.List(ctx)
}

// SearchFiles returns document names containing the term,
// case-insensitively, sorted.
func (s *IngestionService) SearchFiles(ctx context.Context, term string) ([]string, error) {
	docs, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(term)
	var names []string
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Name), term) {
			names = append(names, doc.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Stats summarises the ledger inventory.
func (s *IngestionService) Stats(ctx context.Context) (domain.Stats, error) {
	docs, err := s.ledger.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{
		DocumentCount: len(docs),
		TypeHistogram: make(map[string]int),
	}
	for _, doc := range docs {
		stats.ChunkCount += doc.ChunkCount
		stats.TotalSizeBytes += doc.Size
		stats.TypeHistogram[doc.Type]++
	}
	stats.TotalSizeMB = math.Round(float64(stats.TotalSizeBytes)/(1<<20)*100) / 100
	return stats, nil
}

// lockHash takes the per-hash mutex and returns its unlock func. The
// unlock drops the map entry when no other ingestion holds or awaits
// the same hash.
func (s *IngestionService) lockHash(hash string) func() {
	s.mu.Lock()
	lock, ok := s.hashLocks[hash]
	if !ok {
		lock = &hashLock{}
		s.hashLocks[hash] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.hashLocks, hash)
		}
		s.mu.Unlock()
	}
}

// errorResult builds an error-status result from a pipeline failure.
func errorResult(name string, size int64, hash string, err error) domain.IngestResult {
	logger.Warn("Ingest %s failed: %v", name, err)
	return domain.IngestResult{
		Status:  domain.IngestError,
		Name:    name,
		Hash:    hash,
		Size:    size,
		Message: err.Error(),
	}
}

// preview returns the first PreviewLength characters of text.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= domain.PreviewLength {
		return text
	}
	return string(runes[:domain.PreviewLength])
}
