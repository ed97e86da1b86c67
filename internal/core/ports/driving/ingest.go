package driving

import (
	"context"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// Ingestor drives the document ingestion pipeline.
//
// Ingestion for different documents may run fully in parallel;
// concurrent attempts for the same content hash are serialised so the
// second observes the first's completed state and skips.
type Ingestor interface {
	// Ingest runs the full pipeline over raw bytes under a display
	// name. Failures are reported in the result, not as an error.
	Ingest(ctx context.Context, data []byte, name string) domain.IngestResult

	// IngestFile reads and ingests a file from disk. The display name
	// defaults to the base name when name is empty.
	IngestFile(ctx context.Context, path, name string) domain.IngestResult

	// IngestBatch ingests several files. Each file gets its own
	// result, index-aligned with paths; one failing file never aborts
	// its siblings.
	IngestBatch(ctx context.Context, paths []string) []domain.IngestResult

	// IngestText ingests raw text (e.g. pasted by a user) under a
	// display title, bypassing the parser registry.
	IngestText(ctx context.Context, text, title string) domain.IngestResult

	// Remove deletes a document and its index entries by display name
	// or content hash. Returns false when nothing matched.
	Remove(ctx context.Context, nameOrHash string) (bool, error)

	// Clear removes all documents and index entries.
	Clear(ctx context.Context) error

	// List returns the ledger inventory.
	List(ctx context.Context) ([]domain.Document, error)

	// SearchFiles returns document names containing the term,
	// case-insensitively, sorted.
	SearchFiles(ctx context.Context, term string) ([]string, error)

	// Stats summarises the ledger inventory.
	Stats(ctx context.Context) (domain.Stats, error)
}
