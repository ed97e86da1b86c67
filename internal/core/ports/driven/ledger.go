package driven

import (
	"context"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// Ledger persists the content-hash to document-metadata mapping.
// It is the dedup and inventory source of truth: ingestion checks
// IsKnown before any parsing or embedding work.
type Ledger interface {
	// Record stores a document record keyed by its content hash.
	Record(ctx context.Context, doc domain.Document) error

	// IsKnown reports whether a content hash has been recorded.
	IsKnown(ctx context.Context, hash string) (bool, error)

	// Get retrieves a record by content hash.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, hash string) (*domain.Document, error)

	// Remove deletes a record by content hash.
	Remove(ctx context.Context, hash string) error

	// List returns all records.
	List(ctx context.Context) ([]domain.Document, error)

	// Clear removes all records.
	Clear(ctx context.Context) error
}
