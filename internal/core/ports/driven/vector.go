package driven

import (
	"context"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// EntryPredicate selects index entries by their metadata.
type EntryPredicate func(e domain.IndexEntry) bool

// VectorIndex stores vector+chunk+metadata tuples and supports
// nearest-neighbour search. Any backend offering exact or approximate
// search over fixed-dimension vectors satisfies it.
//
// Backends without native predicate delete still guarantee correct
// deletion by filtering over a full scan; that costs O(n) and is a
// property of the backend, not of callers.
type VectorIndex interface {
	// Upsert inserts or replaces entries. Every embedding must match
	// Dimensions (domain.ErrDimensionMismatch otherwise) and every
	// metadata bundle must validate (domain.ErrInvalidInput).
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Search returns the k nearest entries to the query vector,
	// ordered by ascending distance.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// DeleteWhere removes all entries matching the predicate and
	// returns the number removed.
	DeleteWhere(ctx context.Context, pred EntryPredicate) (int, error)

	// GetAll returns entries matching the predicate. A nil predicate
	// matches everything. Embeddings are not populated.
	GetAll(ctx context.Context, pred EntryPredicate) ([]domain.IndexEntry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the fixed vector size enforced by Upsert.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// Entry is the matched entry, without its embedding.
	Entry domain.IndexEntry

	// Distance is the cosine distance in [0,2]; lower is closer.
	// A backend with a different native metric must convert before
	// returning hits, so that score = max(0, 1-distance) stays valid.
	Distance float64
}
