package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory flat-scan implementation of
// driven.VectorIndex. Search and DeleteWhere visit every entry; that
// is O(n) and fine at the document counts this index is used for.
type VectorIndex struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]domain.IndexEntry
}

// NewVectorIndex creates an in-memory index for vectors of the given
// dimensionality.
func NewVectorIndex(dims int) *VectorIndex {
	return &VectorIndex{
		dims:    dims,
		entries: make(map[string]domain.IndexEntry),
	}
}

// Upsert inserts or replaces entries.
func (idx *VectorIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != idx.dims {
			return fmt.Errorf("%w: got %d, index expects %d",
				domain.ErrDimensionMismatch, len(e.Embedding), idx.dims)
		}
		if err := e.Meta.Validate(); err != nil {
			return fmt.Errorf("entry %s metadata: %w", e.ID, err)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, e := range entries {
		idx.entries[e.ID] = e
	}
	return nil
}

// Search returns the k nearest entries by cosine distance.
func (idx *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d, index expects %d",
			domain.ErrDimensionMismatch, len(query), idx.dims)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		hits = append(hits, driven.VectorHit{
			Entry:    stripEmbedding(e),
			Distance: cosineDistance(query, e.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteWhere removes all entries matching the predicate.
func (idx *VectorIndex) DeleteWhere(_ context.Context, pred driven.EntryPredicate) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for id, e := range idx.entries {
		if pred == nil || pred(e) {
			delete(idx.entries, id)
			removed++
		}
	}
	return removed, nil
}

// GetAll returns entries matching the predicate, without embeddings.
func (idx *VectorIndex) GetAll(_ context.Context, pred driven.EntryPredicate) ([]domain.IndexEntry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []domain.IndexEntry //nolint:prealloc // size unknown until filtered
	for _, e := range idx.entries {
		if pred == nil || pred(e) {
			out = append(out, stripEmbedding(e))
		}
	}
	return out, nil
}

// Count returns the number of stored entries.
func (idx *VectorIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Dimensions returns the fixed vector size.
func (idx *VectorIndex) Dimensions() int {
	return idx.dims
}

// Close releases resources.
func (idx *VectorIndex) Close() error {
	return nil
}

// stripEmbedding copies an entry without its vector.
func stripEmbedding(e domain.IndexEntry) domain.IndexEntry {
	e.Embedding = nil
	return e
}

// cosineDistance computes 1 - cosine similarity, in [0,2].
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
