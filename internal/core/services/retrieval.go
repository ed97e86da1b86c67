package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// Default retrieval parameters.
const (
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.0
)

// RetrievalService answers similarity queries over the indexed corpus.
type RetrievalService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, index driven.VectorIndex) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve embeds the query, searches the index and returns results
// scored into [0,1], filtered by threshold, sorted non-increasing.
//
// Backend unavailability degrades to empty results with a warning:
// the generation consumer can always proceed without context.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, k int, scoreThreshold float64,
) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	logger.Section("Retrieve")
	logger.Debug("Query: %q, k: %d, threshold: %.2f", query, k, scoreThreshold)

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, returning no results: %v", err)
		return nil, nil
	}

	hits, err := s.index.Search(ctx, queryVec, k)
	if err != nil {
		logger.Warn("Index search failed, returning no results: %v", err)
		return nil, nil
	}
	logger.Debug("Raw hits: %d", len(hits))

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		score := scoreFromDistance(hit.Distance)
		if score < scoreThreshold {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Content:     hit.Entry.Content,
			Source:      hit.Entry.Meta.Source,
			ChunkID:     hit.Entry.Meta.ChunkID,
			TotalChunks: hit.Entry.Meta.TotalChunks,
			Score:       score,
			Meta:        hit.Entry.Meta,
		})
	}

	// Stable, so equal scores keep the index's distance order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i
	}

	logger.Info("Retrieved %d result(s) above threshold", len(results))
	return results, nil
}

// ByDocument returns up to limit chunks of the named document, ordered
// by chunk ordinal. Similarity is bypassed; every result carries a
// score of 1.
func (s *RetrievalService) ByDocument(
	ctx context.Context, name string, limit int,
) ([]domain.RetrievalResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty document name", domain.ErrInvalidInput)
	}

	entries, err := s.index.GetAll(ctx, func(e domain.IndexEntry) bool {
		return e.Meta.Source == name
	})
	if err != nil {
		return nil, fmt.Errorf("reading document chunks: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: document %q", domain.ErrNotFound, name)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Meta.ChunkID < entries[j].Meta.ChunkID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	results := make([]domain.RetrievalResult, len(entries))
	for i, e := range entries {
		results[i] = domain.RetrievalResult{
			Content:     e.Content,
			Source:      e.Meta.Source,
			ChunkID:     e.Meta.ChunkID,
			TotalChunks: e.Meta.TotalChunks,
			Score:       1,
			Rank:        i,
			Meta:        e.Meta,
		}
	}
	return results, nil
}

// scoreFromDistance converts cosine distance in [0,2] to a similarity
// score clamped into [0,1].
func scoreFromDistance(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
