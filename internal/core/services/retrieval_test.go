package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpus/internal/core/domain"
)

func seedEntry(id, source string, chunkID, total int, embedding []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ID:        id,
		Content:   "content of " + id,
		Embedding: embedding,
		Meta: domain.ChunkMeta{
			Source:      source,
			ChunkID:     chunkID,
			TotalChunks: total,
			FileHash:    "hash-" + source,
			UploadDate:  time.Now().UTC(),
		},
	}
}

func TestRetrieve_RanksByScore(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewVectorIndex(3)
	emb := newFakeEmbedder(3)
	emb.vectors["query"] = []float32{1, 0, 0}

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		seedEntry("exact", "a.txt", 0, 3, []float32{1, 0, 0}),
		seedEntry("close", "a.txt", 1, 3, []float32{1, 0.2, 0}),
		seedEntry("orthogonal", "a.txt", 2, 3, []float32{0, 1, 0}),
	}))

	svc := NewRetrievalService(emb, idx)
	results, err := svc.Retrieve(ctx, "query", 3, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "content of exact", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "content of close", results[1].Content)
	assert.Equal(t, "content of orthogonal", results[2].Content)

	// Scores non-increasing, bounded, ranks dense.
	for i, r := range results {
		assert.Equal(t, i, r.Rank)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, results[i-1].Score)
		}
	}
}

func TestRetrieve_OppositeVectorScoresZero(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewVectorIndex(2)
	emb := newFakeEmbedder(2)
	emb.vectors["query"] = []float32{1, 0}

	// Cosine distance 2; score clamps at 0 rather than going negative.
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		seedEntry("opposite", "a.txt", 0, 1, []float32{-1, 0}),
	}))

	svc := NewRetrievalService(emb, idx)
	results, err := svc.Retrieve(ctx, "query", 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Score)
}

func TestRetrieve_ThresholdFilters(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewVectorIndex(2)
	emb := newFakeEmbedder(2)
	emb.vectors["query"] = []float32{1, 0}

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		seedEntry("exact", "a.txt", 0, 2, []float32{1, 0}),
		seedEntry("orthogonal", "a.txt", 1, 2, []float32{0, 1}),
	}))

	svc := NewRetrievalService(emb, idx)
	results, err := svc.Retrieve(ctx, "query", 2, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "content of exact", results[0].Content)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	svc := NewRetrievalService(newFakeEmbedder(2), memory.NewVectorIndex(2))

	results, err := svc.Retrieve(context.Background(), "anything", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := NewRetrievalService(newFakeEmbedder(2), memory.NewVectorIndex(2))
	_, err := svc.Retrieve(context.Background(), "   ", 5, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_DegradesOnEmbedderFailure(t *testing.T) {
	emb := newFakeEmbedder(2)
	emb.err = errors.New("connection refused")
	svc := NewRetrievalService(emb, memory.NewVectorIndex(2))

	results, err := svc.Retrieve(context.Background(), "query", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_DegradesOnIndexFailure(t *testing.T) {
	svc := NewRetrievalService(newFakeEmbedder(2), &failingIndex{dims: 2})

	results, err := svc.Retrieve(context.Background(), "query", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestByDocument(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewVectorIndex(2)

	// Inserted out of order; results come back by ordinal.
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		seedEntry("c2", "doc.txt", 2, 3, []float32{0, 1}),
		seedEntry("c0", "doc.txt", 0, 3, []float32{1, 0}),
		seedEntry("c1", "doc.txt", 1, 3, []float32{1, 1}),
		seedEntry("other", "other.txt", 0, 1, []float32{1, 0}),
	}))

	svc := NewRetrievalService(newFakeEmbedder(2), idx)
	results, err := svc.ByDocument(ctx, "doc.txt", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.ChunkID)
		assert.Equal(t, "doc.txt", r.Source)
		assert.Equal(t, 1.0, r.Score)
	}

	limited, err := svc.ByDocument(ctx, "doc.txt", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = svc.ByDocument(ctx, "absent.txt", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
