package services

import (
	"context"
	"errors"
	"math"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// fakeEmbedder is a deterministic in-process embedding service.
// Texts listed in vectors get those exact embeddings; anything else
// gets a unit vector derived from its bytes.
type fakeEmbedder struct {
	dims    int
	vectors map[string][]float32
	err     error
	calls   int
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return derivedVector(text, f.dims), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int                { return f.dims }
func (f *fakeEmbedder) ModelName() string              { return "fake" }
func (f *fakeEmbedder) Ping(ctx context.Context) error { return f.err }
func (f *fakeEmbedder) Close() error                   { return nil }

// derivedVector folds the text bytes into a normalised vector.
func derivedVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for i, c := range text {
		v[i%dims] += float32(c)
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// failingIndex errors on every operation, for degraded-mode tests.
type failingIndex struct {
	dims int
}

var _ driven.VectorIndex = (*failingIndex)(nil)

func (f *failingIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	return domain.ErrIndexUnavailable
}

func (f *failingIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	return nil, domain.ErrIndexUnavailable
}

func (f *failingIndex) DeleteWhere(ctx context.Context, pred driven.EntryPredicate) (int, error) {
	return 0, domain.ErrIndexUnavailable
}

func (f *failingIndex) GetAll(ctx context.Context, pred driven.EntryPredicate) ([]domain.IndexEntry, error) {
	return nil, domain.ErrIndexUnavailable
}

func (f *failingIndex) Count(ctx context.Context) (int, error) {
	return 0, domain.ErrIndexUnavailable
}

func (f *failingIndex) Dimensions() int { return f.dims }
func (f *failingIndex) Close() error    { return nil }

// stubRetriever returns canned results, for context assembly tests.
type stubRetriever struct {
	results []domain.RetrievalResult
	err     error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, k int, threshold float64) ([]domain.RetrievalResult, error) {
	return s.results, s.err
}

func (s *stubRetriever) ByDocument(ctx context.Context, name string, limit int) ([]domain.RetrievalResult, error) {
	return nil, errors.New("not implemented")
}
