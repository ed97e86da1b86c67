// Package embedding provides decorators shared by the embedding
// service adapters.
package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Bounded implements the interface.
var _ driven.EmbeddingService = (*Bounded)(nil)

// Default limits, sized for a local Ollama server. Remote APIs should
// pass their own.
const (
	DefaultMaxInFlight       = 4
	DefaultRequestsPerSecond = 10
)

// Bounded wraps an EmbeddingService with a concurrency cap and a rate
// limit. Callers over the limit wait rather than fail, so a large
// batch ingest degrades to a slower one instead of an erroring one.
type Bounded struct {
	inner   driven.EmbeddingService
	sem     chan struct{}
	limiter *rate.Limiter
}

// NewBounded creates a bounded decorator around inner. maxInFlight
// caps concurrent requests; rps caps the request rate. Zero or
// negative values fall back to the defaults.
func NewBounded(inner driven.EmbeddingService, maxInFlight int, rps float64) *Bounded {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Bounded{
		inner:   inner,
		sem:     make(chan struct{}, maxInFlight),
		limiter: rate.NewLimiter(rate.Limit(rps), maxInFlight),
	}
}

// acquire blocks until a slot and a rate token are available, or the
// context is cancelled.
func (b *Bounded) acquire(ctx context.Context) (release func(), err error) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for embedding slot: %w", ctx.Err())
	}
	if err := b.limiter.Wait(ctx); err != nil {
		<-b.sem
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return func() { <-b.sem }, nil
}

// Embed generates a vector embedding for the given text.
func (b *Bounded) Embed(ctx context.Context, text string) ([]float32, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return b.inner.Embed(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts. A batch counts
// as one request against both limits.
func (b *Bounded) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return b.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding vector size.
func (b *Bounded) Dimensions() int {
	return b.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (b *Bounded) ModelName() string {
	return b.inner.ModelName()
}

// Ping validates the wrapped service is reachable.
func (b *Bounded) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

// Close releases resources held by the wrapped service.
func (b *Bounded) Close() error {
	return b.inner.Close()
}
