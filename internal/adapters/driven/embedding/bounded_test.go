package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingService tracks concurrent in-flight calls.
type countingService struct {
	inFlight    atomic.Int32
	maxObserved atomic.Int32
	calls       atomic.Int32
}

func (c *countingService) enter() {
	n := c.inFlight.Add(1)
	for {
		observed := c.maxObserved.Load()
		if n <= observed || c.maxObserved.CompareAndSwap(observed, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
}

func (c *countingService) Embed(ctx context.Context, text string) ([]float32, error) {
	c.enter()
	defer c.inFlight.Add(-1)
	c.calls.Add(1)
	return []float32{1, 0}, nil
}

func (c *countingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.enter()
	defer c.inFlight.Add(-1)
	c.calls.Add(1)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (c *countingService) Dimensions() int                { return 2 }
func (c *countingService) ModelName() string              { return "counting" }
func (c *countingService) Ping(ctx context.Context) error { return nil }
func (c *countingService) Close() error                   { return nil }

func TestBounded_CapsConcurrency(t *testing.T) {
	inner := &countingService{}
	b := NewBounded(inner, 2, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Embed(context.Background(), "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(16), inner.calls.Load())
	assert.LessOrEqual(t, inner.maxObserved.Load(), int32(2))
}

func TestBounded_ContextCancellation(t *testing.T) {
	inner := &countingService{}
	// Rate of one per hour so the second call must wait on the limiter.
	b := NewBounded(inner, 1, 1.0/3600)

	_, err := b.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = b.Embed(ctx, "second")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBounded_PassesThrough(t *testing.T) {
	inner := &countingService{}
	b := NewBounded(inner, 0, 0)

	assert.Equal(t, 2, b.Dimensions())
	assert.Equal(t, "counting", b.ModelName())
	assert.NoError(t, b.Ping(context.Background()))

	vecs, err := b.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	assert.NoError(t, b.Close())
}
