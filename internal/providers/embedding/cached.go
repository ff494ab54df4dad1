package embedding

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
)

// Cached memoises embeddings by text. Queries repeat far more often than
// turns do, so the cache mostly saves round trips on retrieval.
type Cached struct {
	next    core.Encoder
	cache   *ristretto.Cache
	metrics *metrics.Metrics
}

func NewCached(next core.Encoder, size int64, mt *metrics.Metrics) (*Cached, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Cached{next: next, cache: cache, metrics: mt}, nil
}

func (c *Cached) Encode(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		c.metrics.CacheLookup(true)
		return clone(v.([]float32)), nil
	}
	c.metrics.CacheLookup(false)

	vec, err := c.next.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, clone(vec), 1)
	return vec, nil
}

func (c *Cached) Dims() int {
	return c.next.Dims()
}

// Wait blocks until pending cache writes are visible.
func (c *Cached) Wait() {
	c.cache.Wait()
}

func (c *Cached) Close() error {
	c.cache.Close()
	return nil
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
