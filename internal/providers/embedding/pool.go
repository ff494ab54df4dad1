package embedding

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/sandevgo/motherbrain/internal/core"
)

// Pool caps the number of Encode calls in flight against the wrapped encoder.
type Pool struct {
	next core.Encoder
	sem  *semaphore.Weighted
}

func NewPool(next core.Encoder, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		next: next,
		sem:  semaphore.NewWeighted(int64(workers)),
	}
}

func (p *Pool) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	return p.next.Encode(ctx, text)
}

func (p *Pool) Dims() int {
	return p.next.Dims()
}
