package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
)

// wordEncoder embeds text as counts over a fixed vocabulary.
type wordEncoder struct {
	vocab []string
	delay time.Duration
	err   error
}

func newWordEncoder(vocab ...string) *wordEncoder {
	return &wordEncoder{vocab: vocab}
}

func (e *wordEncoder) Dims() int { return len(e.vocab) }

func (e *wordEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	lower := strings.ToLower(text)
	v := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	return v, nil
}

// recordingStore wraps a store and counts deletes.
type recordingStore struct {
	core.Store
	mu      sync.Mutex
	deletes int
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.Store.Delete(ctx, key)
}

// batchStore also deletes in batches and records each batch.
type batchStore struct {
	recordingStore
	batches [][]string
}

func (s *batchStore) DeleteMany(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	s.batches = append(s.batches, keys)
	s.mu.Unlock()
	for _, key := range keys {
		if err := s.Store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func testMemoryConfig() *config.MemoryConfig {
	return &config.MemoryConfig{
		Method:              config.MethodRedis,
		KeyLayout:           config.LayoutPrefix,
		STMemoryLimit:       3,
		ImportanceThreshold: 0.7,
		ShortTermTTL:        3600,
		LongTermTTL:         86400,
		AffectiveKeywords:   []string{"happy", "sad", "angry", "excited", "worried"},
		HistorySize:         10,
		RetrieveLimit:       5,
		StoreTimeout:        time.Second,
		EmbedTimeout:        time.Second,
	}
}
