package embedding

import (
	"context"
	"fmt"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// NewEncoder builds the configured encoder wrapped in a worker pool and, when
// CacheSize is positive, a lookup cache. The returned cleanup releases the
// cache.
func NewEncoder(ctx context.Context, cfg *config.EmbeddingConfig, mt *metrics.Metrics) (core.Encoder, func() error, error) {
	var base core.Encoder
	switch cfg.Provider {
	case config.EmbeddingProviderOpenAI:
		base = NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.ModelName, cfg.Dims)
	case config.EmbeddingProviderHash:
		base = NewHash(cfg.Dims)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.ModelName).
		Int("dims", cfg.Dims).
		Int("workers", cfg.Workers).
		Msg("starting embedding provider")

	var enc core.Encoder = NewPool(base, cfg.Workers)
	if cfg.CacheSize <= 0 {
		return enc, func() error { return nil }, nil
	}

	cached, err := NewCached(enc, cfg.CacheSize, mt)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Close, nil
}
