package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderHash   = "hash"
)

type EmbeddingConfig struct {
	Provider string `env:"BRAIN_EMBEDDING_PROVIDER" envDefault:"openai"`
	// model identifier handed to the encoder
	ModelName string `env:"BRAIN_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dims      int    `env:"BRAIN_EMBEDDING_DIMS" envDefault:"1536"`
	BaseURL   string `env:"BRAIN_EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey    string `env:"BRAIN_EMBEDDING_API_KEY"`
	Workers   int    `env:"BRAIN_EMBEDDING_WORKERS" envDefault:"4"`
	CacheSize int64  `env:"BRAIN_EMBEDDING_CACHE_SIZE" envDefault:"1024"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	cfg := &EmbeddingConfig{}
	if err := env.Parse(cfg); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	if err := cfg.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Embedding config")
	}
	return cfg
}

func (c EmbeddingConfig) Validate() error {
	switch c.Provider {
	case EmbeddingProviderOpenAI, EmbeddingProviderHash:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Provider)
	}
	if c.Dims <= 0 {
		return fmt.Errorf("embedding dims must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("embedding workers must be positive")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("embedding cache size must not be negative")
	}
	return nil
}
