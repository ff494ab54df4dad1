package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const (
	MethodSimple = "simple"
	MethodRedis  = "redis"
	MethodSQLite = "sqlite"
	// semantic retrieval over an in-process store
	MethodMemory = "memory"

	LayoutPrefix = "prefix"
	LayoutHash   = "hash"
)

type MemoryConfig struct {
	Method    string `env:"BRAIN_MEMORY_METHOD" envDefault:"simple"`
	KeyLayout string `env:"BRAIN_MEMORY_KEY_LAYOUT" envDefault:"prefix"`

	STMemoryLimit       int     `env:"BRAIN_ST_MEMORY_LIMIT" envDefault:"100"`
	ImportanceThreshold float64 `env:"BRAIN_IMPORTANCE_THRESHOLD" envDefault:"0.7"`
	// memory_ttl.short_term / memory_ttl.long_term, seconds
	ShortTermTTL int `env:"BRAIN_MEMORY_TTL_SHORT_TERM" envDefault:"3600"`
	LongTermTTL  int `env:"BRAIN_MEMORY_TTL_LONG_TERM" envDefault:"604800"`

	AffectiveKeywords []string `env:"BRAIN_AFFECTIVE_KEYWORDS" envDefault:"happy,sad,angry,excited,worried"`

	HistorySize        int           `env:"BRAIN_SIMPLE_HISTORY_SIZE" envDefault:"10"`
	RetrieveLimit      int           `env:"BRAIN_RETRIEVE_LIMIT" envDefault:"5"`
	StoreTimeout       time.Duration `env:"BRAIN_STORE_TIMEOUT" envDefault:"100ms"`
	EmbedTimeout       time.Duration `env:"BRAIN_EMBED_TIMEOUT" envDefault:"5s"`
	ContextTokenBudget int           `env:"BRAIN_CONTEXT_TOKEN_BUDGET" envDefault:"0"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c, err := ParseMemoryConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to load Memory config")
	}
	return c
}

func ParseMemoryConfig() (*MemoryConfig, error) {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c MemoryConfig) Validate() error {
	switch c.Method {
	case MethodSimple, MethodRedis, MethodSQLite, MethodMemory:
	default:
		return fmt.Errorf("unknown memory method %q", c.Method)
	}
	switch c.KeyLayout {
	case LayoutPrefix, LayoutHash:
	default:
		return fmt.Errorf("unknown key layout %q", c.KeyLayout)
	}
	if c.STMemoryLimit <= 0 {
		return fmt.Errorf("st_memory_limit must be positive, got %d", c.STMemoryLimit)
	}
	if c.ImportanceThreshold < 0 || c.ImportanceThreshold > 1 {
		return fmt.Errorf("importance_threshold must be within [0,1], got %v", c.ImportanceThreshold)
	}
	if c.ShortTermTTL <= 0 || c.LongTermTTL <= 0 {
		return fmt.Errorf("memory ttls must be positive")
	}
	if c.ShortTermTTL >= c.LongTermTTL {
		return fmt.Errorf("short-term ttl (%ds) must be below long-term ttl (%ds)", c.ShortTermTTL, c.LongTermTTL)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("simple history size must be positive, got %d", c.HistorySize)
	}
	if c.RetrieveLimit <= 0 {
		return fmt.Errorf("retrieve limit must be positive, got %d", c.RetrieveLimit)
	}
	if c.StoreTimeout <= 0 || c.EmbedTimeout <= 0 {
		return fmt.Errorf("memory timeouts must be positive")
	}
	if c.ContextTokenBudget < 0 {
		return fmt.Errorf("context token budget must not be negative")
	}
	return nil
}

func (c MemoryConfig) ShortTermDuration() time.Duration {
	return time.Duration(c.ShortTermTTL) * time.Second
}

func (c MemoryConfig) LongTermDuration() time.Duration {
	return time.Duration(c.LongTermTTL) * time.Second
}
