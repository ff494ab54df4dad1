package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// LLMConfig points at an OpenAI compatible endpoint. A local server works
// by overriding the base URL.
type LLMConfig struct {
	Analysis        bool          `env:"BRAIN_ANALYSIS_ENABLED" envDefault:"true"`
	BaseURL         string        `env:"BRAIN_LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey          string        `env:"BRAIN_LLM_API_KEY"`
	Model           string        `env:"BRAIN_LLM_MODEL" envDefault:"gpt-4o-mini"`
	AnalysisTimeout time.Duration `env:"BRAIN_ANALYSIS_TIMEOUT" envDefault:"30s"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid LLM config")
	}
	return c
}

func (c LLMConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("analysis timeout must be positive")
	}
	return nil
}

// Enabled reports whether interaction analysis can run.
func (c LLMConfig) Enabled() bool {
	return c.Analysis && c.BaseURL != ""
}
