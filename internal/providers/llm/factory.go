package llm

import (
	"context"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// NewProvider returns the chat provider used for interaction analysis, or
// nil when no endpoint is configured.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) core.ChatProvider {
	if !cfg.Enabled() {
		log.FromCtx(ctx).Warn().Msg("no llm endpoint configured, interaction analysis disabled")
		return nil
	}

	log.FromCtx(ctx).Info().
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model)
}
