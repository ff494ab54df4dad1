package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// PersonalityConfig holds the bucket boundaries used when rendering traits
// and mood as text.
type PersonalityConfig struct {
	LowThreshold  float64 `env:"BRAIN_LEVEL_LOW" envDefault:"0.3"`
	HighThreshold float64 `env:"BRAIN_LEVEL_HIGH" envDefault:"0.7"`
}

func NewPersonalityConfig(ctx context.Context) *PersonalityConfig {
	c := &PersonalityConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Personality config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Personality config")
	}
	return c
}

func (c PersonalityConfig) Validate() error {
	if c.LowThreshold < 0 || c.HighThreshold > 1 || c.LowThreshold >= c.HighThreshold {
		return fmt.Errorf("level thresholds must satisfy 0 <= low < high <= 1, got %v/%v", c.LowThreshold, c.HighThreshold)
	}
	return nil
}
