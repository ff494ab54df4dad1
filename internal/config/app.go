package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/motherbrain/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"BRAIN_RUNTIME_PATH" envDefault:".motherbrain"`
	HTTPAddr    string `env:"BRAIN_HTTP_ADDR" envDefault:"localhost:5503"`
	// per-person relationship tracking, keyed by context user_id
	EnableRelationships bool `env:"BRAIN_ENABLE_RELATIONSHIPS" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid App config")
	}
	return c
}

func (c AppConfig) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("BRAIN_HTTP_ADDR must not be empty")
	}
	return nil
}

func (c AppConfig) GetRuntimePath() string {
	if filepath.IsAbs(c.RuntimePath) {
		return c.RuntimePath
	}
	return GetRuntimePath()
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "motherbrain.db")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.GetRuntimePath(), ".env")
}
