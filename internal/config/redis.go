package config

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/motherbrain/pkg/log"
)

type RedisConfig struct {
	Host     string `env:"BRAIN_REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"BRAIN_REDIS_PORT" envDefault:"6379"`
	DB       int    `env:"BRAIN_REDIS_DB" envDefault:"0"`
	Password string `env:"BRAIN_REDIS_PASSWORD"`

	ConnectAttempts  int           `env:"BRAIN_REDIS_CONNECT_ATTEMPTS" envDefault:"5"`
	ConnectBaseDelay time.Duration `env:"BRAIN_REDIS_CONNECT_BASE_DELAY" envDefault:"2s"`
	ConnectTimeout   time.Duration `env:"BRAIN_REDIS_CONNECT_TIMEOUT" envDefault:"5s"`
	HealthInterval   time.Duration `env:"BRAIN_REDIS_HEALTH_INTERVAL" envDefault:"30s"`
}

func NewRedisConfig(ctx context.Context) *RedisConfig {
	c := &RedisConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Redis config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Redis config")
	}
	return c
}

func (c RedisConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("redis host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("redis port out of range: %d", c.Port)
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if c.ConnectAttempts <= 0 {
		return fmt.Errorf("redis connect attempts must be positive")
	}
	if c.ConnectBaseDelay <= 0 || c.ConnectTimeout <= 0 {
		return fmt.Errorf("redis connect delay and timeout must be positive")
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("redis health interval must be positive")
	}
	return nil
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
