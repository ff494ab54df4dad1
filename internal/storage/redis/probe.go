package redis

import (
	"context"
	"time"

	"github.com/sandevgo/motherbrain/pkg/log"
)

// Probe periodically calls EnsureConnection so a degraded connection is
// repaired between requests. It implements srv.Service.
type Probe struct {
	conn     *ConnectionManager
	interval time.Duration
	done     chan struct{}
}

func NewProbe(conn *ConnectionManager, interval time.Duration) *Probe {
	return &Probe{
		conn:     conn,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (p *Probe) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}
	logger := log.Component(ctx, "redis")

	// Shutdown also aborts a reconnect in progress.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.done:
			return nil
		case <-ticker.C:
			if err := p.conn.EnsureConnection(ctx); err != nil {
				logger.Error().Err(err).Msg("redis probe failed")
			}
		}
	}
}

func (p *Probe) Shutdown(ctx context.Context) error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return p.conn.Close()
}
