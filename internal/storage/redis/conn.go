package redis

import (
	"context"
	"errors"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/pkg/log"
	"github.com/sandevgo/motherbrain/pkg/retry"
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Degraded
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Degraded:
		return "degraded"
	}
	return "unknown"
}

// ConnectionManager owns the shared redis client. Connect and reconnect are
// serialized by a context-aware lock; commands go through Ready and never
// wait on it.
type ConnectionManager struct {
	opts    *goredis.Options
	retrier *retry.Retrier
	metrics *metrics.Metrics

	lock   *semaphore.Weighted
	client atomic.Pointer[goredis.Client]
	state  atomic.Int32
}

type Option func(*ConnectionManager)

// WithSleep replaces the backoff wait.
func WithSleep(fn retry.SleepFunc) Option {
	return func(m *ConnectionManager) {
		m.retrier.WithSleep(fn)
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *ConnectionManager) {
		m.metrics = mt
	}
}

func NewConnectionManager(cfg *config.RedisConfig, opts ...Option) *ConnectionManager {
	m := &ConnectionManager{
		opts: &goredis.Options{
			Addr:        cfg.Addr(),
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.ConnectTimeout,
		},
		retrier: retry.NewRetrier(connectPolicy(cfg)),
		lock:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// connectPolicy spreads cfg.ConnectAttempts over a doubling backoff that
// also waits after the last failure.
func connectPolicy(cfg *config.RedisConfig) *retry.Config {
	policy := retry.NewConnectConfig()
	policy.MaxRetries = cfg.ConnectAttempts - 1
	policy.InitialDelay = cfg.ConnectBaseDelay
	policy.MaxDelay = cfg.ConnectBaseDelay * time.Duration(math.Pow(2, float64(cfg.ConnectAttempts-1)))
	policy.AttemptTimeout = cfg.ConnectTimeout
	return policy
}

func (m *ConnectionManager) State() State {
	return State(m.state.Load())
}

// Client returns the current client, nil before the first successful connect.
func (m *ConnectionManager) Client() *goredis.Client {
	return m.client.Load()
}

func (m *ConnectionManager) Addr() string {
	return m.opts.Addr
}

// Ready returns the client when the connection is up. It never dials or
// waits; a degraded connection is repaired by EnsureConnection.
func (m *ConnectionManager) Ready(op string) (*goredis.Client, error) {
	client := m.Client()
	if client == nil || m.State() != Connected {
		return nil, core.NewError(core.ErrConnection, op, "redis %s", m.State())
	}
	return client, nil
}

// Connect replaces any existing client. It fails with core.ErrConnection
// once every attempt is spent, or when ctx ends while another connect is
// in progress.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	if err := m.acquire(ctx, "redis.connect"); err != nil {
		return err
	}
	defer m.lock.Release(1)
	return m.connectLocked(ctx)
}

func (m *ConnectionManager) acquire(ctx context.Context, op string) error {
	if err := m.lock.Acquire(ctx, 1); err != nil {
		return core.Wrap(core.ErrConnection, op, err)
	}
	return nil
}

func (m *ConnectionManager) connectLocked(ctx context.Context) error {
	logger := log.Component(ctx, "redis")
	m.setState(Connecting)
	m.dropClient()

	m.retrier.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Str("addr", m.opts.Addr).
			Msg("redis connect attempt failed")
	}

	err := m.retrier.Do(ctx, func(ctx context.Context) error {
		client := goredis.NewClient(m.opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return err
		}
		m.client.Store(client)
		return nil
	})
	if err != nil {
		m.setState(Disconnected)
		m.metrics.RedisConnect(metrics.ResultError)
		logger.Error().Err(err).Str("addr", m.opts.Addr).Msg("could not connect to redis")
		return core.Wrap(core.ErrConnection, "redis.connect", err)
	}

	m.setState(Connected)
	m.metrics.RedisConnect(metrics.ResultOK)
	logger.Info().Str("addr", m.opts.Addr).Msg("connected to redis")
	return nil
}

// EnsureConnection pings the current client and reconnects when the ping
// fails or no client exists yet.
func (m *ConnectionManager) EnsureConnection(ctx context.Context) error {
	if m.ping(ctx) {
		return nil
	}

	if err := m.acquire(ctx, "redis.ensure"); err != nil {
		return err
	}
	defer m.lock.Release(1)

	// a concurrent caller may have reconnected while we waited
	if m.State() == Connected && m.Client() != nil {
		return nil
	}
	return m.connectLocked(ctx)
}

// Healthy pings without reconnecting.
func (m *ConnectionManager) Healthy(ctx context.Context) bool {
	return m.ping(ctx)
}

func (m *ConnectionManager) ping(ctx context.Context) bool {
	client := m.Client()
	if client == nil || m.State() != Connected {
		return false
	}
	if err := client.Ping(ctx).Err(); err != nil {
		m.degrade(ctx, err)
		return false
	}
	return true
}

// ReportFailure moves a connected manager to Degraded when a command error
// looks like a transport failure and reports whether it did. Server replies
// and caller deadlines are ignored.
func (m *ConnectionManager) ReportFailure(ctx context.Context, err error) bool {
	if err == nil || errors.Is(err, goredis.Nil) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rerr goredis.Error
	if errors.As(err, &rerr) {
		return false
	}
	m.degrade(ctx, err)
	return true
}

func (m *ConnectionManager) degrade(ctx context.Context, err error) {
	if m.state.CompareAndSwap(int32(Connected), int32(Degraded)) {
		m.metrics.SetRedisState(int(Degraded))
		log.Component(ctx, "redis").Warn().Err(err).Msg("redis connection degraded")
	}
}

// Close waits for an in-flight connect to finish.
func (m *ConnectionManager) Close() error {
	_ = m.lock.Acquire(context.Background(), 1)
	defer m.lock.Release(1)

	err := m.dropClient()
	m.setState(Disconnected)
	return err
}

func (m *ConnectionManager) dropClient() error {
	client := m.client.Swap(nil)
	if client == nil {
		return nil
	}
	return client.Close()
}

func (m *ConnectionManager) setState(s State) {
	m.state.Store(int32(s))
	m.metrics.SetRedisState(int(s))
}
