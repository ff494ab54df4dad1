package redis

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/motherbrain/internal/config"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *sleepRecorder) total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for _, d := range r.delays {
		sum += d
	}
	return sum
}

func redisConfig(t *testing.T, addr string) *config.RedisConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return &config.RedisConfig{
		Host:             host,
		Port:             p,
		ConnectAttempts:  5,
		ConnectBaseDelay: 2 * time.Second,
		ConnectTimeout:   5 * time.Second,
	}
}

func newConnected(t *testing.T) (*miniredis.Miniredis, *ConnectionManager, *sleepRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	rec := &sleepRecorder{}
	conn := NewConnectionManager(redisConfig(t, mr.Addr()), WithSleep(rec.sleep))
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { _ = conn.Close() })
	return mr, conn, rec
}
