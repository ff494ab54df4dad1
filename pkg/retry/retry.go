package retry

import (
	"context"
	"math/rand"
	"time"
)

// Operation receives a context bounded by Config.AttemptTimeout when set.
type Operation = func(ctx context.Context) error

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Config struct {
	MaxRetries     int
	BackoffFactor  float64
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Jitter         time.Duration
	AttemptTimeout time.Duration
	// DelayAfterLast also waits after the final failed attempt before
	// returning, so every failed attempt is followed by its backoff.
	DelayAfterLast bool
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2.15,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      20 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// NewConnectConfig is the policy used to reach remote stores: five attempts
// in total, 2s base delay doubling each time, 5s per attempt.
func NewConnectConfig() *Config {
	return &Config{
		MaxRetries:     4,
		BackoffFactor:  2,
		InitialDelay:   2 * time.Second,
		MaxDelay:       32 * time.Second,
		AttemptTimeout: 5 * time.Second,
		DelayAfterLast: true,
	}
}

type Retrier struct {
	config *Config
	sleep  SleepFunc
	// OnRetry is called after each failed attempt with the attempt number
	// (starting at 1), its error and the delay about to be waited.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{
		config: config,
		sleep:  Sleep,
	}
}

func NewDefaultRetrier() *Retrier {
	return NewRetrier(NewDefaultConfig())
}

// WithSleep replaces the wait function, tests use it to record delays.
func (r *Retrier) WithSleep(fn SleepFunc) *Retrier {
	r.sleep = fn
	return r
}

func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var err error
	delay := r.config.InitialDelay
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err = r.attempt(ctx, op)
		if err == nil {
			return nil
		}

		last := attempt == r.config.MaxRetries
		if last && !r.config.DelayAfterLast {
			return err
		}

		var jitter time.Duration
		if r.config.Jitter > 0 {
			jitter = time.Duration(rnd.Float64() * float64(r.config.Jitter))
		}
		nextDelay := delay + jitter
		if nextDelay > r.config.MaxDelay {
			nextDelay = r.config.MaxDelay + jitter
		}

		if r.OnRetry != nil {
			r.OnRetry(attempt+1, err, nextDelay)
		}

		if serr := r.sleep(ctx, nextDelay); serr != nil {
			return serr
		}
		if last {
			return err
		}

		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
	return err
}

func (r *Retrier) attempt(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.config.AttemptTimeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.config.AttemptTimeout)
	defer cancel()
	return op(attemptCtx)
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
