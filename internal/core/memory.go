package core

import (
	"context"
	"time"
)

// Store persists Memory records. Implementations assign unique, sortable
// keys and drop records once their ttl elapses.
type Store interface {
	Add(ctx context.Context, m Memory, ttl time.Duration) (string, error)
	QueryAll(ctx context.Context, prefix string) ([]Memory, error)
	Delete(ctx context.Context, key string) error
}

// Getter is implemented by stores that can load a single record.
type Getter interface {
	Get(ctx context.Context, key string) (Memory, error)
}

// BatchDeleter is implemented by stores that remove many keys in one round
// trip.
type BatchDeleter interface {
	DeleteMany(ctx context.Context, keys ...string) error
}

// HealthChecker is implemented by stores backed by a remote service.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}
