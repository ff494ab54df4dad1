// Package inmem is a process-local memory store with per-record expiry.
package inmem

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/storage"
)

type entry struct {
	mem     core.Memory
	expires time.Time
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   *storage.Clock
	now     func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests drive expiry.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]entry),
		clock:   storage.NewClockFunc(now),
		now:     now,
	}
}

func (s *Store) Add(ctx context.Context, m core.Memory, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", core.Wrap(core.ErrTimeout, "inmem.add", err)
	}

	at := s.clock.Next()
	key := storage.TierKey(m.Type.Prefix(), at)
	m = clone(m)
	m.Key = key

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{mem: m, expires: at.Add(ttl)}
	s.purgeLocked()
	return key, nil
}

func (s *Store) QueryAll(ctx context.Context, prefix string) ([]core.Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Wrap(core.ErrTimeout, "inmem.query", err)
	}

	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	mems := make([]core.Memory, 0, len(s.entries))
	for _, e := range s.entries {
		if !now.Before(e.expires) || !e.mem.MatchesPrefix(prefix) {
			continue
		}
		mems = append(mems, clone(e.mem))
	}
	storage.SortByInsertion(mems)
	return mems, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expires) {
		return core.Memory{}, core.NewError(core.ErrNotFound, "inmem.get", "key %q", key)
	}
	return clone(e.mem), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) purgeLocked() {
	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, key)
		}
	}
}

// clone detaches the record from caller-owned slices and maps.
func clone(m core.Memory) core.Memory {
	m.Embedding = append([]float32(nil), m.Embedding...)
	m.Context = maps.Clone(m.Context)
	return m
}
