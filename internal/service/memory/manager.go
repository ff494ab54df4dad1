// Package memory is the dialog memory engine: retention, ranking and the
// facade the conversation loop talks to.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// Backend is one memory strategy behind the Manager.
type Backend interface {
	Name() string
	Add(ctx context.Context, turn core.Turn) error
	Relevant(ctx context.Context, sessionID, query string, limit int) (string, error)
	Recall(ctx context.Context, sessionID, query string, limit int) ([]Scored, error)
}

// Manager serializes the operations of each session and turns every
// backend failure into a logged, degraded result. None of its methods
// return errors.
type Manager struct {
	backend Backend
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from the map once no caller holds or waits on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(backend Backend, mt *metrics.Metrics) *Manager {
	return &Manager{
		backend: backend,
		metrics: mt,
		locks:   make(map[string]*sessionLock),
	}
}

func (m *Manager) BackendName() string {
	return m.backend.Name()
}

// lock takes the session's lock and returns its release.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) liveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Session is a view of one session whose methods run without taking the
// session lock. It is only valid inside WithSession.
type Session struct {
	m  *Manager
	id string
}

// WithSession runs fn while holding the lock of sessionID, so work done by
// the caller is serialized with every other operation on that session.
func (m *Manager) WithSession(sessionID string, fn func(s Session)) {
	if sessionID == "" {
		sessionID = core.DefaultSessionID
	}
	unlock := m.lock(sessionID)
	defer unlock()
	fn(Session{m: m, id: sessionID})
}

func (s Session) AddDialogMemory(ctx context.Context, userText, aiResponse string, signals map[string]any) bool {
	return s.m.add(ctx, s.id, userText, aiResponse, signals)
}

func (s Session) Recall(ctx context.Context, query string, limit int) []Scored {
	return s.m.recall(ctx, s.id, query, limit)
}

// AddDialogMemory stores one completed turn and reports whether it was
// persisted. Empty user text or response is rejected.
func (m *Manager) AddDialogMemory(ctx context.Context, sessionID, userText, aiResponse string, signals map[string]any) bool {
	var ok bool
	m.WithSession(sessionID, func(s Session) {
		ok = s.AddDialogMemory(ctx, userText, aiResponse, signals)
	})
	return ok
}

func (m *Manager) add(ctx context.Context, sessionID, userText, aiResponse string, signals map[string]any) bool {
	if userText == "" || aiResponse == "" {
		return false
	}
	start := time.Now()
	turn := turnAt(core.Turn{
		SessionID:  sessionID,
		UserText:   userText,
		AIResponse: aiResponse,
		Context:    signals,
	})
	err := m.backend.Add(ctx, turn)
	m.record(ctx, "add", start, err)
	return err == nil
}

// GetRelevantContext renders the memories most relevant to query, or an
// empty string when there are none or the backend failed.
func (m *Manager) GetRelevantContext(ctx context.Context, sessionID, query string, limit int) string {
	if sessionID == "" {
		sessionID = core.DefaultSessionID
	}
	unlock := m.lock(sessionID)
	defer unlock()

	start := time.Now()
	out, err := m.backend.Relevant(ctx, sessionID, query, limit)
	m.record(ctx, "retrieve", start, err)
	if err != nil {
		return ""
	}
	return out
}

// Recall returns the ranked memories behind GetRelevantContext. It yields
// an empty slice when nothing matched or the backend failed.
func (m *Manager) Recall(ctx context.Context, sessionID, query string, limit int) []Scored {
	var out []Scored
	m.WithSession(sessionID, func(s Session) {
		out = s.Recall(ctx, query, limit)
	})
	return out
}

func (m *Manager) recall(ctx context.Context, sessionID, query string, limit int) []Scored {
	start := time.Now()
	out, err := m.backend.Recall(ctx, sessionID, query, limit)
	m.record(ctx, "recall", start, err)
	if err != nil || out == nil {
		return []Scored{}
	}
	return out
}

// AddDialogMemoryAsync runs AddDialogMemory on its own goroutine. The
// channel receives exactly one value.
func (m *Manager) AddDialogMemoryAsync(ctx context.Context, sessionID, userText, aiResponse string, signals map[string]any) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		out <- m.AddDialogMemory(ctx, sessionID, userText, aiResponse, signals)
	}()
	return out
}

// GetRelevantContextAsync runs GetRelevantContext on its own goroutine.
func (m *Manager) GetRelevantContextAsync(ctx context.Context, sessionID, query string, limit int) <-chan string {
	out := make(chan string, 1)
	go func() {
		out <- m.GetRelevantContext(ctx, sessionID, query, limit)
	}()
	return out
}

// Inspect loads one stored memory for debugging.
func (m *Manager) Inspect(ctx context.Context, key string) (core.Memory, error) {
	g, ok := m.backend.(core.Getter)
	if !ok {
		return core.Memory{}, core.NewError(core.ErrNotFound, "memory.inspect", "backend %s has no keyed records", m.backend.Name())
	}
	return g.Get(ctx, key)
}

// Healthy reports the state of the backend's store.
func (m *Manager) Healthy(ctx context.Context) bool {
	if hc, ok := m.backend.(core.HealthChecker); ok {
		return hc.Healthy(ctx)
	}
	return true
}

func (m *Manager) record(ctx context.Context, op string, start time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, core.ErrTimeout):
		result = metrics.ResultTimeout
	default:
		result = metrics.ResultError
	}
	m.metrics.MemoryOp(op, m.backend.Name(), result, time.Since(start))

	if err != nil {
		log.Component(ctx, "memory").Error().Err(err).
			Str("op", op).
			Str("backend", m.backend.Name()).
			Str("result", result).
			Msg("memory operation abandoned")
	}
}
