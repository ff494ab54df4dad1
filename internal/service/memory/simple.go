package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
)

const simpleClockLayout = "15:04:05"

// SimpleBackend keeps the last size turns of each session and ignores the
// query when asked for context.
type SimpleBackend struct {
	size int

	mu      sync.Mutex
	history map[string][]core.Turn
}

func NewSimpleBackend(size int) *SimpleBackend {
	return &SimpleBackend{
		size:    size,
		history: make(map[string][]core.Turn),
	}
}

func (b *SimpleBackend) Name() string { return "simple" }

func (b *SimpleBackend) Add(ctx context.Context, turn core.Turn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := append(b.history[turn.SessionID], turn)
	if len(h) > b.size {
		h = h[len(h)-b.size:]
	}
	b.history[turn.SessionID] = h
	return nil
}

func (b *SimpleBackend) Relevant(ctx context.Context, sessionID, query string, limit int) (string, error) {
	recent := b.recent(sessionID, limit)
	if len(recent) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("Previous conversation:\n")
	for _, t := range recent {
		ts := t.At.Format(simpleClockLayout)
		sb.WriteString("[" + ts + "] User: " + t.UserText + "\n")
		sb.WriteString("[" + ts + "] AI: " + t.AIResponse + "\n")
	}
	return sb.String(), nil
}

// Recall returns the latest turns of the session, oldest first, all with a
// zero score.
func (b *SimpleBackend) Recall(ctx context.Context, sessionID, query string, limit int) ([]Scored, error) {
	recent := b.recent(sessionID, limit)
	out := make([]Scored, 0, len(recent))
	for _, t := range recent {
		out = append(out, Scored{Memory: core.Memory{
			Content:   t.Text(),
			Timestamp: t.At,
			Context:   t.Context,
			Type:      core.Dialog,
			SessionID: t.SessionID,
		}})
	}
	return out, nil
}

func (b *SimpleBackend) recent(sessionID string, limit int) []core.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.history[sessionID]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]core.Turn(nil), h...)
}

func (b *SimpleBackend) Get(ctx context.Context, key string) (core.Memory, error) {
	return core.Memory{}, core.NewError(core.ErrNotFound, "simple.get", "simple history has no keys")
}

func (b *SimpleBackend) Healthy(ctx context.Context) bool { return true }

// turnAt stamps a turn that arrived without a time.
func turnAt(t core.Turn) core.Turn {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	return t
}
