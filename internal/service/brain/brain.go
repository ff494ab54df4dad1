// Package brain composes the memory engine, the personality core and the
// interaction analyzer into the service the transports talk to.
package brain

import (
	"context"
	"errors"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/service/memory"
	"github.com/sandevgo/motherbrain/internal/service/personality"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	// interaction kind recorded for every analyzed turn
	kindDialog = "dialog"
)

// RecalledMemory is one memory as returned to callers of Process.
type RecalledMemory struct {
	Key        string          `json:"key,omitempty"`
	Text       string          `json:"text"`
	Timestamp  time.Time       `json:"timestamp"`
	Importance float64         `json:"importance"`
	Type       core.MemoryType `json:"memory_type"`
	SessionID  string          `json:"session_id,omitempty"`
	Score      float64         `json:"score"`
}

type ProcessResult struct {
	Memories            []RecalledMemory `json:"memories"`
	PersonalityContext  string           `json:"personality_context"`
	MoodContext         string           `json:"mood_context"`
	RelationshipContext string           `json:"relationship_context"`
}

type PersonalitySnapshot struct {
	PersonalityContext string             `json:"personality_context"`
	MoodContext        string             `json:"mood_context"`
	Traits             map[string]float64 `json:"traits"`
	Mood               map[string]float64 `json:"mood"`
}

type HealthReport struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Backend    string            `json:"backend"`
	Components map[string]string `json:"components"`
}

type TurnResult struct {
	Stored    bool                  `json:"stored"`
	Analyzed  bool                  `json:"analyzed"`
	Analysis  *personality.Analysis `json:"analysis,omitempty"`
	Sentiment float64               `json:"-"`
}

type DebugInfo struct {
	Exists bool     `json:"exists"`
	Keys   []string `json:"keys"`
	Text   string   `json:"text"`
	Error  string   `json:"error,omitempty"`
}

type component struct {
	name  string
	check core.HealthChecker
}

// Brain owns one personality core for the life of the process.
type Brain struct {
	memory    *memory.Manager
	core      *personality.Core
	analyzer  *personality.Analyzer
	relations *personality.RelationshipTracker

	limit      int
	components []component
}

type Option func(*Brain)

// WithRelationships enables per-user relationship tracking.
func WithRelationships(t *personality.RelationshipTracker) Option {
	return func(b *Brain) { b.relations = t }
}

// WithComponent adds a dependency to the health report.
func WithComponent(name string, hc core.HealthChecker) Option {
	return func(b *Brain) { b.components = append(b.components, component{name: name, check: hc}) }
}

func WithRetrieveLimit(n int) Option {
	return func(b *Brain) { b.limit = n }
}

func New(mgr *memory.Manager, pc *personality.Core, an *personality.Analyzer, opts ...Option) *Brain {
	b := &Brain{
		memory:   mgr,
		core:     pc,
		analyzer: an,
		limit:    5,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Process gathers everything the conversation loop needs before answering
// text: ranked memories, the personality and mood summaries, and what is
// known about the user named in ctxMap. Memories and mood are read under the
// session lock, so they never straddle a RecordTurn of the same session.
func (b *Brain) Process(ctx context.Context, text string, ctxMap map[string]any) ProcessResult {
	session := stringValue(ctxMap, core.ContextSessionID)

	var (
		scored []memory.Scored
		p      PersonalitySnapshot
	)
	b.memory.WithSession(session, func(s memory.Session) {
		scored = s.Recall(ctx, text, b.limit)
		p = b.Personality()
	})

	mems := make([]RecalledMemory, 0, len(scored))
	for _, s := range scored {
		mems = append(mems, RecalledMemory{
			Key:        s.Memory.Key,
			Text:       s.Memory.Content,
			Timestamp:  s.Memory.Timestamp,
			Importance: s.Memory.Importance,
			Type:       s.Memory.Type,
			SessionID:  s.Memory.SessionID,
			Score:      s.Score,
		})
	}

	return ProcessResult{
		Memories:            mems,
		PersonalityContext:  p.PersonalityContext,
		MoodContext:         p.MoodContext,
		RelationshipContext: b.relationshipContext(stringValue(ctxMap, core.ContextUserID)),
	}
}

// Context renders the relevant memories for query as a single prompt block.
func (b *Brain) Context(ctx context.Context, session, query string, limit int) string {
	if limit <= 0 {
		limit = b.limit
	}
	return b.memory.GetRelevantContext(ctx, session, query, limit)
}

func (b *Brain) Personality() PersonalitySnapshot {
	return PersonalitySnapshot{
		PersonalityContext: b.core.FormatPersonalityContext(),
		MoodContext:        b.core.FormatMoodContext(),
		Traits:             b.core.Traits(),
		Mood:               b.core.Mood(),
	}
}

// RecordTurn stores a completed turn and analyzes it concurrently. Both run
// inside the session lock. Neither half fails the other; the result reports
// what succeeded.
func (b *Brain) RecordTurn(ctx context.Context, session, userText, aiResponse string, ctxMap map[string]any) TurnResult {
	var res TurnResult

	b.memory.WithSession(session, func(s memory.Session) {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			res.Stored = s.AddDialogMemory(gctx, userText, aiResponse, ctxMap)
			return nil
		})
		g.Go(func() error {
			if userText == "" || aiResponse == "" {
				return nil
			}
			a, ok := b.analyzer.AnalyzeAndApply(gctx, b.core, userText, aiResponse)
			if !ok {
				return nil
			}
			res.Analyzed = true
			res.Analysis = a
			res.Sentiment = a.Sentiment
			return nil
		})
		_ = g.Wait()
	})

	if res.Analyzed && b.relations != nil {
		b.relations.AddInteraction(stringValue(ctxMap, core.ContextUserID), kindDialog, res.Sentiment)
	}

	log.Component(ctx, "brain").Debug().
		Str("session", session).
		Bool("stored", res.Stored).
		Bool("analyzed", res.Analyzed).
		Msg("turn recorded")
	return res
}

func (b *Brain) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:     StatusHealthy,
		Service:    core.ServiceName,
		Version:    core.ServiceVersion,
		Backend:    b.memory.BackendName(),
		Components: map[string]string{"store": healthLabel(b.memory.Healthy(ctx))},
	}
	for _, c := range b.components {
		report.Components[c.name] = healthLabel(c.check.Healthy(ctx))
	}
	for _, v := range report.Components {
		if v != StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

// DebugMemory describes the record stored under key.
func (b *Brain) DebugMemory(ctx context.Context, key string) DebugInfo {
	m, err := b.memory.Inspect(ctx, key)
	if err != nil {
		info := DebugInfo{Keys: []string{}, Text: "N/A"}
		if !errors.Is(err, core.ErrNotFound) {
			info.Error = err.Error()
		}
		return info
	}

	keys := []string{"text", "timestamp", "type", "importance"}
	if len(m.Embedding) > 0 {
		keys = append(keys, "embedding")
	}
	if len(m.Context) > 0 {
		keys = append(keys, "context")
	}
	if m.SessionID != "" {
		keys = append(keys, "session_id")
	}
	slices.Sort(keys)
	return DebugInfo{Exists: true, Keys: keys, Text: m.Content}
}

func (b *Brain) relationshipContext(userID string) string {
	if b.relations == nil {
		return ""
	}
	return b.relations.Context(userID)
}

func healthLabel(ok bool) string {
	if ok {
		return StatusHealthy
	}
	return StatusUnhealthy
}

func stringValue(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
