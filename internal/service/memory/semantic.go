package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const relevantPrefix = "Relevant memory: "

// SemanticBackend embeds every turn, persists it through the retention
// policy and answers queries by dot-product ranking.
type SemanticBackend struct {
	name    string
	encoder core.Encoder
	store   core.Store
	policy  *RetentionPolicy
	budget  *TokenBudget

	storeTimeout time.Duration
	embedTimeout time.Duration
}

func NewSemanticBackend(
	name string,
	cfg *config.MemoryConfig,
	encoder core.Encoder,
	store core.Store,
	policy *RetentionPolicy,
) *SemanticBackend {
	return &SemanticBackend{
		name:         name,
		encoder:      encoder,
		store:        store,
		policy:       policy,
		budget:       NewTokenBudget(cfg.ContextTokenBudget),
		storeTimeout: cfg.StoreTimeout,
		embedTimeout: cfg.EmbedTimeout,
	}
}

func (b *SemanticBackend) Name() string { return b.name }

func (b *SemanticBackend) Add(ctx context.Context, turn core.Turn) error {
	text := turn.Text()
	importance := b.policy.Importance(text, turn.Context)
	tier, ttl := b.policy.Classify(importance)

	emb, err := b.embed(ctx, text)
	if err != nil {
		return err
	}

	mem := core.Memory{
		Content:    text,
		Timestamp:  turn.At,
		Importance: importance,
		Context:    turn.Context,
		Type:       tier,
		Embedding:  emb,
		SessionID:  turn.SessionID,
	}

	storeCtx, cancel := context.WithTimeout(ctx, b.storeTimeout)
	defer cancel()

	key, err := b.store.Add(storeCtx, mem, ttl)
	if err != nil {
		return timeoutKind(storeCtx, "memory.add", err)
	}

	logger := log.Component(ctx, "memory")
	logger.Debug().
		Str("key", key).
		Str("tier", string(tier)).
		Float64("importance", importance).
		Msg("memory stored")

	if _, err := b.policy.Cleanup(storeCtx, b.store); err != nil {
		logger.Warn().Err(timeoutKind(storeCtx, "memory.cleanup", err)).Msg("short-term cleanup incomplete")
	}
	return nil
}

func (b *SemanticBackend) Relevant(ctx context.Context, sessionID, query string, limit int) (string, error) {
	ranked, err := b.Recall(ctx, sessionID, query, limit)
	if err != nil || len(ranked) == 0 {
		return "", err
	}

	lines := make([]string, 0, len(ranked))
	for _, s := range ranked {
		lines = append(lines, relevantPrefix+s.Memory.Content)
	}
	return strings.Join(b.budget.Fit(lines), "\n"), nil
}

// Recall returns up to limit stored memories ranked against query. Every
// session's memories are candidates.
func (b *SemanticBackend) Recall(ctx context.Context, sessionID, query string, limit int) ([]Scored, error) {
	if strings.TrimSpace(query) == "" {
		return []Scored{}, nil
	}

	qv, err := b.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, b.storeTimeout)
	defer cancel()

	mems, err := b.store.QueryAll(storeCtx, core.PrefixAll)
	if err != nil {
		return nil, timeoutKind(storeCtx, "memory.query", err)
	}
	return Rank(qv, mems, limit), nil
}

// Get loads one record for inspection when the store supports it.
func (b *SemanticBackend) Get(ctx context.Context, key string) (core.Memory, error) {
	g, ok := b.store.(core.Getter)
	if !ok {
		return core.Memory{}, core.NewError(core.ErrNotFound, "memory.get", "store cannot load single records")
	}
	return g.Get(ctx, key)
}

func (b *SemanticBackend) Healthy(ctx context.Context) bool {
	if hc, ok := b.store.(core.HealthChecker); ok {
		return hc.Healthy(ctx)
	}
	return true
}

func (b *SemanticBackend) embed(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, b.embedTimeout)
	defer cancel()

	v, err := b.encoder.Encode(embedCtx, text)
	if err != nil {
		return nil, timeoutKind(embedCtx, "memory.embed", err)
	}
	if len(v) == 0 {
		return nil, core.NewError(core.ErrStorage, "memory.embed", "encoder returned an empty vector")
	}
	return v, nil
}

// timeoutKind tags errors caused by an expired deadline so callers can
// tell an abandoned operation from a failed one.
func timeoutKind(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if errors.Is(err, core.ErrTimeout) {
			return err
		}
		return core.Wrap(core.ErrTimeout, op, err)
	}
	return err
}
