package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const (
	baseImportance   = 0.5
	keywordWeight    = 0.1
	keywordCap       = 0.5
	emotionWeight    = 0.2
	criticalWeight   = 0.3
	defaultThreshold = 0.7
)

// RetentionPolicy scores memories, assigns their tier and trims the
// short-term pool.
type RetentionPolicy struct {
	keywords  []string
	threshold float64
	limit     int
	shortTTL  time.Duration
	longTTL   time.Duration
	metrics   *metrics.Metrics
}

func NewRetentionPolicy(cfg *config.MemoryConfig, mt *metrics.Metrics) *RetentionPolicy {
	keywords := make([]string, 0, len(cfg.AffectiveKeywords))
	for _, k := range cfg.AffectiveKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &RetentionPolicy{
		keywords:  keywords,
		threshold: cfg.ImportanceThreshold,
		limit:     cfg.STMemoryLimit,
		shortTTL:  cfg.ShortTermDuration(),
		longTTL:   cfg.LongTermDuration(),
		metrics:   mt,
	}
}

// Importance is 0.5 plus 0.1 per affective keyword found in content (at
// most 0.5), 0.2 for a user_emotion signal and 0.3 for critical_info,
// clamped to [0,1].
func (p *RetentionPolicy) Importance(content string, signals map[string]any) float64 {
	score := baseImportance

	lower := strings.ToLower(content)
	var kw float64
	for _, k := range p.keywords {
		if strings.Contains(lower, k) {
			kw += keywordWeight
		}
	}
	score += min(kw, keywordCap)

	if _, ok := signals[core.ContextUserEmotion]; ok {
		score += emotionWeight
	}
	if _, ok := signals[core.ContextCriticalInfo]; ok {
		score += criticalWeight
	}

	return clamp01(score)
}

// Classify returns the tier and ttl for an importance score.
func (p *RetentionPolicy) Classify(importance float64) (core.MemoryType, time.Duration) {
	if importance >= p.threshold {
		return core.LongTerm, p.longTTL
	}
	return core.ShortTerm, p.shortTTL
}

// Cleanup deletes the least important short-term memories above the pool
// limit and returns how many were removed. It is a no-op when the pool is
// within its limit.
func (p *RetentionPolicy) Cleanup(ctx context.Context, store core.Store) (int, error) {
	mems, err := store.QueryAll(ctx, core.PrefixShortTerm)
	if err != nil {
		return 0, err
	}

	evict := SelectEvictions(mems, p.limit)
	if len(evict) == 0 {
		return 0, nil
	}

	removed, err := deleteAll(ctx, store, evict)

	p.metrics.Evicted(removed)
	log.Component(ctx, "memory").Debug().
		Int("pool", len(mems)).
		Int("removed", removed).
		Msg("short-term pool trimmed")
	return removed, err
}

func deleteAll(ctx context.Context, store core.Store, mems []core.Memory) (int, error) {
	if bd, ok := store.(core.BatchDeleter); ok {
		keys := make([]string, len(mems))
		for i, m := range mems {
			keys[i] = m.Key
		}
		if err := bd.DeleteMany(ctx, keys...); err != nil {
			return 0, err
		}
		return len(keys), nil
	}

	var errs []error
	removed := 0
	for _, m := range mems {
		if err := store.Delete(ctx, m.Key); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// SelectEvictions orders memories by importance, newest first among equals,
// and returns everything past the first limit entries.
func SelectEvictions(mems []core.Memory, limit int) []core.Memory {
	if limit < 0 {
		limit = 0
	}
	if len(mems) <= limit {
		return nil
	}

	ranked := make([]core.Memory, len(mems))
	copy(ranked, mems)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Key > b.Key
	})
	return ranked[limit:]
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
