// Package personality holds the affective state of the agent: static
// traits, a clamped mood vector and the analysis that moves it.
package personality

import (
	"maps"
	"math"
	"sync"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/metrics"
)

// Trait and mood dimensions in rendering order.
var (
	TraitNames = []string{
		"openness", "conscientiousness", "extraversion", "agreeableness", "neuroticism",
		"playfulness", "sassiness", "intelligence", "creativity", "empathy",
	}
	MoodDimensions = []string{"happiness", "energy", "interest", "stress"}
)

func DefaultTraits() map[string]float64 {
	return map[string]float64{
		"openness":          0.8,
		"conscientiousness": 0.6,
		"extraversion":      0.7,
		"agreeableness":     0.35,
		"neuroticism":       0.4,
		"playfulness":       0.75,
		"sassiness":         0.6,
		"intelligence":      0.85,
		"creativity":        0.8,
		"empathy":           0.7,
	}
}

func DefaultMood() map[string]float64 {
	return map[string]float64{
		"happiness": 0.7,
		"energy":    0.8,
		"interest":  0.75,
		"stress":    0.3,
	}
}

// Multipliers is the per-dimension response to a positive or a
// non-positive interaction.
type Multipliers struct {
	Positive map[string]float64
	Negative map[string]float64
}

func DefaultMultipliers() Multipliers {
	return Multipliers{
		Positive: map[string]float64{
			"happiness": 0.1,
			"energy":    0.05,
			"interest":  0.08,
			"stress":    -0.05,
		},
		Negative: map[string]float64{
			"happiness": -0.08,
			"energy":    -0.05,
			"interest":  -0.1,
			"stress":    0.1,
		},
	}
}

// Analysis is a validated sentiment reading of one interaction.
type Analysis struct {
	Sentiment   float64 `json:"sentiment"`
	Intensity   float64 `json:"intensity"`
	Explanation string  `json:"explanation"`
}

// MoodChange records how one dimension moved.
type MoodChange struct {
	Dimension string  `json:"dimension"`
	Old       float64 `json:"old"`
	New       float64 `json:"new"`
}

func (c MoodChange) Delta() float64 { return c.New - c.Old }

// Core owns traits and mood. Traits never change after construction; mood
// is only written by UpdateMoodFromAnalysis.
type Core struct {
	traits      map[string]float64
	traitOrder  []string
	moodOrder   []string
	multipliers Multipliers
	levels      Levels
	metrics     *metrics.Metrics

	mu   sync.RWMutex
	mood map[string]float64
}

type Option func(*Core)

// WithState replaces the default traits and mood. Dimensions render in the
// given order.
func WithState(traits map[string]float64, traitOrder []string, mood map[string]float64, moodOrder []string) Option {
	return func(c *Core) {
		c.traits = maps.Clone(traits)
		c.traitOrder = append([]string(nil), traitOrder...)
		c.mood = maps.Clone(mood)
		c.moodOrder = append([]string(nil), moodOrder...)
	}
}

func WithMultipliers(m Multipliers) Option {
	return func(c *Core) {
		c.multipliers = Multipliers{Positive: maps.Clone(m.Positive), Negative: maps.Clone(m.Negative)}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(c *Core) {
		c.metrics = mt
	}
}

func NewCore(cfg *config.PersonalityConfig, opts ...Option) *Core {
	c := &Core{
		traits:      DefaultTraits(),
		traitOrder:  TraitNames,
		mood:        DefaultMood(),
		moodOrder:   MoodDimensions,
		multipliers: DefaultMultipliers(),
		levels:      Levels{Low: cfg.LowThreshold, High: cfg.HighThreshold},
	}
	for _, opt := range opts {
		opt(c)
	}
	for k, v := range c.mood {
		c.mood[k] = clamp(v, 0, 1)
	}
	c.metrics.SetMood(c.mood)
	return c
}

// UpdateMoodFromAnalysis moves every mood dimension by
// multiplier * |sentiment| * intensity and clamps the result to [0,1].
// Zero sentiment uses the negative table. Non-finite input leaves the mood
// unchanged.
func (c *Core) UpdateMoodFromAnalysis(a Analysis) []MoodChange {
	sentiment := clamp(a.Sentiment, -1, 1)
	intensity := clamp(a.Intensity, 0, 1)

	table := c.multipliers.Negative
	if sentiment > 0 {
		table = c.multipliers.Positive
	}
	weight := abs(sentiment) * intensity
	if !finite(a.Sentiment) || !finite(a.Intensity) {
		weight = 0
	}

	c.mu.Lock()
	changes := make([]MoodChange, 0, len(c.moodOrder))
	for _, dim := range c.moodOrder {
		old := c.mood[dim]
		next := clamp(old+table[dim]*weight, 0, 1)
		c.mood[dim] = next
		changes = append(changes, MoodChange{Dimension: dim, Old: old, New: next})
	}
	snapshot := maps.Clone(c.mood)
	c.mu.Unlock()

	c.metrics.SetMood(snapshot)
	return changes
}

func (c *Core) Traits() map[string]float64 {
	return maps.Clone(c.traits)
}

func (c *Core) Mood() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.mood)
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return max(lo, min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
