package personality

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/metrics"
)

func testConfig() *config.PersonalityConfig {
	return &config.PersonalityConfig{LowThreshold: 0.3, HighThreshold: 0.7}
}

func TestUpdateMood_PositiveScenario(t *testing.T) {
	c := NewCore(testConfig())

	changes := c.UpdateMoodFromAnalysis(Analysis{Sentiment: 0.8, Intensity: 0.5})

	mood := c.Mood()
	assert.InDelta(t, 0.74, mood["happiness"], 1e-9)
	assert.InDelta(t, 0.8+0.05*0.4, mood["energy"], 1e-9)
	assert.InDelta(t, 0.3-0.05*0.4, mood["stress"], 1e-9)

	require.Len(t, changes, len(MoodDimensions))
	assert.Equal(t, "happiness", changes[0].Dimension)
	assert.InDelta(t, 0.04, changes[0].Delta(), 1e-9)
}

func TestUpdateMood_NonPositiveSentiment(t *testing.T) {
	c := NewCore(testConfig(), WithMultipliers(Multipliers{
		Positive: map[string]float64{"happiness": 1},
		Negative: map[string]float64{"happiness": -1},
	}))

	changes := c.UpdateMoodFromAnalysis(Analysis{Sentiment: 0, Intensity: 1})
	assert.Zero(t, changes[0].Delta())
	assert.Equal(t, 0.7, c.Mood()["happiness"])

	c.UpdateMoodFromAnalysis(Analysis{Sentiment: -0.5, Intensity: 1})
	assert.InDelta(t, 0.2, c.Mood()["happiness"], 1e-9)
}

func TestUpdateMood_StaysClamped(t *testing.T) {
	c := NewCore(testConfig())
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		c.UpdateMoodFromAnalysis(Analysis{
			Sentiment: rnd.Float64()*4 - 2,
			Intensity: rnd.Float64()*2 - 0.5,
		})
		for dim, v := range c.Mood() {
			require.GreaterOrEqual(t, v, 0.0, dim)
			require.LessOrEqual(t, v, 1.0, dim)
		}
	}
}

func TestUpdateMood_IgnoresNonFinite(t *testing.T) {
	for name, a := range map[string]Analysis{
		"nan sentiment":  {Sentiment: math.NaN(), Intensity: 0.5},
		"nan intensity":  {Sentiment: 0.5, Intensity: math.NaN()},
		"inf sentiment":  {Sentiment: math.Inf(1), Intensity: 1},
		"-inf intensity": {Sentiment: -0.5, Intensity: math.Inf(-1)},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewCore(testConfig())
			before := c.Mood()

			c.UpdateMoodFromAnalysis(a)
			assert.Equal(t, before, c.Mood())

			c.UpdateMoodFromAnalysis(Analysis{Sentiment: 0.8, Intensity: 0.5})
			for dim, v := range c.Mood() {
				require.False(t, math.IsNaN(v), dim)
			}
		})
	}
}

func TestClamp_NaN(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, clamp(3, 0, 1))
}

func TestUpdateMood_SaturatesAtBounds(t *testing.T) {
	c := NewCore(testConfig())
	for i := 0; i < 50; i++ {
		c.UpdateMoodFromAnalysis(Analysis{Sentiment: 1, Intensity: 1})
	}
	mood := c.Mood()
	assert.Equal(t, 1.0, mood["happiness"])
	assert.Equal(t, 0.0, mood["stress"])
}

func TestTraitsAreImmutable(t *testing.T) {
	c := NewCore(testConfig())
	traits := c.Traits()
	traits["openness"] = 0

	assert.Equal(t, 0.8, c.Traits()["openness"])

	c.UpdateMoodFromAnalysis(Analysis{Sentiment: -1, Intensity: 1})
	assert.Equal(t, DefaultTraits(), c.Traits())
}

func TestCore_MoodGauges(t *testing.T) {
	mt := metrics.New()
	c := NewCore(testConfig(), WithMetrics(mt))

	c.UpdateMoodFromAnalysis(Analysis{Sentiment: 0.8, Intensity: 0.5})
	assert.InDelta(t, 0.74, testutil.ToFloat64(mt.Mood.WithLabelValues("happiness")), 1e-9)
}

func TestFormatPersonalityContext(t *testing.T) {
	out := NewCore(testConfig()).FormatPersonalityContext()

	assert.True(t, strings.HasPrefix(out, "Current personality traits:\n"))
	assert.Contains(t, out, "openness: high")
	assert.Contains(t, out, "agreeableness: low")
	assert.Contains(t, out, "extraversion: moderate")
	assert.Contains(t, out, "intelligence: high")
}

func TestFormatMoodContext(t *testing.T) {
	out := NewCore(testConfig()).FormatMoodContext()

	assert.Equal(t, "Current mood:\n"+
		"I am in a good mood\n"+
		"I am full of energy\n"+
		"I am very interested in the conversation\n"+
		"I am calm", out)
}

func TestLevels_Monotonic(t *testing.T) {
	l := Levels{Low: 0.3, High: 0.7}
	rank := map[string]int{"low": 0, "medium": 1, "high": 2}
	traitRank := map[string]int{}
	for i, label := range traitLabels {
		traitRank[label] = i
	}

	prevMood, prevTrait := 0, 0
	for v := 0.0; v <= 1.0; v += 0.01 {
		r := rank[l.bucket(v)]
		assert.GreaterOrEqual(t, r, prevMood)
		prevMood = r

		tr := traitRank[traitLabel(v)]
		assert.GreaterOrEqual(t, tr, prevTrait)
		prevTrait = tr
	}
}

func TestCore_Context(t *testing.T) {
	c := NewCore(testConfig())
	assert.Equal(t, c.FormatPersonalityContext()+"\n\n"+c.FormatMoodContext(), c.Context())
}
