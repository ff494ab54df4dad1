package personality

import (
	"math"
	"strings"
)

// Levels are the mood bucket boundaries: above High is high, above Low is
// medium, anything else is low.
type Levels struct {
	Low  float64
	High float64
}

func (l Levels) bucket(v float64) string {
	switch {
	case v > l.High:
		return "high"
	case v > l.Low:
		return "medium"
	default:
		return "low"
	}
}

// traitLabels are anchored at 0.0, 0.2 ... 1.0; a value takes the label of
// the nearest anchor, the lower one on a tie.
var traitLabels = []string{"extremely low", "very low", "low", "moderate", "high", "very high"}

func traitLabel(v float64) string {
	best, bestDist := 0, math.Inf(1)
	for i := range traitLabels {
		anchor := float64(i) / float64(len(traitLabels)-1)
		if d := math.Abs(anchor - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return traitLabels[best]
}

var moodPhrases = map[string]map[string]string{
	"happiness": {
		"high":   "I am very happy",
		"medium": "I am in a good mood",
		"low":    "I am a little sad",
	},
	"energy": {
		"high":   "I am full of energy",
		"medium": "my energy is moderate",
		"low":    "I have little energy",
	},
	"interest": {
		"high":   "I am very interested in the conversation",
		"medium": "I am moderately interested",
		"low":    "I have little interest",
	},
	"stress": {
		"high":   "I am very stressed",
		"medium": "I am a little tense",
		"low":    "I am calm",
	},
}

func (c *Core) FormatPersonalityContext() string {
	lines := make([]string, 0, len(c.traitOrder))
	for _, name := range c.traitOrder {
		lines = append(lines, name+": "+traitLabel(c.traits[name]))
	}
	return "Current personality traits:\n" + strings.Join(lines, "\n")
}

func (c *Core) FormatMoodContext() string {
	mood := c.Mood()

	lines := make([]string, 0, len(c.moodOrder))
	for _, dim := range c.moodOrder {
		level := c.levels.bucket(mood[dim])
		phrase, ok := moodPhrases[dim][level]
		if !ok {
			phrase = dim + ": " + level
		}
		lines = append(lines, phrase)
	}
	return "Current mood:\n" + strings.Join(lines, "\n")
}

// Context is the personality and mood blocks separated by a blank line.
func (c *Core) Context() string {
	return c.FormatPersonalityContext() + "\n\n" + c.FormatMoodContext()
}
