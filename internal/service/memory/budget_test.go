package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenBudget_Fit(t *testing.T) {
	b := &TokenBudget{max: 5, count: func(s string) int { return len(strings.Fields(s)) }}
	lines := []string{"one two", "three four", "five six"}

	assert.Equal(t, []string{"one two", "three four"}, b.Fit(lines))
}

func TestTokenBudget_KeepsFirstLine(t *testing.T) {
	b := &TokenBudget{max: 1, count: func(s string) int { return len(strings.Fields(s)) }}

	assert.Equal(t, []string{"far too many words"}, b.Fit([]string{"far too many words", "x"}))
}

func TestTokenBudget_Disabled(t *testing.T) {
	b := NewTokenBudget(0)
	assert.Nil(t, b)
	lines := []string{"a", "b"}
	assert.Equal(t, lines, b.Fit(lines))
}
