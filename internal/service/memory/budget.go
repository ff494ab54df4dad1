package memory

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tk, tkErr
}

// countTokens falls back to whitespace words when the encoding cannot be
// loaded (it is fetched on first use).
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := getTokenizer()
	if err != nil {
		return len(strings.Fields(text))
	}
	return len(enc.Encode(text, nil, nil))
}

// TokenBudget caps the size of a rendered context.
type TokenBudget struct {
	max   int
	count func(string) int
}

// NewTokenBudget returns nil for a non-positive limit, which disables
// truncation.
func NewTokenBudget(limit int) *TokenBudget {
	if limit <= 0 {
		return nil
	}
	return &TokenBudget{max: limit, count: countTokens}
}

// Fit keeps leading lines while their joined size stays within the budget.
// The first line is always kept.
func (b *TokenBudget) Fit(lines []string) []string {
	if b == nil || len(lines) == 0 {
		return lines
	}
	used := b.count(lines[0])
	for i := 1; i < len(lines); i++ {
		used += b.count("\n" + lines[i])
		if used > b.max {
			return lines[:i]
		}
	}
	return lines
}
