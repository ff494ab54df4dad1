package personality

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const analysisPrompt = `
Given this interaction, analyze how it should affect my mood and personality.
Your response must follow this exact JSON format:
{
    "sentiment": <float between -1 and 1>,
    "intensity": <float between 0 and 1>,
    "explanation": "<brief explanation>"
}

User said: %q
I responded: %q

Consider the emotional tone, context, and outcome of this interaction.
Positive sentiment means the interaction was good for me.
Negative sentiment means the interaction was negative for me.
Intensity indicates how strongly this interaction affects me.
`

func BuildPrompt(userText, aiResponse string) string {
	return fmt.Sprintf(analysisPrompt, userText, aiResponse)
}

// Analyzer asks the chat model for a sentiment reading of a turn.
type Analyzer struct {
	llm     core.ChatProvider
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewAnalyzer(llm core.ChatProvider, timeout time.Duration, mt *metrics.Metrics) *Analyzer {
	return &Analyzer{llm: llm, timeout: timeout, metrics: mt}
}

// Analyze issues one completion and returns the parsed reading. The bool is
// false when the call failed or the reply did not validate; the failure is
// logged here.
func (a *Analyzer) Analyze(ctx context.Context, userText, aiResponse string) (*Analysis, bool) {
	logger := log.Component(ctx, "analyzer")

	if a.llm == nil {
		a.metrics.AnalyzerResult(metrics.ResultSkipped)
		return nil, false
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	reply, err := a.llm.Complete(callCtx, BuildPrompt(userText, aiResponse))
	if err != nil {
		a.metrics.AnalyzerResult(metrics.ResultError)
		logger.Error().Err(err).Msg("interaction analysis request failed")
		return nil, false
	}

	analysis, err := ParseAnalysis(reply)
	if err != nil {
		a.metrics.AnalyzerResult(metrics.ResultError)
		logger.Error().Err(err).Str("reply", reply).Msg("failed to parse analysis response")
		return nil, false
	}

	a.metrics.AnalyzerResult(metrics.ResultOK)
	logger.Info().
		Float64("sentiment", analysis.Sentiment).
		Float64("intensity", analysis.Intensity).
		Str("explanation", analysis.Explanation).
		Msg("interaction analyzed")
	return analysis, true
}

// AnalyzeAndApply feeds a successful reading into c. Mood is left untouched
// when analysis fails.
func (a *Analyzer) AnalyzeAndApply(ctx context.Context, c *Core, userText, aiResponse string) (*Analysis, bool) {
	analysis, ok := a.Analyze(ctx, userText, aiResponse)
	if !ok {
		return nil, false
	}

	changes := c.UpdateMoodFromAnalysis(*analysis)
	ev := log.Component(ctx, "personality").Debug()
	for _, ch := range changes {
		if d := ch.Delta(); d > 0.001 || d < -0.001 {
			ev = ev.Str(ch.Dimension, fmt.Sprintf("%.2f -> %.2f", ch.Old, ch.New))
		}
	}
	ev.Msg("mood updated")
	return analysis, true
}

// ParseAnalysis extracts the first JSON object from reply and validates it.
// Errors wrap core.ErrValidation.
func ParseAnalysis(reply string) (*Analysis, error) {
	const op = "analysis.parse"

	obj, ok := ExtractJSONObject(reply)
	if !ok {
		return nil, core.NewError(core.ErrValidation, op, "no JSON object in response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, core.Wrap(core.ErrValidation, op, err)
	}
	for _, key := range []string{"sentiment", "intensity", "explanation"} {
		if _, ok := fields[key]; !ok {
			return nil, core.NewError(core.ErrValidation, op, "missing %q", key)
		}
	}

	sentiment, err := number(fields["sentiment"])
	if err != nil {
		return nil, core.Wrap(core.ErrValidation, op, fmt.Errorf("sentiment: %w", err))
	}
	intensity, err := number(fields["intensity"])
	if err != nil {
		return nil, core.Wrap(core.ErrValidation, op, fmt.Errorf("intensity: %w", err))
	}

	var explanation string
	if err := json.Unmarshal(fields["explanation"], &explanation); err != nil {
		explanation = strings.Trim(string(fields["explanation"]), `"`)
	}

	return &Analysis{
		Sentiment:   clamp(sentiment, -1, 1),
		Intensity:   clamp(intensity, 0, 1),
		Explanation: explanation,
	}, nil
}

// number accepts a finite JSON number or numeric string.
func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %s", raw)
	}
	return f, nil
}

// ExtractJSONObject returns the first balanced {...} in s. Braces inside
// JSON strings are ignored.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
