package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/motherbrain/internal/core"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStore_TTLPerTier(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(clk.now)
	ctx := context.Background()

	_, err := s.Add(ctx, core.Memory{Content: "st", Type: core.ShortTerm}, time.Minute)
	require.NoError(t, err)
	_, err = s.Add(ctx, core.Memory{Content: "lt", Type: core.LongTerm}, time.Hour)
	require.NoError(t, err)

	all, err := s.QueryAll(ctx, core.PrefixAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	clk.advance(2 * time.Minute)

	st, err := s.QueryAll(ctx, core.PrefixShortTerm)
	require.NoError(t, err)
	assert.Empty(t, st)

	lt, err := s.QueryAll(ctx, core.PrefixLongTerm)
	require.NoError(t, err)
	require.Len(t, lt, 1)
	assert.Equal(t, "lt", lt[0].Content)
}

func TestStore_KeysUniqueAndOrdered(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(clk.now)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key, err := s.Add(ctx, core.Memory{Content: "x", Type: core.ShortTerm}, time.Hour)
		require.NoError(t, err)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}

	mems, err := s.QueryAll(ctx, core.PrefixAll)
	require.NoError(t, err)
	for i := 1; i < len(mems); i++ {
		assert.Less(t, mems[i-1].Key, mems[i].Key)
	}
}

func TestStore_GetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	key, err := s.Add(ctx, core.Memory{Content: "x", Type: core.Dialog, Embedding: []float32{1, 2}}, time.Hour)
	require.NoError(t, err)

	m, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, m.Embedding)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Add(ctx, core.Memory{Content: "x"}, time.Hour)
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestStore_RecordsAreDetached(t *testing.T) {
	s := New()
	ctx := context.Background()

	signals := map[string]any{core.ContextUserEmotion: "calm"}
	vec := []float32{1, 2}
	key, err := s.Add(ctx, core.Memory{Content: "x", Type: core.ShortTerm, Context: signals, Embedding: vec}, time.Hour)
	require.NoError(t, err)

	signals[core.ContextUserEmotion] = "angry"
	signals[core.ContextCriticalInfo] = true
	vec[0] = 9

	m, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{core.ContextUserEmotion: "calm"}, m.Context)
	assert.Equal(t, []float32{1, 2}, m.Embedding)

	m.Context["leak"] = 1
	mems, err := s.QueryAll(ctx, core.PrefixAll)
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.NotContains(t, mems[0].Context, "leak")
}
