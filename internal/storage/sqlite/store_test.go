package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "brain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, nil)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := core.Memory{
		Content:    "User: I am worried\nAI: tell me more",
		Timestamp:  time.Now(),
		Importance: 0.6,
		Context:    map[string]any{core.ContextCriticalInfo: true},
		Type:       core.ShortTerm,
		Embedding:  []float32{0.1, 0.2, -0.3},
		SessionID:  "abc",
	}
	key, err := s.Add(ctx, in, time.Hour)
	require.NoError(t, err)
	assert.Regexp(t, `^st:memory:\d{20}$`, key)

	out, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, in.Content, out.Content)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, true, out.Context[core.ContextCriticalInfo])
	require.Len(t, out.Embedding, 3)
	for i := range in.Embedding {
		assert.InDelta(t, in.Embedding[i], out.Embedding[i], 1e-5)
	}
}

func TestStore_QueryAllHonoursTierAndTTL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.clock = storage.NewClockFunc(s.now)

	_, err := s.Add(ctx, core.Memory{Content: "st", Type: core.ShortTerm, Embedding: []float32{1}}, time.Minute)
	require.NoError(t, err)
	_, err = s.Add(ctx, core.Memory{Content: "lt", Type: core.LongTerm, Embedding: []float32{1}}, 1000*time.Hour)
	require.NoError(t, err)

	st, err := s.QueryAll(ctx, core.PrefixShortTerm)
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.Equal(t, "st", st[0].Content)

	all, err := s.QueryAll(ctx, core.PrefixAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	now = now.Add(2 * time.Minute)
	st, err = s.QueryAll(ctx, core.PrefixShortTerm)
	require.NoError(t, err)
	assert.Empty(t, st)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, err := s.Add(ctx, core.Memory{Content: "x", Type: core.ShortTerm, Embedding: []float32{1}}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.True(t, s.Healthy(ctx))
}

func TestNewDB_InMemory(t *testing.T) {
	db, err := NewDB(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n))
	assert.Zero(t, n)
}
