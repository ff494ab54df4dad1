package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/internal/storage"
	"github.com/sandevgo/motherbrain/pkg/log"
	"github.com/sandevgo/motherbrain/pkg/vector"
)

// Store keeps memories in the memories table. Expired rows are hidden on
// read and purged on every insert.
type Store struct {
	db      *sql.DB
	clock   *storage.Clock
	now     func() time.Time
	metrics *metrics.Metrics
}

func NewStore(db *sql.DB, mt *metrics.Metrics) *Store {
	return &Store{db: db, clock: storage.NewClock(), now: time.Now, metrics: mt}
}

func (s *Store) Add(ctx context.Context, m core.Memory, ttl time.Duration) (string, error) {
	const op = "sqlite.add"

	blob, err := vector.Serialize(m.Embedding)
	if err != nil {
		return "", core.Wrap(core.ErrSerialization, op, err)
	}
	ctxJSON := ""
	if len(m.Context) > 0 {
		raw, err := json.Marshal(m.Context)
		if err != nil {
			return "", core.Wrap(core.ErrSerialization, op, err)
		}
		ctxJSON = string(raw)
	}

	at := s.clock.Next()
	tier := m.Type.Prefix()
	key := storage.TierKey(tier, at)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", core.Wrap(core.ErrStorage, op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE expires_at <= ?`, s.now().UnixNano()); err != nil {
		return "", core.Wrap(core.ErrStorage, op, fmt.Errorf("failed to purge expired memories: %w", err))
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (key, tier, content, importance, context, memory_type, embedding, session_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key, tier, m.Content, m.Importance, ctxJSON, string(m.Type), blob, m.SessionID,
		m.Timestamp.UnixNano(), at.Add(ttl).UnixNano(),
	)
	if err != nil {
		return "", core.Wrap(core.ErrStorage, op, fmt.Errorf("failed to insert memory: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return "", core.Wrap(core.ErrStorage, op, err)
	}
	return key, nil
}

const selectColumns = `key, content, importance, context, memory_type, embedding, session_id, created_at`

func (s *Store) QueryAll(ctx context.Context, prefix string) ([]core.Memory, error) {
	const op = "sqlite.query"

	query := `SELECT ` + selectColumns + ` FROM memories WHERE expires_at > ?`
	args := []any{s.now().UnixNano()}
	if prefix != core.PrefixAll {
		query += ` AND tier = ?`
		args = append(args, prefix)
	}
	query += ` ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.Wrap(core.ErrStorage, op, fmt.Errorf("failed to query memories: %w", err))
	}
	defer rows.Close()

	logger := log.Component(ctx, "sqlite")
	var mems []core.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			s.metrics.CorruptRecord()
			logger.Error().Err(core.Wrap(core.ErrSerialization, op, err)).Msg("skipping corrupt memory")
			continue
		}
		mems = append(mems, m)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.ErrStorage, op, err)
	}

	storage.SortByInsertion(mems)
	return mems, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Memory, error) {
	const op = "sqlite.get"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM memories WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Memory{}, core.Wrap(core.ErrNotFound, op, err)
	}
	if err != nil {
		return core.Memory{}, core.Wrap(core.ErrSerialization, op, err)
	}
	return m, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE key = ?`, key); err != nil {
		return core.Wrap(core.ErrStorage, "sqlite.delete", err)
	}
	return nil
}

func (s *Store) Healthy(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (core.Memory, error) {
	var (
		m         core.Memory
		ctxJSON   string
		memType   string
		blob      []byte
		createdAt int64
	)
	if err := row.Scan(&m.Key, &m.Content, &m.Importance, &ctxJSON, &memType, &blob, &m.SessionID, &createdAt); err != nil {
		return core.Memory{}, err
	}

	vec, err := vector.Deserialize(blob)
	if err != nil {
		return core.Memory{}, err
	}
	m.Embedding = vec
	m.Type = core.MemoryType(memType)
	m.Timestamp = time.Unix(0, createdAt).UTC()

	if ctxJSON != "" {
		if err := json.Unmarshal([]byte(ctxJSON), &m.Context); err != nil {
			return core.Memory{}, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	return m, nil
}
