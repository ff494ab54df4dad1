package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/internal/storage"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const scanCount = 100

// PrefixStore keeps one JSON value per memory under
// `st:memory:<nanos>` or `lt:memory:<nanos>`.
type PrefixStore struct {
	conn    *ConnectionManager
	clock   *storage.Clock
	metrics *metrics.Metrics
}

func NewPrefixStore(conn *ConnectionManager, mt *metrics.Metrics) *PrefixStore {
	return &PrefixStore{conn: conn, clock: storage.NewClock(), metrics: mt}
}

func (s *PrefixStore) client(op string) (*goredis.Client, error) {
	return s.conn.Ready(op)
}

// fail classifies a command error. Transport failures degrade the
// connection and surface as core.ErrConnection.
func (s *PrefixStore) fail(ctx context.Context, op string, err error) error {
	if s.conn.ReportFailure(ctx, err) {
		return core.Wrap(core.ErrConnection, op, err)
	}
	return core.Wrap(core.ErrStorage, op, err)
}

// Add writes the record and its ttl with a single SET EX.
func (s *PrefixStore) Add(ctx context.Context, m core.Memory, ttl time.Duration) (string, error) {
	const op = "redis.prefix.add"

	client, err := s.client(op)
	if err != nil {
		return "", err
	}

	key := storage.TierKey(m.Type.Prefix(), s.clock.Next())
	payload, err := encodeEnvelope(m)
	if err != nil {
		return "", core.Wrap(core.ErrSerialization, op, err)
	}

	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return "", s.fail(ctx, op, err)
	}
	return key, nil
}

func (s *PrefixStore) QueryAll(ctx context.Context, prefix string) ([]core.Memory, error) {
	const op = "redis.prefix.query"

	client, err := s.client(op)
	if err != nil {
		return nil, err
	}

	var keys []string
	iter := client.Scan(ctx, 0, storage.Pattern(prefix), scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger := log.Component(ctx, "redis")
	mems := make([]core.Memory, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		m, err := decodeEnvelope(keys[i], []byte(raw))
		if err != nil {
			s.metrics.CorruptRecord()
			logger.Error().Err(core.Wrap(core.ErrSerialization, op, err)).Str("key", keys[i]).Msg("skipping corrupt memory")
			continue
		}
		mems = append(mems, m)
	}

	storage.SortByInsertion(mems)
	return mems, nil
}

func (s *PrefixStore) Get(ctx context.Context, key string) (core.Memory, error) {
	const op = "redis.prefix.get"

	client, err := s.client(op)
	if err != nil {
		return core.Memory{}, err
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return core.Memory{}, core.Wrap(core.ErrNotFound, op, err)
	}
	if err != nil {
		return core.Memory{}, s.fail(ctx, op, err)
	}
	m, err := decodeEnvelope(key, raw)
	if err != nil {
		return core.Memory{}, core.Wrap(core.ErrSerialization, op, err)
	}
	return m, nil
}

func (s *PrefixStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

// DeleteMany removes keys with a single DEL.
func (s *PrefixStore) DeleteMany(ctx context.Context, keys ...string) error {
	const op = "redis.prefix.delete"

	if len(keys) == 0 {
		return nil
	}
	client, err := s.client(op)
	if err != nil {
		return err
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

func (s *PrefixStore) Healthy(ctx context.Context) bool {
	return s.conn.Healthy(ctx)
}
