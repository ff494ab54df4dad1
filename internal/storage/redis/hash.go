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

// HashStore keeps one hash per memory under `memory:<iso-8601>` with the
// embedding in latin-1 text form. The tier lives in the type field.
type HashStore struct {
	*PrefixStore
}

func NewHashStore(conn *ConnectionManager, mt *metrics.Metrics) *HashStore {
	return &HashStore{PrefixStore: NewPrefixStore(conn, mt)}
}

// Add writes HSET and EXPIRE in one MULTI round trip.
func (s *HashStore) Add(ctx context.Context, m core.Memory, ttl time.Duration) (string, error) {
	const op = "redis.hash.add"

	client, err := s.client(op)
	if err != nil {
		return "", err
	}

	key := storage.HashKey(s.clock.Next())
	fields, err := encodeHash(m)
	if err != nil {
		return "", core.Wrap(core.ErrSerialization, op, err)
	}

	_, err = client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return "", s.fail(ctx, op, err)
	}
	return key, nil
}

func (s *HashStore) QueryAll(ctx context.Context, prefix string) ([]core.Memory, error) {
	const op = "redis.hash.query"

	client, err := s.client(op)
	if err != nil {
		return nil, err
	}

	var keys []string
	iter := client.Scan(ctx, 0, storage.KeySegment+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.MapStringStringCmd, len(keys))
	_, err = client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, key)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger := log.Component(ctx, "redis")
	mems := make([]core.Memory, 0, len(keys))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		m, err := decodeHash(keys[i], fields)
		if err != nil {
			s.metrics.CorruptRecord()
			logger.Error().Err(core.Wrap(core.ErrSerialization, op, err)).Str("key", keys[i]).Msg("skipping corrupt memory")
			continue
		}
		if m.MatchesPrefix(prefix) {
			mems = append(mems, m)
		}
	}

	storage.SortByInsertion(mems)
	return mems, nil
}

func (s *HashStore) Get(ctx context.Context, key string) (core.Memory, error) {
	const op = "redis.hash.get"

	client, err := s.client(op)
	if err != nil {
		return core.Memory{}, err
	}
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return core.Memory{}, s.fail(ctx, op, err)
	}
	if len(fields) == 0 {
		return core.Memory{}, core.NewError(core.ErrNotFound, op, "key %q", key)
	}
	m, err := decodeHash(key, fields)
	if err != nil {
		return core.Memory{}, core.Wrap(core.ErrSerialization, op, err)
	}
	return m, nil
}
