package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/suggestd/internal/db"
)

// Fetch reads a cached value and pushes its expiry out by ttl in the same round trip.
func (s *Store) Fetch(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	res := s.client.DoMulti(ctx,
		s.b().Get().Key(key).Build(),
		s.b().Expire().Key(key).Seconds(int64(ttl/time.Second)).Build(),
	)
	data, err := res[0].AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Put stores a value with an expiration.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
