package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/suggestd/internal/db"
)

// AppendDocument writes the document hash and its index entry in one MULTI/EXEC.
func (s *Store) AppendDocument(
	ctx context.Context, index, key string, createdAt int64, fields map[string]string,
) error {
	hset := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		hset = hset.FieldValue(k, v)
	}

	cmds := rueidis.Commands{
		s.b().Multi().Build(),
		hset.Build(),
		s.b().Zadd().Key(index).ScoreMember().ScoreMember(float64(createdAt), key).Build(),
		s.b().Exec().Build(),
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("append %s (step %d): %w", key, i, err)}
		}
	}
	return nil
}

// ListDocuments returns every hash referenced by index, oldest first.
// Index entries whose hash is gone are dropped.
func (s *Store) ListDocuments(ctx context.Context, index string) ([]db.Record, error) {
	keys, err := s.do(ctx, s.b().Zrange().Key(index).Min("0").Max("-1").Build()).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	out := make([]db.Record, 0, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		if len(m) == 0 {
			continue
		}
		out = append(out, db.Record{Key: keys[i], Fields: m})
	}
	return out, nil
}
