package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/db"
	"github.com/kailas-cloud/suggestd/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// mockCache implements the consumer interface for tests.
type mockCache struct {
	fetchFn func(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	putFn   func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	fetches int
	puts    int
}

func (m *mockCache) Fetch(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	m.fetches++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, key, ttl)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.puts++
	if m.putFn != nil {
		return m.putFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner domain.Embedder) (*CachedEmbedder, *mockCache) {
	t.Helper()
	ms := &mockCache{}
	ce := New(inner, ms, "test:model:3", time.Hour, nil, zap.NewNop())
	return ce, ms
}
