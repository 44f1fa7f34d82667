package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/db"
	"github.com/kailas-cloud/suggestd/internal/domain"
	"github.com/kailas-cloud/suggestd/internal/domain/vector"
)

const cacheKeyPrefix = "suggestd:emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Fetch(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder memoizes a paid embedding provider in Valkey/Redis.
// Entries expire ttl after their last hit. Store failures degrade to a
// provider call and are never returned.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	namespace  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// namespace separates providers, models and dimensions sharing one store
// (e.g. "openai:text-embedding-3-small:128"). cacheTotal takes label "result".
func New(
	inner domain.Embedder,
	s store,
	namespace string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		namespace:  namespace,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed serves from the cache when possible. Hits report zero tokens.
// Blank text goes straight to the inner embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return c.embedInner(ctx, text)
	}

	key := c.cacheKey(text)
	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.embedInner(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	if len(res.Embedding) > 0 {
		if err := c.store.Put(ctx, key, vector.Encode(res.Embedding), c.ttl); err != nil {
			c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

// Dimensions forwards to the inner embedder when it reports one.
func (c *CachedEmbedder) Dimensions() int {
	if dr, ok := c.inner.(domain.DimensionReporter); ok {
		return dr.Dimensions()
	}
	return 0
}

// HealthCheck forwards to the inner embedder when it supports one.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedEmbedder) embedInner(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return res, nil
}

// lookup treats unreadable entries and entries of the wrong length as misses.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Fetch(ctx, key, c.ttl)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	vec, err := vector.Decode(data)
	if err != nil || len(vec) == 0 {
		c.logger.Warn("Discarding unreadable cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if dims := c.Dimensions(); dims > 0 && len(vec) != dims {
		c.logger.Warn("Discarding cached embedding of wrong length",
			zap.String("key", key), zap.Int("want", dims), zap.Int("got", len(vec)))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.namespace + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
