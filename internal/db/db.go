package db

import (
	"context"
	"time"
)

// Store is everything the service persists: the document log behind the
// collection registry and the embedding cache.
type Store interface {
	Pinger
	DocumentLog
	Cache
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Record is one stored document hash.
type Record struct {
	Key    string
	Fields map[string]string
}

// DocumentLog keeps one hash per document and a sorted-set index scored by
// creation time, so a registry can be replayed in insertion order.
type DocumentLog interface {
	AppendDocument(ctx context.Context, index, key string, createdAt int64, fields map[string]string) error
	ListDocuments(ctx context.Context, index string) ([]Record, error)
}

// Cache stores opaque values. A hit extends the entry's lifetime by ttl.
type Cache interface {
	Fetch(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
