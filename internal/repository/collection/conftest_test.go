package collection

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/kailas-cloud/suggestd/internal/db"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
)

// mockStore is an in-memory document log: hashes plus one score per key.
type mockStore struct {
	mu        sync.Mutex
	hashes    map[string]map[string]string
	scores    map[string]int64
	appendErr error
	listErr   error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string), scores: make(map[string]int64)}
}

func (m *mockStore) AppendDocument(_ context.Context, _, key string, createdAt int64, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.hashes[key] = cp
	m.scores[key] = createdAt
	return nil
}

func (m *mockStore) ListDocuments(_ context.Context, _ string) ([]db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	keys := make([]string, 0, len(m.hashes))
	for k := range m.hashes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m.scores[keys[i]] != m.scores[keys[j]] {
			return m.scores[keys[i]] < m.scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	out := make([]db.Record, len(keys))
	for i, k := range keys {
		out[i] = db.Record{Key: k, Fields: m.hashes[k]}
	}
	return out, nil
}

func testDoc(t *testing.T, id, text string, createdAt int64) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, text, map[string]string{"source": "test"}, []float32{0.6, 0.8}, createdAt)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return d
}
