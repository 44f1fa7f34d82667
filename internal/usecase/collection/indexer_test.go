package collection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/embedding"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
	collectionrepo "github.com/kailas-cloud/suggestd/internal/repository/collection"
	"github.com/kailas-cloud/suggestd/internal/usecase/search"
)

// memoryIndex is a remote index held in memory: it serves searches only from
// the documents it was given.
type memoryIndex struct {
	mu        sync.Mutex
	docs      map[string][]domdoc.Document
	upsertErr error
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{docs: make(map[string][]domdoc.Document)}
}

func (m *memoryIndex) Upsert(_ context.Context, name string, doc domdoc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.docs[name] = append(m.docs[name], doc)
	return nil
}

func (m *memoryIndex) Search(
	_ context.Context, name string, query []float32, opts request.Options,
) ([]search.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ranked, err := search.Rank(query, m.docs[name], opts)
	if err != nil {
		return nil, err
	}
	hits := make([]search.Hit, len(ranked))
	for i := range ranked {
		hits[i] = search.Hit{ID: ranked[i].ID(), Score: ranked[i].Score()}
	}
	return hits, nil
}

func TestAddDocument_UpsertsIntoIndex(t *testing.T) {
	ix := newMemoryIndex()
	svc := New(newMockRepo(), &mockEmbedder{}, WithIndexer(ix, zap.NewNop()))

	doc, err := svc.AddDocument(context.Background(), "chat_history", "", "where is my parcel", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ix.docs["chat_history"]; len(got) != 1 || got[0].ID() != doc.ID() {
		t.Fatalf("expected the added document in the index, got %d docs", len(got))
	}
}

func TestAddDocument_IndexFailureIsNotFatal(t *testing.T) {
	ix := newMemoryIndex()
	ix.upsertErr = errors.New("qdrant down")
	repo := newMockRepo()
	svc := New(repo, &mockEmbedder{}, WithIndexer(ix, nil))

	if _, err := svc.AddDocument(context.Background(), "chat_history", "t1", "hello", nil); err != nil {
		t.Fatalf("index failure must not fail the add: %v", err)
	}
	if len(repo.added) != 1 {
		t.Errorf("document must still be registered locally, got %d", len(repo.added))
	}
}

func TestAddDocument_RemoteSearchSeesNewDocument(t *testing.T) {
	ctx := context.Background()
	repo := collectionrepo.New(nil, zap.NewNop())
	emb := &mockEmbedder{}

	startup, _ := embedding.Embed("track my delivery", 128)
	a := domdoc.Reconstruct("a", "track my delivery", nil, startup, 1)
	col, _ := domcol.New("chat_history", []domdoc.Document{a})
	repo.Register(col)

	ix := newMemoryIndex()
	_ = ix.Upsert(ctx, "chat_history", a)

	colls := New(repo, emb, WithIndexer(ix, zap.NewNop()))
	if _, err := colls.AddDocument(ctx, "chat_history", "b", "track my delivery please", nil); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	svc := search.New(repo, emb, zap.NewNop(), search.WithRemote(ix))
	q, _ := embedding.Embed("track my delivery", 128)
	all := -1.0
	opts, _ := request.New(10, &all)
	results, src, err := svc.Search(ctx, "chat_history", q, opts)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if src != result.SourceRemote {
		t.Fatalf("source = %s, want remote", src)
	}
	if len(results) != 2 || results[0].ID() != "a" || results[1].ID() != "b" {
		ids := make([]string, len(results))
		for i := range results {
			ids[i] = results[i].ID()
		}
		t.Fatalf("remote results = %v, want [a b]", ids)
	}
}
