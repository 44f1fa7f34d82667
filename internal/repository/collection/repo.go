package collection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/db"
	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
)

// store is the consumer interface for document persistence (ISP).
type store interface {
	AppendDocument(ctx context.Context, index, key string, createdAt int64, fields map[string]string) error
	ListDocuments(ctx context.Context, index string) ([]db.Record, error)
}

// Repo is the in-memory collection registry. Collections are immutable snapshots;
// an add swaps in a new snapshot, so readers never observe a partial write.
// With a store attached, added documents are written through before the swap.
type Repo struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	cols    map[string]domcol.Collection
	store   store
	logger  *zap.Logger
}

// New creates a registry. s may be nil for a memory-only registry.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{cols: make(map[string]domcol.Collection), store: s, logger: logger}
}

// Register installs a collection snapshot, replacing any previous one with the same name.
func (r *Repo) Register(col domcol.Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cols[col.Name()] = col
}

// Get returns the current snapshot of a collection.
func (r *Repo) Get(_ context.Context, name string) (domcol.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.cols[name]
	if !ok {
		return domcol.Collection{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return col, nil
}

// List returns all collection snapshots sorted by name.
func (r *Repo) List(_ context.Context) ([]domcol.Collection, error) {
	r.mu.RLock()
	out := make([]domcol.Collection, 0, len(r.cols))
	for _, c := range r.cols {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Add appends a document, creating the collection on first use.
func (r *Repo) Add(ctx context.Context, collectionName string, doc domdoc.Document) (domcol.Collection, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	current, ok := r.cols[collectionName]
	r.mu.RUnlock()

	if !ok {
		var err error
		if current, err = domcol.New(collectionName, nil); err != nil {
			return domcol.Collection{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
		}
	}

	next, err := current.WithDocument(doc)
	if err != nil {
		return domcol.Collection{}, err //nolint:wrapcheck // domain sentinel
	}

	if r.store != nil {
		fields, err := docToHash(collectionName, &doc)
		if err != nil {
			return domcol.Collection{}, err
		}
		key := docKey(collectionName, doc.ID())
		if err := r.store.AppendDocument(ctx, docIndex, key, doc.CreatedAt(), fields); err != nil {
			return domcol.Collection{}, fmt.Errorf("persist document %s/%s: %w", collectionName, doc.ID(), err)
		}
	}

	r.Register(next)
	return next, nil
}

// Load replays the persisted document log into the registry in creation order.
// Documents whose IDs are already registered are skipped. Returns the number loaded.
func (r *Repo) Load(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}

	records, err := r.store.ListDocuments(ctx, docIndex)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	type entry struct {
		collection string
		doc        domdoc.Document
	}
	entries := make([]entry, 0, len(records))
	for _, rec := range records {
		name, doc, err := docFromHash(rec.Fields)
		if err != nil {
			r.logger.Warn("Skipping unreadable document", zap.String("key", rec.Key), zap.Error(err))
			continue
		}
		entries = append(entries, entry{collection: name, doc: doc})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].doc.CreatedAt() != entries[j].doc.CreatedAt() {
			return entries[i].doc.CreatedAt() < entries[j].doc.CreatedAt()
		}
		return entries[i].doc.ID() < entries[j].doc.ID()
	})

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for _, e := range entries {
		col, ok := r.cols[e.collection]
		if !ok {
			if col, err = domcol.New(e.collection, nil); err != nil {
				r.logger.Warn("Skipping document with invalid collection name",
					zap.String("collection", e.collection), zap.Error(err))
				continue
			}
		}
		if col.Has(e.doc.ID()) {
			continue
		}
		next, err := col.WithDocument(e.doc)
		if err != nil {
			continue
		}
		r.cols[e.collection] = next
		loaded++
	}
	return loaded, nil
}
