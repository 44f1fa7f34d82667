package collection

import (
	"context"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
)

// Repository defines the storage contract for collections.
type Repository interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Add(ctx context.Context, collectionName string, doc domdoc.Document) (domcol.Collection, error)
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Indexer mirrors added documents into a remote search index.
type Indexer interface {
	Upsert(ctx context.Context, collectionName string, doc domdoc.Document) error
}
