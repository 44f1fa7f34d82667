package search

import (
	"context"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
)

// CollectionReader reads collection snapshots.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Hit is a document ID and score reported by a remote searcher.
type Hit struct {
	ID    string
	Score float64
}

// Remote is an optional external vector search collaborator.
// Hits are resolved against the local collection snapshot.
type Remote interface {
	Search(ctx context.Context, collectionName string, query []float32, opts request.Options) ([]Hit, error)
}
