package suggest

import (
	"context"

	"github.com/kailas-cloud/suggestd/internal/domain"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher finds documents similar to a query vector.
type Searcher interface {
	Search(
		ctx context.Context, collectionName string, query []float32, opts request.Options,
	) ([]result.Result, result.Source, error)
}
