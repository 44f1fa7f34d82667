package chat

import (
	"context"

	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/suggestion"
)

// Suggester composes follow-up suggestions.
type Suggester interface {
	Suggest(ctx context.Context, text string, history []string) suggestion.Result
}

// Collections reads chat history and records new turns.
type Collections interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
	AddDocument(
		ctx context.Context, collectionName, id, text string, fields map[string]string,
	) (domdoc.Document, error)
}
