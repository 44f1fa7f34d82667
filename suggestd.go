// Package suggestd exposes the deterministic embedding, similarity search and
// suggestion composition used by the suggestd service as plain functions.
package suggestd

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/embedding"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
	"github.com/kailas-cloud/suggestd/internal/domain/vector"
	"github.com/kailas-cloud/suggestd/internal/usecase/search"
	"github.com/kailas-cloud/suggestd/internal/usecase/suggest"
)

// DefaultDimensions is the embedding length used by Suggest and the service.
const DefaultDimensions = domain.DefaultDimensions

// Errors returned by this package. Match with errors.Is.
var (
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrUnsupportedInput  = domain.ErrUnsupportedInput
	ErrInvalidOptions    = domain.ErrInvalidOptions
)

// Document is a searchable text with a precomputed vector.
type Document struct {
	ID     string
	Text   string
	Fields map[string]string
	Vector []float32
}

// Hit is a document and its cosine similarity to the query.
type Hit struct {
	Document Document
	Score    float64
}

// SearchOptions limit a search. Zero MaxResults means 10; nil SimilarityThreshold means 0.7.
type SearchOptions struct {
	MaxResults          int
	SimilarityThreshold *float64
}

// Suggestions is the outcome of Suggest.
type Suggestions struct {
	// Fallback is set when composition failed; Items then holds the fixed list and Cause the error.
	Fallback     bool
	Category     string
	Items        []string
	Confidence   float64
	SimilarChats []Hit
	Cause        error
}

// Embed maps text to a unit vector of the given length by hashing its tokens
// into buckets. Blank text yields the zero vector.
func Embed(text string, dimensions int) ([]float32, error) {
	return embedding.Embed(text, dimensions)
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector is zero.
func CosineSimilarity(a, b []float32) (float64, error) {
	return vector.Cosine(a, b)
}

// Search ranks docs against query: scores below the threshold are dropped,
// ties keep input order, and at most MaxResults hits are returned.
func Search(query []float32, docs []Document, opts SearchOptions) ([]Hit, error) {
	o, err := request.New(opts.MaxResults, opts.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	ranked, err := search.Rank(query, toDomain(docs), o)
	if err != nil {
		return nil, err
	}
	return toHits(ranked), nil
}

// Suggest composes follow-up suggestions for text. history feeds the
// "Learn more about" topics; chatHistory is searched for similar earlier turns.
// Suggest never fails: errors produce the fallback list.
func Suggest(text string, history []string, chatHistory []Document) Suggestions {
	svc := suggest.New(
		embedding.NewHashEmbedder(DefaultDimensions),
		memorySearcher{chats: toDomain(chatHistory)},
		zap.NewNop(),
	)
	res := svc.Suggest(context.Background(), text, history)
	return Suggestions{
		Fallback:     res.IsFallback(),
		Category:     string(res.Category()),
		Items:        res.Suggestions(),
		Confidence:   res.Confidence(),
		SimilarChats: toHits(res.SimilarChats()),
		Cause:        res.Cause(),
	}
}

// memorySearcher serves the chat_history lookup of Suggest from a slice.
type memorySearcher struct {
	chats []domdoc.Document
}

func (m memorySearcher) Search(
	_ context.Context, collectionName string, query []float32, opts request.Options,
) ([]result.Result, result.Source, error) {
	if collectionName != domcol.ChatHistory {
		return []result.Result{}, result.SourceLocal, nil
	}
	rs, err := search.Rank(query, m.chats, opts)
	return rs, result.SourceLocal, err
}

var _ suggest.Searcher = memorySearcher{}

func toDomain(docs []Document) []domdoc.Document {
	out := make([]domdoc.Document, len(docs))
	for i, d := range docs {
		out[i] = domdoc.Reconstruct(d.ID, d.Text, d.Fields, d.Vector, 0)
	}
	return out
}

func toHits(rs []result.Result) []Hit {
	out := make([]Hit, len(rs))
	for i := range rs {
		d := rs[i].Document()
		out[i] = Hit{
			Document: Document{ID: d.ID(), Text: d.Text(), Fields: d.Fields(), Vector: d.Vector()},
			Score:    rs[i].Score(),
		}
	}
	return out
}
