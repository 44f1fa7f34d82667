package search

import (
	"sort"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
	"github.com/kailas-cloud/suggestd/internal/domain/vector"
)

// Rank scores every document against query by cosine similarity, keeps scores at or
// above the threshold, sorts them descending and truncates to MaxResults.
// Equal scores keep document order. Every document must have the query's dimension.
func Rank(query []float32, docs []domdoc.Document, opts request.Options) ([]result.Result, error) {
	results := make([]result.Result, 0, len(docs))
	for _, d := range docs {
		v := d.Vector()
		if len(v) != len(query) {
			return nil, domain.NewDimensionMismatch(len(query), len(v), d.ID())
		}
		score, err := vector.Cosine(query, v)
		if err != nil {
			return nil, err //nolint:wrapcheck // lengths checked above
		}
		if score >= opts.Threshold() {
			results = append(results, result.New(d, score))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	if len(results) > opts.MaxResults() {
		results = results[:opts.MaxResults()]
	}
	return results, nil
}
