package request

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/suggestd/internal/domain"
)

// Search parameter limits.
const (
	DefaultMaxResults = 10
	DefaultThreshold  = 0.7
)

// Options are validated similarity search parameters.
type Options struct {
	maxResults int
	threshold  float64
}

// New validates and normalizes search options.
// maxResults == 0 selects the default (10); any positive value is kept as given.
// A nil threshold selects the default (0.7); otherwise it must lie in [-1, 1].
func New(maxResults int, threshold *float64) (Options, error) {
	if maxResults < 0 {
		return Options{}, fmt.Errorf("%w: max_results must be >= 1, got %d", domain.ErrInvalidOptions, maxResults)
	}
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}

	t := DefaultThreshold
	if threshold != nil {
		t = *threshold
		if math.IsNaN(t) || t < -1 || t > 1 {
			return Options{}, fmt.Errorf("%w: similarity_threshold must be between -1 and 1, got %v",
				domain.ErrInvalidOptions, t)
		}
	}

	return Options{maxResults: maxResults, threshold: t}, nil
}

// Default returns max_results=10, similarity_threshold=0.7.
func Default() Options {
	return Options{maxResults: DefaultMaxResults, threshold: DefaultThreshold}
}

// SimilarChats is the preset used to find earlier chat turns.
func SimilarChats() Options { return Options{maxResults: 5, threshold: 0.6} }

// SimilarProjects is the preset used to match planning requests against projects.
func SimilarProjects() Options { return Options{maxResults: 3, threshold: 0.5} }

// SuggestionContext is the narrower chat preset used while composing suggestions.
func SuggestionContext() Options { return Options{maxResults: 3, threshold: 0.5} }

// All keeps every document regardless of score.
func All() Options { return Options{maxResults: math.MaxInt, threshold: -1} }

// MaxResults returns the result cap.
func (o Options) MaxResults() int { return o.maxResults }

// Threshold returns the minimum similarity a result must reach.
func (o Options) Threshold() float64 { return o.threshold }

// WithOverrides applies non-zero caller overrides on top of a preset.
func (o Options) WithOverrides(maxResults int, threshold *float64) (Options, error) {
	if maxResults == 0 {
		maxResults = o.maxResults
	}
	if threshold == nil {
		t := o.threshold
		threshold = &t
	}
	return New(maxResults, threshold)
}
