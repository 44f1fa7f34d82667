package suggestion

import (
	"math"

	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
)

// MaxSuggestions caps the suggestion list.
const MaxSuggestions = 5

// FallbackConfidence is reported whenever the fallback list is returned.
const FallbackConfidence = 0.3

// Category is an inferred topic of a user message.
type Category string

// Categories in definition order. Definition order breaks score ties.
const (
	Tracking Category = "tracking"
	Booking  Category = "booking"
	Planning Category = "planning"
	Support  Category = "support"
)

// DefaultCategory is used when no probe is similar to the input at all.
const DefaultCategory = Support

// Probe is a representative keyword phrase for a category plus its canned suggestions.
type Probe struct {
	Category  Category
	Phrase    string
	Templates []string
}

var probes = []Probe{
	{Tracking, "track delivery order status", []string{"Check your delivery status", "Update tracking information"}},
	{Booking, "book appointment meeting schedule", []string{"Schedule a new appointment", "View your bookings"}},
	{Planning, "project plan requirements develop", []string{"Start a new project", "Get AI recommendations"}},
	{Support, "help support problem issue", []string{"Contact support", "View help documentation"}},
}

var fallback = []string{
	"How can I help you today?",
	"Would you like to track a delivery?",
	"Need to book an appointment?",
}

// Probes returns the category probes in definition order.
func Probes() []Probe {
	out := make([]Probe, len(probes))
	copy(out, probes)
	return out
}

// Templates returns the canned suggestions for a category, nil if unknown.
func Templates(c Category) []string {
	for _, p := range probes {
		if p.Category == c {
			return append([]string(nil), p.Templates...)
		}
	}
	return nil
}

// FallbackSuggestions returns the fixed list shown when composition fails.
func FallbackSuggestions() []string {
	return append([]string(nil), fallback...)
}

// Confidence is the display heuristic min(0.9, 0.3 + 0.15*n).
func Confidence(n int) float64 {
	return math.Min(0.9, 0.3+0.15*float64(n))
}

// Kind tells computed suggestions apart from degraded output.
type Kind string

const (
	// KindComputed means the suggestions were derived from the input.
	KindComputed Kind = "computed"
	// KindFallback means composition failed and the fixed list was returned.
	KindFallback Kind = "fallback"
)

// Result is the outcome of composing suggestions for one message.
type Result struct {
	kind         Kind
	category     Category
	suggestions  []string
	confidence   float64
	similarChats []result.Result
	cause        error
}

// Computed builds a successful result; the confidence is derived from the suggestion count.
func Computed(category Category, suggestions []string, similarChats []result.Result) Result {
	return Result{
		kind:         KindComputed,
		category:     category,
		suggestions:  suggestions,
		confidence:   Confidence(len(suggestions)),
		similarChats: similarChats,
	}
}

// Fallback builds the degraded result. cause is kept for logging only.
func Fallback(cause error) Result {
	return Result{
		kind:        KindFallback,
		suggestions: FallbackSuggestions(),
		confidence:  FallbackConfidence,
		cause:       cause,
	}
}

// Kind reports whether the result is computed or a fallback.
func (r *Result) Kind() Kind { return r.kind }

// IsFallback reports whether composition failed.
func (r *Result) IsFallback() bool { return r.kind == KindFallback }

// Category returns the inferred category (empty for fallbacks).
func (r *Result) Category() Category { return r.category }

// Suggestions returns the ordered suggestion strings.
func (r *Result) Suggestions() []string { return r.suggestions }

// Confidence returns the display confidence.
func (r *Result) Confidence() float64 { return r.confidence }

// SimilarChats returns earlier chat turns similar to the input.
func (r *Result) SimilarChats() []result.Result { return r.similarChats }

// Cause returns the absorbed failure of a fallback result.
func (r *Result) Cause() error { return r.cause }
