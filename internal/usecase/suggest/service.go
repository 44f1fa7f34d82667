// Package suggest composes follow-up suggestions for a chat message.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/domain/suggestion"
	"github.com/kailas-cloud/suggestd/internal/metrics"
	"github.com/kailas-cloud/suggestd/internal/usecase/search"
)

// MaxTopics caps how many history words become topic suggestions.
const MaxTopics = 5

// Service picks a category for a message and returns its canned suggestions,
// extended with topics from the conversation history.
type Service struct {
	embed  Embedder
	search Searcher
	logger *zap.Logger
}

// New creates a suggestion service.
func New(embed Embedder, searcher Searcher, logger *zap.Logger) *Service {
	return &Service{embed: embed, search: searcher, logger: logger}
}

// Suggest never fails: any embedding or search error yields the fallback result,
// which keeps the cause for logging.
func (s *Service) Suggest(ctx context.Context, text string, history []string) suggestion.Result {
	res, err := s.compose(ctx, text, history)
	if err != nil {
		s.logger.Warn("Suggestion composition failed, returning fallback",
			zap.Int("history_len", len(history)),
			zap.Error(err),
		)
		metrics.SuggestionsTotal.WithLabelValues(string(suggestion.KindFallback), "").Inc()
		return suggestion.Fallback(err)
	}
	metrics.SuggestionsTotal.WithLabelValues(string(suggestion.KindComputed), string(res.Category())).Inc()
	return res
}

func (s *Service) compose(ctx context.Context, text string, history []string) (suggestion.Result, error) {
	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return suggestion.Result{}, fmt.Errorf("vectorize input: %w", err)
	}

	category, err := s.categorize(ctx, emb.Embedding)
	if err != nil {
		return suggestion.Result{}, err
	}

	similar, _, err := s.search.Search(ctx, domcol.ChatHistory, emb.Embedding, request.SuggestionContext())
	if err != nil {
		return suggestion.Result{}, fmt.Errorf("search similar chats: %w", err)
	}

	out := suggestion.Templates(category)
	for _, topic := range Topics(history) {
		out = append(out, "Learn more about "+topic)
	}
	if len(out) > suggestion.MaxSuggestions {
		out = out[:suggestion.MaxSuggestions]
	}

	return suggestion.Computed(category, out, similar), nil
}

// categorize ranks the category probes against the input. The best probe wins,
// ties go to the earlier category, and nothing above zero means the default.
func (s *Service) categorize(ctx context.Context, input []float32) (suggestion.Category, error) {
	probes := suggestion.Probes()
	docs := make([]domdoc.Document, 0, len(probes))
	for _, p := range probes {
		emb, err := s.embed.Embed(ctx, p.Phrase)
		if err != nil {
			return "", fmt.Errorf("vectorize probe %s: %w", p.Category, err)
		}
		docs = append(docs, domdoc.Reconstruct(string(p.Category), p.Phrase, nil, emb.Embedding, 0))
	}

	ranked, err := search.Rank(input, docs, request.All())
	if err != nil {
		return "", fmt.Errorf("rank probes: %w", err)
	}
	if len(ranked) == 0 || ranked[0].Score() <= 0 {
		return suggestion.DefaultCategory, nil
	}
	return suggestion.Category(ranked[0].ID()), nil
}

// Topics extracts up to MaxTopics distinct lowercase words longer than three
// characters from the history, in order of first appearance.
func Topics(history []string) []string {
	seen := make(map[string]struct{})
	var topics []string
	for _, msg := range history {
		for _, w := range strings.Fields(strings.ToLower(msg)) {
			if utf8.RuneCountInString(w) <= 3 {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			topics = append(topics, w)
			if len(topics) == MaxTopics {
				return topics
			}
		}
	}
	return topics
}
