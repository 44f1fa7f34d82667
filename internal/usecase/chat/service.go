// Package chat answers chat messages and keeps per-user history in the chat_history collection.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/suggestion"
	"github.com/kailas-cloud/suggestd/internal/usecase/sentiment"
)

// Document fields of a recorded turn.
const (
	FieldUser     = "user"
	FieldResponse = "response"
)

// AnonymousUser owns turns sent without a user ID.
const AnonymousUser = "anonymous"

// Reply is the answer to one chat message.
type Reply struct {
	TurnID      string
	Text        string
	Sentiment   sentiment.Analysis
	Suggestions suggestion.Result
	Vector      []float32
}

// Turn is a recorded message and its response.
type Turn struct {
	ID        string
	User      string
	Message   string
	Response  string
	Timestamp int64 // unix millis
}

// Service answers chat messages.
type Service struct {
	colls   Collections
	suggest Suggester
}

// New creates a chat service.
func New(colls Collections, suggest Suggester) *Service {
	return &Service{colls: colls, suggest: suggest}
}

// Send answers a message, decorates the answer with sentiment and suggestions,
// and records the turn. Earlier turns of the same user feed the suggestion topics.
func (s *Service) Send(ctx context.Context, user, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, domain.ErrEmptyMessage
	}
	if user == "" {
		user = AnonymousUser
	}

	turns, err := s.turns(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	history := make([]string, len(turns))
	for i, t := range turns {
		history[i] = t.Message
	}

	response := fmt.Sprintf("You said: '%s'. How else can I help you?", message)
	suggestions := s.suggest.Suggest(ctx, message, history)

	doc, err := s.colls.AddDocument(ctx, domcol.ChatHistory, "", message, map[string]string{
		FieldUser:     user,
		FieldResponse: response,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("record turn: %w", err)
	}

	return Reply{
		TurnID:      doc.ID(),
		Text:        response,
		Sentiment:   sentiment.Analyze(message),
		Suggestions: suggestions,
		Vector:      doc.Vector(),
	}, nil
}

// History returns the user's turns, newest first.
func (s *Service) History(ctx context.Context, user string) ([]Turn, error) {
	if user == "" {
		user = AnonymousUser
	}
	turns, err := s.turns(ctx, user)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// turns returns the user's turns in recording order.
func (s *Service) turns(ctx context.Context, user string) ([]Turn, error) {
	col, err := s.colls.Get(ctx, domcol.ChatHistory)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return []Turn{}, nil
		}
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	out := []Turn{}
	for _, d := range col.Documents() {
		if d.Field(FieldUser) != user {
			continue
		}
		out = append(out, turnFromDoc(&d))
	}
	return out, nil
}

func turnFromDoc(d *domdoc.Document) Turn {
	return Turn{
		ID:        d.ID(),
		User:      d.Field(FieldUser),
		Message:   d.Text(),
		Response:  d.Field(FieldResponse),
		Timestamp: d.CreatedAt(),
	}
}
