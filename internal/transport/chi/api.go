package chi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
	"github.com/kailas-cloud/suggestd/internal/domain/suggestion"
	chatuc "github.com/kailas-cloud/suggestd/internal/usecase/chat"
	"github.com/kailas-cloud/suggestd/internal/usecase/sentiment"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnsupportedInput       ErrorCode = "unsupported_input"
	ErrorCodeDimensionMismatch      ErrorCode = "dimension_mismatch"
	ErrorCodeCollectionNotFound     ErrorCode = "collection_not_found"
	ErrorCodeDocumentAlreadyExists  ErrorCode = "document_already_exists"
	ErrorCodeMessageRequired        ErrorCode = "message_required"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeRemoteSearchFailed     ErrorCode = "remote_search_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// EmbedRequest is the body of POST /api/v1/embed.
// Dimensions, when set, selects the canonical hash embedding at that length.
type EmbedRequest struct {
	Text       json.RawMessage `json:"text"`
	Dimensions *int            `json:"dimensions,omitempty"`
}

// EmbedResponse carries an embedding.
type EmbedResponse struct {
	Vector     []float32 `json:"vector"`
	Dimensions int       `json:"dimensions"`
}

// VectorSearchRequest is the body of POST /api/vector/search.
// maxResults and threshold are accepted as aliases of the snake_case names.
type VectorSearchRequest struct {
	QueryVector         []float32 `json:"query_vector"`
	CollectionName      string    `json:"collection_name"`
	MaxResults          *int      `json:"max_results,omitempty"`
	SimilarityThreshold *float64  `json:"similarity_threshold,omitempty"`
	MaxResultsAlias     *int      `json:"maxResults,omitempty"`
	ThresholdAlias      *float64  `json:"threshold,omitempty"`
}

func (r *VectorSearchRequest) limits() (int, *float64) {
	maxResults := r.MaxResults
	if maxResults == nil {
		maxResults = r.MaxResultsAlias
	}
	threshold := r.SimilarityThreshold
	if threshold == nil {
		threshold = r.ThresholdAlias
	}
	return derefInt(maxResults), threshold
}

// TextSearchRequest is the body of POST /api/v1/collections/{collection}/search.
type TextSearchRequest struct {
	Text                json.RawMessage `json:"text"`
	MaxResults          *int            `json:"max_results,omitempty"`
	SimilarityThreshold *float64        `json:"similarity_threshold,omitempty"`
}

// SearchResultItem is one ranked document.
type SearchResultItem struct {
	ID     string            `json:"id"`
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields,omitempty"`
	Score  float64           `json:"score"`
}

// SearchResponse is a ranked result list.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Total   int                `json:"total"`
	Source  result.Source      `json:"source,omitempty"`
}

// CollectionSummary is one entry of the collection list.
type CollectionSummary struct {
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
}

// CollectionListResponse lists collections.
type CollectionListResponse struct {
	Items []CollectionSummary `json:"items"`
}

// DocumentResponse is a stored document.
type DocumentResponse struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt int64             `json:"created_at"`
	Vector    []float32         `json:"vector,omitempty"`
}

// CollectionResponse is a collection with its documents.
type CollectionResponse struct {
	Name          string             `json:"name"`
	DocumentCount int                `json:"document_count"`
	Documents     []DocumentResponse `json:"documents"`
}

// AddDocumentRequest is the body of POST /api/v1/collections/{collection}/documents.
type AddDocumentRequest struct {
	ID     string            `json:"id,omitempty"`
	Text   json.RawMessage   `json:"text"`
	Fields map[string]string `json:"fields,omitempty"`
}

// SuggestRequest is the body of POST /api/v1/suggestions.
type SuggestRequest struct {
	Text    json.RawMessage `json:"text"`
	History []string        `json:"history,omitempty"`
}

// SuggestResponse is a composed suggestion list.
type SuggestResponse struct {
	Kind         suggestion.Kind     `json:"kind"`
	Category     suggestion.Category `json:"category,omitempty"`
	Suggestions  []string            `json:"suggestions"`
	Confidence   float64             `json:"confidence"`
	SimilarChats []SearchResultItem  `json:"similar_chats"`
}

// SentimentRequest is the body of POST /api/v1/sentiment and /api/v1/sentiment/trend.
// Message analyzes one text; Messages analyzes a batch.
type SentimentRequest struct {
	Message  *string  `json:"message,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

// SentimentBatchResponse holds per-message analyses.
type SentimentBatchResponse struct {
	Items []sentiment.Analysis `json:"items"`
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	User    string `json:"user,omitempty"`
	Message string `json:"message"`
}

// ChatResponse answers one chat message.
type ChatResponse struct {
	TurnID      string             `json:"turn_id"`
	Response    string             `json:"response"`
	Sentiment   sentiment.Analysis `json:"sentiment"`
	Suggestions SuggestResponse    `json:"suggestions"`
	Vector      []float32          `json:"vector"`
}

// ChatTurn is one recorded exchange.
type ChatTurn struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
}

// ChatHistoryResponse lists turns newest first.
type ChatHistoryResponse struct {
	Items []ChatTurn `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// decodeText accepts only a JSON string. Missing, null and non-string values are unsupported input.
func decodeText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: text must be a string", domain.ErrUnsupportedInput)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: text must be a string", domain.ErrUnsupportedInput)
	}
	return s, nil
}

func resultsToAPI(rs []result.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(rs))
	for i := range rs {
		doc := rs[i].Document()
		items[i] = SearchResultItem{
			ID:     doc.ID(),
			Text:   doc.Text(),
			Fields: doc.Fields(),
			Score:  rs[i].Score(),
		}
	}
	return items
}

func suggestionToAPI(r *suggestion.Result) SuggestResponse {
	return SuggestResponse{
		Kind:         r.Kind(),
		Category:     r.Category(),
		Suggestions:  r.Suggestions(),
		Confidence:   r.Confidence(),
		SimilarChats: resultsToAPI(r.SimilarChats()),
	}
}

func documentToAPI(d *domdoc.Document, withVector bool) DocumentResponse {
	resp := DocumentResponse{
		ID:        d.ID(),
		Text:      d.Text(),
		Fields:    d.Fields(),
		CreatedAt: d.CreatedAt(),
	}
	if withVector {
		resp.Vector = d.Vector()
	}
	return resp
}

func collectionToAPI(c *domcol.Collection, withVectors bool) CollectionResponse {
	docs := c.Documents()
	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToAPI(&docs[i], withVectors)
	}
	return CollectionResponse{Name: c.Name(), DocumentCount: c.Len(), Documents: items}
}

func turnToAPI(t chatuc.Turn) ChatTurn {
	return ChatTurn{
		ID:        t.ID,
		User:      t.User,
		Message:   t.Message,
		Response:  t.Response,
		Timestamp: t.Timestamp,
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
