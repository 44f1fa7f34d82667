package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	"github.com/kailas-cloud/suggestd/internal/domain/embedding"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/suggestd/internal/logger"
	chatuc "github.com/kailas-cloud/suggestd/internal/usecase/chat"
	collectionuc "github.com/kailas-cloud/suggestd/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/suggestd/internal/usecase/health"
	searchuc "github.com/kailas-cloud/suggestd/internal/usecase/search"
	"github.com/kailas-cloud/suggestd/internal/usecase/sentiment"
	suggestuc "github.com/kailas-cloud/suggestd/internal/usecase/suggest"
	"github.com/kailas-cloud/suggestd/internal/version"
)

const (
	maxBodyBytes = 1 << 20
	// maxEmbedDimensions bounds the vector size a caller may request.
	maxEmbedDimensions = 4096
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the suggestd HTTP API.
type Server struct {
	embedder      domain.Embedder
	collections   *collectionuc.Service
	search        *searchuc.Service
	suggest       *suggestuc.Service
	chat          *chatuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	embedder domain.Embedder,
	collections *collectionuc.Service,
	search *searchuc.Service,
	suggest *suggestuc.Service,
	chat *chatuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		embedder:    embedder,
		collections: collections,
		search:      search,
		suggest:     suggest,
		chat:        chat,
		health:      health,
		logger:      logger,
	}
	// Client errors expose the domain message; server errors only the sentinel text.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, ErrorCodeCollectionNotFound, true),
		sentinelHandler(domain.ErrDocumentExists, http.StatusConflict, ErrorCodeDocumentAlreadyExists, true),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusUnprocessableEntity, ErrorCodeDimensionMismatch, true),
		sentinelHandler(domain.ErrUnsupportedInput, http.StatusBadRequest, ErrorCodeUnsupportedInput, true),
		sentinelHandler(domain.ErrInvalidOptions, http.StatusBadRequest, ErrorCodeValidationFailed, true),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, ErrorCodeValidationFailed, true),
		sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, ErrorCodeMessageRequired, true),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorCodeEmbeddingProviderError, false),
		sentinelHandler(domain.ErrRemoteSearch, http.StatusBadGateway, ErrorCodeRemoteSearchFailed, false),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/api/vector/search", s.VectorSearch)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/embed", s.Embed)
		r.Get("/collections", s.ListCollections)
		r.Get("/collections/{collection}", s.GetCollection)
		r.Post("/collections/{collection}/search", s.SearchCollection)
		r.Post("/collections/{collection}/documents", s.AddDocument)
		r.Post("/suggestions", s.Suggest)
		r.Post("/sentiment", s.Sentiment)
		r.Post("/sentiment/trend", s.SentimentTrend)
		r.Post("/chat", s.Chat)
		r.Get("/chat/history", s.ChatHistory)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// Embed handles POST /api/v1/embed.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	text, err := decodeText(req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var vec []float32
	if req.Dimensions != nil {
		if *req.Dimensions > maxEmbedDimensions {
			s.handleDomainError(w, r, fmt.Errorf("%w: dimensions must be <= %d, got %d",
				domain.ErrInvalidOptions, maxEmbedDimensions, *req.Dimensions))
			return
		}
		vec, err = embedding.Embed(text, *req.Dimensions)
	} else {
		var res domain.EmbeddingResult
		res, err = s.embedder.Embed(r.Context(), text)
		vec = res.Embedding
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, EmbedResponse{Vector: vec, Dimensions: len(vec)})
}

// VectorSearch handles POST /api/vector/search.
func (s *Server) VectorSearch(w http.ResponseWriter, r *http.Request) {
	var req VectorSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CollectionName == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "collection_name is required")
		return
	}

	maxResults, threshold := req.limits()
	opts, err := request.New(maxResults, threshold)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, source, err := s.search.Search(r.Context(), req.CollectionName, req.QueryVector, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results: resultsToAPI(results),
		Total:   len(results),
		Source:  source,
	})
}

// SearchCollection handles POST /api/v1/collections/{collection}/search.
// chat_history and projects default to their preset limits.
func (s *Server) SearchCollection(w http.ResponseWriter, r *http.Request) {
	name, ok := collectionParam(w, r)
	if !ok {
		return
	}
	var req TextSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	text, err := decodeText(req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	opts, err := presetFor(name).WithOverrides(derefInt(req.MaxResults), req.SimilarityThreshold)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.SearchText(r.Context(), name, text, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: resultsToAPI(results), Total: len(results)})
}

// ListCollections handles GET /api/v1/collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]CollectionSummary, len(cols))
	for i := range cols {
		items[i] = CollectionSummary{Name: cols[i].Name(), DocumentCount: cols[i].Len()}
	}
	writeJSON(w, http.StatusOK, CollectionListResponse{Items: items})
}

// GetCollection handles GET /api/v1/collections/{collection}?include_vectors=bool.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	name, ok := collectionParam(w, r)
	if !ok {
		return
	}
	var includeVectors bool
	if err := runtime.BindQueryParameter("form", true, false, "include_vectors", r.URL.Query(), &includeVectors); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid include_vectors parameter")
		return
	}

	col, err := s.collections.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToAPI(&col, includeVectors))
}

// AddDocument handles POST /api/v1/collections/{collection}/documents.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	name, ok := collectionParam(w, r)
	if !ok {
		return
	}
	var req AddDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	text, err := decodeText(req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doc, err := s.collections.AddDocument(r.Context(), name, req.ID, text, req.Fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/collections/%s", name))
	writeJSON(w, http.StatusCreated, documentToAPI(&doc, true))
}

// Suggest handles POST /api/v1/suggestions. It always answers 200; degraded output has kind=fallback.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	text, err := decodeText(req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res := s.suggest.Suggest(r.Context(), text, req.History)
	writeJSON(w, http.StatusOK, suggestionToAPI(&res))
}

// Sentiment handles POST /api/v1/sentiment.
func (s *Server) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch {
	case req.Message != nil:
		writeJSON(w, http.StatusOK, sentiment.Analyze(*req.Message))
	case req.Messages != nil:
		writeJSON(w, http.StatusOK, SentimentBatchResponse{Items: sentiment.BatchAnalyze(req.Messages)})
	default:
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "message or messages is required")
	}
}

// SentimentTrend handles POST /api/v1/sentiment/trend.
func (s *Server) SentimentTrend(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, sentiment.AnalyzeTrend(req.Messages))
}

// Chat handles POST /api/v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := s.chat.Send(r.Context(), req.User, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		TurnID:      reply.TurnID,
		Response:    reply.Text,
		Sentiment:   reply.Sentiment,
		Suggestions: suggestionToAPI(&reply.Suggestions),
		Vector:      reply.Vector,
	})
}

// ChatHistory handles GET /api/v1/chat/history?user=string&limit=int.
func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	var user string
	if err := runtime.BindQueryParameter("form", true, false, "user", r.URL.Query(), &user); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid user parameter")
		return
	}
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid limit parameter")
		return
	}

	turns, err := s.chat.History(r.Context(), user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[:limit]
	}

	items := make([]ChatTurn, len(turns))
	for i, t := range turns {
		items[i] = turnToAPI(t)
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func presetFor(collectionName string) request.Options {
	switch collectionName {
	case domcol.ChatHistory:
		return request.SimilarChats()
	case domcol.Projects:
		return request.SimilarProjects()
	default:
		return request.Default()
	}
}

func collectionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "collection", chi.URLParam(r, "collection"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid collection parameter")
		return "", false
	}
	return name, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func sentinelHandler(sentinel error, status int, code ErrorCode, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
