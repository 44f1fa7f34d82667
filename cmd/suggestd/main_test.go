package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/suggestd/internal/config"
	collectionrepo "github.com/kailas-cloud/suggestd/internal/repository/collection"
	chiTransport "github.com/kailas-cloud/suggestd/internal/transport/chi"
)

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/collections", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body chiTransport.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != chiTransport.ErrorCodeInternalError {
		t.Errorf("code = %s", body.Code)
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := chiMiddleware.RequestID(wideEventMiddleware(zap.New(core))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one canonical log line, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusTeapot) {
		t.Errorf("status field = %v", got)
	}
}

func TestBuildEmbedder_Hash(t *testing.T) {
	emb := buildEmbedder(config.EmbeddingConfig{Provider: config.ProviderHash, Dimensions: 64}, nil, zap.NewNop())
	if emb.Dimensions() != 64 {
		t.Fatalf("Dimensions() = %d, want 64", emb.Dimensions())
	}
	res, err := emb.Embed(context.Background(), "track my order")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Embedding) != 64 {
		t.Fatalf("len = %d", len(res.Embedding))
	}
}

func TestBuildEmbedder_OpenAI(t *testing.T) {
	emb := buildEmbedder(config.EmbeddingConfig{
		Provider:   config.ProviderOpenAI,
		Dimensions: 32,
		APIKey:     "k",
		Model:      "m",
	}, nil, zap.NewNop())
	if emb.Dimensions() != 32 {
		t.Fatalf("Dimensions() = %d, want 32", emb.Dimensions())
	}
}

func TestSeedCollections(t *testing.T) {
	repo := collectionrepo.New(nil, zap.NewNop())
	emb := buildEmbedder(config.EmbeddingConfig{Provider: config.ProviderHash, Dimensions: 128}, nil, zap.NewNop())

	if err := seedCollections(context.Background(), config.SeedConfig{}, repo, emb, zap.NewNop()); err != nil {
		t.Fatalf("seedCollections: %v", err)
	}
	cols, _ := repo.List(context.Background())
	if len(cols) != 2 {
		t.Fatalf("expected built-in collections, got %d", len(cols))
	}

	empty := collectionrepo.New(nil, zap.NewNop())
	if err := seedCollections(context.Background(), config.SeedConfig{Disabled: true}, empty, emb, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if cols, _ := empty.List(context.Background()); len(cols) != 0 {
		t.Fatalf("seeding disabled, got %d collections", len(cols))
	}

	err := seedCollections(context.Background(), config.SeedConfig{Path: "/nonexistent/seed.yaml"}, empty, emb, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for missing seed file")
	}
}
