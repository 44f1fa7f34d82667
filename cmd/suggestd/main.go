package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/config"
	"github.com/kailas-cloud/suggestd/internal/db"
	dbRedis "github.com/kailas-cloud/suggestd/internal/db/redis"
	"github.com/kailas-cloud/suggestd/internal/domain"
	"github.com/kailas-cloud/suggestd/internal/domain/embedding"
	logpkg "github.com/kailas-cloud/suggestd/internal/logger"
	"github.com/kailas-cloud/suggestd/internal/metrics"
	collectionrepo "github.com/kailas-cloud/suggestd/internal/repository/collection"
	"github.com/kailas-cloud/suggestd/internal/repository/embcache"
	"github.com/kailas-cloud/suggestd/internal/seed"
	chiTransport "github.com/kailas-cloud/suggestd/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/suggestd/internal/transport/openai"
	"github.com/kailas-cloud/suggestd/internal/transport/qdrant"
	chatuc "github.com/kailas-cloud/suggestd/internal/usecase/chat"
	collectionuc "github.com/kailas-cloud/suggestd/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/suggestd/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/suggestd/internal/usecase/health"
	searchuc "github.com/kailas-cloud/suggestd/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/suggestd/internal/usecase/suggest"
	"github.com/kailas-cloud/suggestd/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting suggestd API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("database", cfg.Database.Enabled()),
		zap.Bool("remote_search", cfg.Remote.Enabled),
	)

	metrics.Register()

	ctx := context.Background()

	// Optional persistence. Valkey and Redis share the rueidis store.
	var store db.Store
	if cfg.Database.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Driver:   cfg.Database.Driver,
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer s.Close()

		if err := s.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		store = s
	}

	embedder := buildEmbedder(cfg.Embedding, store, logger)

	repo := collectionrepo.New(store, logger)
	if err := seedCollections(ctx, cfg.Seed, repo, embedder, logger); err != nil {
		logger.Fatal("Failed to seed collections", zap.Error(err))
	}
	loaded, err := repo.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load persisted documents", zap.Error(err))
	}
	if loaded > 0 {
		logger.Info("Loaded persisted documents", zap.Int("count", loaded))
	}

	searchOpts := []searchuc.Option{}
	collOpts := []collectionuc.Option{}
	var remoteChecker healthuc.RemoteChecker
	if cfg.Remote.Enabled {
		remote, err := qdrant.New(qdrant.Config{
			Host:    cfg.Remote.Host,
			Port:    cfg.Remote.Port,
			Prefix:  cfg.Remote.Prefix,
			Timeout: time.Duration(cfg.Remote.TimeoutMs) * time.Millisecond,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create remote searcher", zap.Error(err))
		}
		defer func() { _ = remote.Close() }()

		if cfg.Remote.SyncOnStart {
			syncRemote(ctx, remote, repo, cfg.Embedding.Dimensions, logger)
		}
		searchOpts = append(searchOpts,
			searchuc.WithRemote(remote),
			searchuc.WithCache(time.Duration(cfg.Search.CacheTTLSec)*time.Second),
		)
		collOpts = append(collOpts, collectionuc.WithIndexer(remote, logger))
		remoteChecker = remote
	}

	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}

	collSvc := collectionuc.New(repo, embedder, collOpts...)
	searchSvc := searchuc.New(repo, embedder, logger, searchOpts...)
	suggestSvc := suggestuc.New(embedder, searchSvc, logger)
	chatSvc := chatuc.New(collSvc, suggestSvc)
	healthSvc := healthuc.New(dbPinger, embedder, remoteChecker)

	server := chiTransport.NewServer(embedder, collSvc, searchSvc, suggestSvc, chatSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// pipelineEmbedder is what every service needs from the decorator chain.
type pipelineEmbedder interface {
	domain.Embedder
	domain.DimensionReporter
	domain.HealthChecker
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented.
// The cache wraps only the OpenAI provider; hashing is cheaper than a round trip.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) pipelineEmbedder {
	if cfg.Provider != config.ProviderOpenAI {
		return embeddinguc.NewInstrumentedEmbedder(
			embedding.NewHashEmbedder(cfg.Dimensions), config.ProviderHash, "", cfg.Dimensions, logger,
		)
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   config.ProviderOpenAI,
		Logger:     logger,
	})

	var inner domain.Embedder = base
	if cfg.Cache.Enabled && store != nil {
		namespace := fmt.Sprintf("%s:%s:%d", config.ProviderOpenAI, cfg.Model, cfg.Dimensions)
		inner = embcache.New(base, store, namespace,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(inner, config.ProviderOpenAI, cfg.Model, cfg.Dimensions, logger)
}

// seedCollections registers the seed data set unless seeding is disabled.
func seedCollections(
	ctx context.Context, cfg config.SeedConfig, repo *collectionrepo.Repo, emb domain.Embedder, logger *zap.Logger,
) error {
	if cfg.Disabled {
		return nil
	}
	file := seed.Builtin()
	if cfg.Path != "" {
		var err error
		if file, err = seed.Load(cfg.Path); err != nil {
			return err
		}
	}

	cols, err := seed.Build(ctx, file, emb, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	for _, c := range cols {
		repo.Register(c)
		logger.Info("Seeded collection", zap.String("collection", c.Name()), zap.Int("documents", c.Len()))
	}
	return nil
}

// syncRemote mirrors every collection into the remote searcher. Failures are
// logged; search falls back to the local scan for unsynced collections.
func syncRemote(ctx context.Context, remote *qdrant.Searcher, repo *collectionrepo.Repo, dims int, logger *zap.Logger) {
	cols, err := repo.List(ctx)
	if err != nil {
		logger.Warn("List collections for remote sync failed", zap.Error(err))
		return
	}
	for _, c := range cols {
		if err := remote.Sync(ctx, c, dims); err != nil {
			logger.Warn("Remote sync failed", zap.String("collection", c.Name()), zap.Error(err))
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
