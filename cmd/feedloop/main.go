package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/feedloop-io/feedloop/internal/config"
	dbRedis "github.com/feedloop-io/feedloop/internal/db/redis"
	logpkg "github.com/feedloop-io/feedloop/internal/logger"
	"github.com/feedloop-io/feedloop/internal/metrics"
	feedbackrepo "github.com/feedloop-io/feedloop/internal/repository/feedback"
	indexrepo "github.com/feedloop-io/feedloop/internal/repository/index"
	keywordrepo "github.com/feedloop-io/feedloop/internal/repository/keyword"
	searchrepo "github.com/feedloop-io/feedloop/internal/repository/search"
	"github.com/feedloop-io/feedloop/internal/transport/httpapi"
	openaiTransport "github.com/feedloop-io/feedloop/internal/transport/openai"
	chatuc "github.com/feedloop-io/feedloop/internal/usecase/chat"
	healthuc "github.com/feedloop-io/feedloop/internal/usecase/health"
	ingestuc "github.com/feedloop-io/feedloop/internal/usecase/ingest"
	searchuc "github.com/feedloop-io/feedloop/internal/usecase/search"
	summaryuc "github.com/feedloop-io/feedloop/internal/usecase/summary"
	"github.com/feedloop-io/feedloop/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting feedloop API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to store")

	// Register provider and pipeline metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Logger:  logger,
	})
	logger.Info("Model providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("chat_model", cfg.Chat.Model),
	)

	// Repositories
	indexRepo := indexrepo.New(store, cfg.Index.KeyPrefix, cfg.Index.Name, cfg.Embedding.Dimensions).
		WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	searchRepo := searchrepo.New(store, cfg.Index.KeyPrefix, cfg.Index.Name)
	feedbackRepo := feedbackrepo.New(store, cfg.Index.KeyPrefix)
	keywordRepo := keywordrepo.New(store, cfg.Index.KeyPrefix)

	// Use case services
	searchSvc := searchuc.New(
		searchRepo, indexRepo, embedder,
		cfg.Embedding.Dimensions, cfg.Index.DefaultLimit, cfg.Index.MaxLimit,
	)
	ingestSvc := ingestuc.New(feedbackRepo, keywordRepo, indexRepo, completer, embedder, ingestuc.Config{
		ClassifyTemp: cfg.Chat.ClassifyTemp,
		ResponseTemp: cfg.Chat.ResponseTemp,
	})
	chatSvc := chatuc.New(searchSvc, embedder, completer, cfg.Chat.ContextLimit)
	summarySvc := summaryuc.New(feedbackRepo, completer, cfg.Chat.SummaryTemp, cfg.Chat.ContextLimit)
	healthSvc := healthuc.New(store, embedder)

	server := httpapi.NewServer(
		ingestSvc, chatSvc, searchSvc, summarySvc, healthSvc,
		feedbackRepo, keywordRepo, indexRepo,
		time.Duration(cfg.Chat.StreamTimeoutSec)*time.Second,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success": false,
						"message": "internal error",
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

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
