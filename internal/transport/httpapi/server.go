// Package httpapi exposes the feedback platform over a chi-routed JSON API.
// Every payload uses the same envelope: {"success": bool, "message": ...,
// "data": ...}. Chat is the one exception, it streams plain text chunks.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feedloop-io/feedloop/internal/domain"
	chatuc "github.com/feedloop-io/feedloop/internal/usecase/chat"
	healthuc "github.com/feedloop-io/feedloop/internal/usecase/health"
	ingestuc "github.com/feedloop-io/feedloop/internal/usecase/ingest"
	searchuc "github.com/feedloop-io/feedloop/internal/usecase/search"
)

// Collector runs the feedback ingestion pipeline.
type Collector interface {
	Collect(ctx context.Context, req ingestuc.Request) (domain.Feedback, error)
}

// ChatService opens retrieval-augmented chat streams.
type ChatService interface {
	Stream(ctx context.Context, req chatuc.Request) (domain.ChatStream, error)
}

// Searcher runs hybrid searches.
type Searcher interface {
	Hybrid(ctx context.Context, req searchuc.Request) ([]domain.SearchHit, error)
}

// Summarizer condenses recent feedback.
type Summarizer interface {
	Summarize(ctx context.Context, tenantID string, sentiment domain.Sentiment) (string, error)
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// FeedbackStore reads and deletes stored feedback records.
type FeedbackStore interface {
	Get(ctx context.Context, tenantID, id string) (domain.Feedback, error)
	Delete(ctx context.Context, tenantID, id string) error
	ListRecent(ctx context.Context, tenantID string, sentiment domain.Sentiment, limit int) ([]domain.Feedback, error)
}

// KeywordStore reads and clears keyword counters.
type KeywordStore interface {
	Top(ctx context.Context, tenantID string, limit int) ([]domain.KeywordCount, error)
	DeleteTenant(ctx context.Context, tenantID string) error
}

// DocumentAdmin manages indexed documents directly.
type DocumentAdmin interface {
	DeleteByID(ctx context.Context, id string) error
	DeleteByTenant(ctx context.Context, tenantID string) (int, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the API's handlers and their dependencies.
type Server struct {
	ingest        Collector
	chat          ChatService
	search        Searcher
	summary       Summarizer
	health        HealthService
	feedbacks     FeedbackStore
	keywords      KeywordStore
	documents     DocumentAdmin
	streamTimeout time.Duration
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Collector,
	chat ChatService,
	search Searcher,
	summary Summarizer,
	health HealthService,
	feedbacks FeedbackStore,
	keywords KeywordStore,
	documents DocumentAdmin,
	streamTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	if streamTimeout <= 0 {
		streamTimeout = 2 * time.Minute
	}
	s := &Server{
		ingest:        ingest,
		chat:          chat,
		search:        search,
		summary:       summary,
		health:        health,
		feedbacks:     feedbacks,
		keywords:      keywords,
		documents:     documents,
		streamTimeout: streamTimeout,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest),
		sentinelHandler(domain.ErrMissingConfig, http.StatusInternalServerError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrSearchBackend, http.StatusServiceUnavailable),
	}
	return s
}

// Routes mounts all API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/feedback", s.handleCollect)
		r.Get("/feedback/{feedbackID}", s.handleGetFeedback)
		r.Delete("/feedback/{feedbackID}", s.handleDeleteFeedback)
		r.Post("/chat", s.handleChat)
		r.Get("/search", s.handleSearch)

		r.Route("/team/{teamID}", func(r chi.Router) {
			r.Get("/feedbacks", s.handleListFeedbacks)
			r.Get("/summary", s.handleSummary)
			r.Get("/keywords", s.handleKeywords)
			r.Delete("/documents", s.handleDeleteDocuments)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrMissingConfig,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrSearchBackend,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
