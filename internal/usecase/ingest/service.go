// Package ingest implements the feedback collection pipeline: classify,
// advise, persist, count keywords, embed, index.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedloop-io/feedloop/internal/domain"
	"github.com/feedloop-io/feedloop/internal/logger"
	"github.com/feedloop-io/feedloop/internal/metrics"
)

// Config carries the model temperatures of the pipeline's two completions.
type Config struct {
	ClassifyTemp float32
	ResponseTemp float32
}

// Request is one incoming piece of end-user feedback.
type Request struct {
	TenantID    string
	Rate        int
	Description string
}

// Service runs the collection pipeline.
type Service struct {
	feedbacks FeedbackStore
	keywords  KeywordStore
	documents DocumentStore
	completer Completer
	embed     Embedder
	cfg       Config
}

// New creates an ingestion service.
func New(
	feedbacks FeedbackStore,
	keywords KeywordStore,
	documents DocumentStore,
	completer Completer,
	embed Embedder,
	cfg Config,
) *Service {
	if cfg.ClassifyTemp <= 0 {
		cfg.ClassifyTemp = 0.2
	}
	if cfg.ResponseTemp <= 0 {
		cfg.ResponseTemp = 0.7
	}
	return &Service{
		feedbacks: feedbacks,
		keywords:  keywords,
		documents: documents,
		completer: completer,
		embed:     embed,
		cfg:       cfg,
	}
}

// Collect runs the full pipeline for one feedback submission.
//
// Classification, advisory generation, and persistence are mandatory: a
// failure in any of them aborts with an error. The enrichment steps that
// follow (keyword counters, embedding, indexing) are best-effort: their
// failures are logged and counted but the stored record is still returned,
// so a flaky model provider never loses customer feedback.
func (s *Service) Collect(ctx context.Context, req Request) (domain.Feedback, error) {
	fb, err := s.collect(ctx, req)
	if err != nil {
		metrics.FeedbackIngestedTotal.WithLabelValues(string(domain.SentimentUnclassified), "error").Inc()
		return domain.Feedback{}, err
	}
	metrics.FeedbackIngestedTotal.WithLabelValues(string(fb.Sentiment), "ok").Inc()
	return fb, nil
}

func (s *Service) collect(ctx context.Context, req Request) (domain.Feedback, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.TenantID) == "" {
		return domain.Feedback{}, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return domain.Feedback{}, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	raw, err := s.completer.Complete(ctx, classifyPrompt(req.Description), s.cfg.ClassifyTemp)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("classify sentiment: %w", err)
	}
	sentiment := domain.NormalizeSentiment(raw)
	if sentiment == domain.SentimentUnclassified {
		log.Warn("sentiment output outside label set",
			zap.String("raw", raw))
	}

	advisory, err := s.completer.Complete(ctx, advisoryPrompt(req.Description), s.cfg.ResponseTemp)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("generate advisory: %w", err)
	}

	fb := domain.Feedback{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		Rate:        req.Rate,
		Description: req.Description,
		Sentiment:   sentiment,
		AIResponse:  strings.TrimSpace(advisory),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.feedbacks.Create(ctx, &fb); err != nil {
		return domain.Feedback{}, fmt.Errorf("store feedback: %w", err)
	}

	// Enrichment from here on. The record is already durable.
	if counts := domain.ExtractKeywords(req.Description); len(counts) > 0 {
		if err := s.keywords.IncrementAll(ctx, req.TenantID, counts); err != nil {
			log.Warn("keyword counters not updated",
				zap.String("feedback_id", fb.ID), zap.Error(err))
		}
	}

	if err := s.index(ctx, fb); err != nil {
		metrics.IngestIndexingFailuresTotal.Inc()
		log.Warn("feedback not indexed for search",
			zap.String("feedback_id", fb.ID), zap.Error(err))
	}

	return fb, nil
}

func (s *Service) index(ctx context.Context, fb domain.Feedback) error {
	embResult, err := s.embed.Embed(ctx, fb.Description)
	if err != nil {
		return fmt.Errorf("embed feedback: %w", err)
	}

	doc := domain.Document{
		ID:       domain.FeedbackDocID(fb.ID),
		TenantID: fb.TenantID,
		Content:  fb.Description,
		Meta: domain.Meta{
			Type:       domain.DocTypeFeedback,
			Sentiment:  fb.Sentiment,
			FeedbackID: fb.ID,
			TenantID:   fb.TenantID,
		},
		Embedding: embResult.Embedding,
		CreatedAt: fb.CreatedAt,
		UpdatedAt: fb.CreatedAt,
	}
	if err := s.documents.Upsert(ctx, &doc); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}
