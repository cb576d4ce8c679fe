package ingest

import (
	"context"

	"github.com/feedloop-io/feedloop/internal/domain"
)

// FeedbackStore persists feedback records.
type FeedbackStore interface {
	Create(ctx context.Context, fb *domain.Feedback) error
}

// KeywordStore accumulates per-tenant keyword counters.
type KeywordStore interface {
	IncrementAll(ctx context.Context, tenantID string, counts map[string]int64) error
}

// DocumentStore writes documents to the search index.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *domain.Document) error
}

// Completer produces one-shot completions (classification, advisory).
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Embedder vectorizes feedback text for indexing.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
