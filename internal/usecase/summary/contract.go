package summary

import (
	"context"

	"github.com/feedloop-io/feedloop/internal/domain"
)

// FeedbackLister reads recent feedback records.
type FeedbackLister interface {
	ListRecent(ctx context.Context, tenantID string, sentiment domain.Sentiment, limit int) ([]domain.Feedback, error)
}

// Completer produces the summary completion.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}
