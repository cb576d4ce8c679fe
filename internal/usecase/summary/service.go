// Package summary condenses a tenant's recent feedback into a short
// narrative for the dashboard.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedloop-io/feedloop/internal/domain"
)

const summaryTemplate = `The following is a list of feedback from customers for my business. Help me to create a summary in one to two sentences. And then give the conclusion of the summary:%s`

// Service summarizes recent feedback with a completion model.
type Service struct {
	feedbacks   FeedbackLister
	completer   Completer
	temperature float32
	sampleSize  int
}

// New creates a summary service. sampleSize is how many recent records feed
// the prompt.
func New(feedbacks FeedbackLister, completer Completer, temperature float32, sampleSize int) *Service {
	if temperature <= 0 {
		temperature = 0.5
	}
	if sampleSize <= 0 {
		sampleSize = 40
	}
	return &Service{
		feedbacks:   feedbacks,
		completer:   completer,
		temperature: temperature,
		sampleSize:  sampleSize,
	}
}

// Summarize builds a summary of the tenant's most recent feedback, optionally
// restricted to one sentiment. An empty sentiment (or "all") means no filter.
func (s *Service) Summarize(ctx context.Context, tenantID string, sentiment domain.Sentiment) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return "", fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}
	if sentiment == "all" {
		sentiment = ""
	}

	records, err := s.feedbacks.ListRecent(ctx, tenantID, sentiment, s.sampleSize)
	if err != nil {
		return "", fmt.Errorf("list feedback: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: no feedback to summarize", domain.ErrNotFound)
	}

	var b strings.Builder
	for _, fb := range records {
		b.WriteString("\n- ")
		b.WriteString(fb.Description)
	}

	out, err := s.completer.Complete(ctx, fmt.Sprintf(summaryTemplate, b.String()), s.temperature)
	if err != nil {
		return "", fmt.Errorf("summarize feedback: %w", err)
	}
	return strings.TrimSpace(out), nil
}
