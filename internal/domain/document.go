package domain

import (
	"fmt"
	"time"
)

// DocTypeFeedback is the document kind produced by the ingestion pipeline.
const DocTypeFeedback = "feedback"

// Meta is the closed metadata variant carried by every indexed document,
// with Extra as the escape hatch for truly unstructured fields.
type Meta struct {
	Type       string            `json:"type"`
	Sentiment  Sentiment         `json:"sentiment,omitempty"`
	FeedbackID string            `json:"feedbackId,omitempty"`
	TenantID   string            `json:"teamId,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Document is the unit of retrieval stored in the feedback index.
type Document struct {
	ID        string
	TenantID  string // empty only for a shared corpus
	Content   string
	Meta      Meta
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FeedbackDocID derives the index document ID for a feedback record.
func FeedbackDocID(feedbackID string) string {
	return "feedback_" + feedbackID
}

// Validate checks the document against the index dimension before any write.
func (d *Document) Validate(dim int) error {
	if d.ID == "" {
		return fmt.Errorf("document ID is required: %w", ErrValidation)
	}
	if d.Content == "" {
		return fmt.Errorf("document content is required: %w", ErrValidation)
	}
	if len(d.Embedding) != dim {
		return fmt.Errorf("embedding has %d dimensions, index expects %d: %w",
			len(d.Embedding), dim, ErrVectorDimMismatch)
	}
	return nil
}

// SearchHit is a retrieved document annotated with its blended relevance score.
type SearchHit struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"teamId,omitempty"`
	Content   string    `json:"content"`
	Meta      Meta      `json:"metadata"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
