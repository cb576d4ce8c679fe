package domain

import "time"

// Feedback is a collected feedback record (the relational-store side of an ingestion).
type Feedback struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"teamId"`
	Rate        int       `json:"rate"`
	Description string    `json:"description"`
	Sentiment   Sentiment `json:"sentiment"`
	AIResponse  string    `json:"aiResponse"`
	CreatedAt   time.Time `json:"createdAt"`
}

// KeywordCount is one entry of a tenant's keyword frequency aggregate.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Total   int64  `json:"total"`
}
