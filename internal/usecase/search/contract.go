package search

import (
	"context"

	"github.com/feedloop-io/feedloop/internal/domain"
)

// Repository defines the storage contract for hybrid retrieval.
type Repository interface {
	SearchKNN(
		ctx context.Context, vector []float32, tenantID string, k, efRuntime int,
	) ([]domain.SearchHit, error)

	SearchBM25(
		ctx context.Context, query, tenantID string, topK int,
	) ([]domain.SearchHit, error)
}

// IndexManager guarantees the search index exists before querying it.
type IndexManager interface {
	EnsureIndex(ctx context.Context) error
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
