// Package search implements tenant-scoped hybrid retrieval: semantic KNN and
// lexical BM25 run against the same index and are fused by weighted
// Reciprocal Rank Fusion.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedloop-io/feedloop/internal/domain"
	"github.com/feedloop-io/feedloop/internal/metrics"
)

// Request describes one hybrid search. Vector is optional: when absent the
// query text is embedded on the fly, when present (the chat path already
// embedded the message) the vectorization step is skipped.
type Request struct {
	TenantID string
	Query    string
	Vector   []float32
	Limit    int
}

// Service runs hybrid searches over a tenant's documents.
type Service struct {
	repo         Repository
	index        IndexManager
	embed        Embedder
	dimensions   int
	defaultLimit int
	maxLimit     int
}

// New creates a search service. defaultLimit applies when a request carries
// no limit, maxLimit caps what a caller may ask for.
func New(repo Repository, index IndexManager, embed Embedder, dimensions, defaultLimit, maxLimit int) *Service {
	return &Service{
		repo:         repo,
		index:        index,
		embed:        embed,
		dimensions:   dimensions,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Hybrid executes both retrieval branches and fuses their rankings.
// Results are strictly tenant-scoped: the tenant filter is part of both
// backend queries, not applied after the fact.
func (s *Service) Hybrid(ctx context.Context, req Request) ([]domain.SearchHit, error) {
	hits, err := s.hybrid(ctx, req)
	if err != nil {
		metrics.HybridSearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.HybridSearchesTotal.WithLabelValues("ok").Inc()
	return hits, nil
}

func (s *Service) hybrid(ctx context.Context, req Request) ([]domain.SearchHit, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Query) == "" && len(req.Vector) == 0 {
		return nil, fmt.Errorf("%w: query text or vector is required", domain.ErrValidation)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	vector := req.Vector
	if len(vector) == 0 {
		embResult, err := s.embed.Embed(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("vectorize query: %w", err)
		}
		vector = embResult.Embedding
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, index expects %d",
			domain.ErrVectorDimMismatch, len(vector), s.dimensions)
	}

	if err := s.index.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	// 2x candidate pool on the graph walk trades a little latency for recall.
	knnHits, err := s.repo.SearchKNN(ctx, vector, req.TenantID, limit, 2*limit)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	var bm25Hits []domain.SearchHit
	if strings.TrimSpace(req.Query) != "" {
		bm25Hits, err = s.repo.SearchBM25(ctx, req.Query, req.TenantID, limit)
		if err != nil {
			return nil, fmt.Errorf("search bm25: %w", err)
		}
	}

	return fuseRRF(knnHits, bm25Hits, limit), nil
}
