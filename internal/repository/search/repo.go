// Package search executes lexical and vector queries against the feedback index.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feedloop-io/feedloop/internal/db"
	"github.com/feedloop-io/feedloop/internal/domain"
	"github.com/feedloop-io/feedloop/internal/repository/index"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store     store
	keyPrefix string
	name      string
}

// New creates a search repository over the same index the index repo owns.
func New(s store, keyPrefix, name string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, name: name}
}

func (r *Repo) indexName() string {
	return r.keyPrefix + r.name + ":idx"
}

func (r *Repo) keyPrefixFull() string {
	return r.keyPrefix + r.name + ":"
}

// returnFields are the document fields hydrated into each hit.
var returnFields = []string{
	index.FieldTenant,
	index.FieldContent,
	index.FieldMeta,
	index.FieldCreatedAt,
	index.FieldUpdatedAt,
}

// lexicalFields are the analyzed TEXT fields the lexical branch matches over.
// content carries schema weight 2, the metadata text fields weight 1.
var lexicalFields = []string{
	index.FieldContent,
	index.FieldSentiment,
	index.FieldType,
}

// SearchKNN performs the vector branch: k nearest neighbors from a candidate
// pool of efRuntime, hard-filtered by tenant.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, tenantID string, k, efRuntime int,
) ([]domain.SearchHit, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Tenant:       tenantID,
		TenantField:  index.FieldTenant,
		VectorField:  index.FieldEmbedding,
		Vector:       vector,
		K:            k,
		EFRuntime:    efRuntime,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w: %w", domain.ErrSearchBackend, err)
	}

	return r.parseHits(sr), nil
}

// SearchBM25 performs the lexical branch: weighted full-text match over the
// TEXT fields, hard-filtered by tenant.
func (r *Repo) SearchBM25(
	ctx context.Context, query, tenantID string, topK int,
) ([]domain.SearchHit, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName(),
		Query:        query,
		Tenant:       tenantID,
		TenantField:  index.FieldTenant,
		TextFields:   lexicalFields,
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w: %w", domain.ErrSearchBackend, err)
	}

	return r.parseHits(sr), nil
}

func (r *Repo) parseHits(sr *db.SearchResult) []domain.SearchHit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]domain.SearchHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hit := domain.SearchHit{
			ID:       strings.TrimPrefix(entry.Key, r.keyPrefixFull()),
			TenantID: entry.Fields[index.FieldTenant],
			Content:  entry.Fields[index.FieldContent],
			Score:    entry.Score,
		}
		if raw := entry.Fields[index.FieldMeta]; raw != "" {
			_ = json.Unmarshal([]byte(raw), &hit.Meta)
		}
		hit.CreatedAt = parseMillis(entry.Fields[index.FieldCreatedAt])
		hit.UpdatedAt = parseMillis(entry.Fields[index.FieldUpdatedAt])
		hits = append(hits, hit)
	}
	return hits
}

func parseMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
