// Package index owns the feedback document index: schema, lifecycle and
// document writes against the search backend.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/feedloop-io/feedloop/internal/db"
	"github.com/feedloop-io/feedloop/internal/domain"
)

// Hash field names of an indexed document.
const (
	FieldTenant    = "tenant_id"
	FieldContent   = "content"
	FieldSentiment = "sentiment"
	FieldType      = "doc_type"
	FieldMeta      = "meta"
	FieldEmbedding = "embedding"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// store is the consumer interface for index lifecycle and document writes (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string) error
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig holds HNSW index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo is the Document Index Store: one logical index of feedback documents,
// created lazily on first use.
type Repo struct {
	store     store
	keyPrefix string
	name      string
	dim       int
	hnsw      HNSWConfig
	ready     atomic.Bool
}

// New creates an index repository. dim fixes the embedding dimensionality for
// every document in the index.
func New(s store, keyPrefix, name string, dim int) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix,
		name:      name,
		dim:       dim,
		hnsw:      HNSWConfig{M: 32, EFConstruct: 400},
	}
}

// WithHNSW configures HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Dimensions returns the fixed embedding dimensionality of the index.
func (r *Repo) Dimensions() int { return r.dim }

// IndexName returns the FT index name.
func (r *Repo) IndexName() string {
	return r.keyPrefix + r.name + ":idx"
}

// DocKey returns the hash key for a document ID.
func (r *Repo) DocKey(id string) string {
	return r.keyPrefix + r.name + ":" + id
}

// EnsureIndex creates the index if absent. Safe to call repeatedly and safe
// under concurrent first-callers: a losing FT.CREATE race is success.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}

	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("probe index %s: %w: %w", r.IndexName(), domain.ErrSearchBackend, err)
	}
	if exists {
		r.ready.Store(true)
		return nil
	}

	def := r.indexDefinition()
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			// Concurrent creator won the race.
			r.ready.Store(true)
			return nil
		}
		return fmt.Errorf("create index %s: %w: %w", r.IndexName(), domain.ErrSearchBackend, err)
	}

	r.ready.Store(true)
	return nil
}

// indexDefinition declares the document schema: exact-match tenant key,
// analyzed content (weight 2) and lexical metadata fields (weight 1), a
// cosine HNSW vector of the fixed dimension, and timestamp numerics.
func (r *Repo) indexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     r.IndexName(),
		Prefixes: []string{r.keyPrefix + r.name + ":"},
		Fields: []db.IndexField{
			{Name: FieldTenant, Type: db.IndexFieldTag},
			{Name: FieldContent, Type: db.IndexFieldText, TextWeight: 2},
			{Name: FieldSentiment, Type: db.IndexFieldText},
			{Name: FieldType, Type: db.IndexFieldText},
			{
				Name:              FieldEmbedding,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
			{Name: FieldCreatedAt, Type: db.IndexFieldNumeric},
			{Name: FieldUpdatedAt, Type: db.IndexFieldNumeric},
		},
	}
}

// Upsert writes or overwrites a document by ID. The dimension check runs
// before anything reaches the backend. The engine indexes HSET writes
// synchronously, so the document is visible to reads when Upsert returns.
func (r *Repo) Upsert(ctx context.Context, doc *domain.Document) error {
	if err := doc.Validate(r.dim); err != nil {
		return err
	}
	if err := r.EnsureIndex(ctx); err != nil {
		return err
	}

	fields, err := docToHash(doc)
	if err != nil {
		return err
	}

	if err := r.store.HSet(ctx, r.DocKey(doc.ID), fields); err != nil {
		return fmt.Errorf("hset %s: %w: %w", doc.ID, domain.ErrSearchBackend, err)
	}
	return nil
}

// Get returns a document by ID, or domain.ErrNotFound for absence.
func (r *Repo) Get(ctx context.Context, id string) (domain.Document, error) {
	m, err := r.store.HGetAll(ctx, r.DocKey(id))
	if err != nil {
		return domain.Document{}, fmt.Errorf("hgetall %s: %w: %w", id, domain.ErrSearchBackend, err)
	}
	if len(m) == 0 {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return docFromHash(id, m), nil
}

// DeleteByID removes one document. Deleting an absent ID is success.
func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.DocKey(id)); err != nil {
		return fmt.Errorf("del %s: %w: %w", id, domain.ErrSearchBackend, err)
	}
	return nil
}

// deleteByTenantPage bounds each delete-by-tenant search round-trip.
const deleteByTenantPage = 500

// DeleteByTenant removes every document of one tenant (offboarding).
// Documents of other tenants are untouched: the tenant TAG filter scopes
// the key listing.
func (r *Repo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant id is required: %w", domain.ErrValidation)
	}
	if err := r.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	query := tenantQuery(tenantID)
	deleted := 0

	for {
		res, err := r.store.SearchList(ctx, r.IndexName(), query, 0, deleteByTenantPage, []string{FieldTenant})
		if err != nil {
			return deleted, fmt.Errorf("list tenant %s: %w: %w", tenantID, domain.ErrSearchBackend, err)
		}
		if res == nil || len(res.Entries) == 0 {
			return deleted, nil
		}

		keys := make([]string, 0, len(res.Entries))
		for _, e := range res.Entries {
			keys = append(keys, e.Key)
		}
		if err := r.store.DelMulti(ctx, keys); err != nil {
			return deleted, fmt.Errorf("delete tenant %s: %w: %w", tenantID, domain.ErrSearchBackend, err)
		}
		deleted += len(keys)

		if len(res.Entries) < deleteByTenantPage {
			return deleted, nil
		}
	}
}

// CountByTenant returns the number of indexed documents for a tenant.
func (r *Repo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	if err := r.EnsureIndex(ctx); err != nil {
		return 0, err
	}
	n, err := r.store.SearchCount(ctx, r.IndexName(), tenantQuery(tenantID))
	if err != nil {
		return 0, fmt.Errorf("count tenant %s: %w: %w", tenantID, domain.ErrSearchBackend, err)
	}
	return n, nil
}

// tenantQuery renders the hard tenant filter used for listing and counting.
func tenantQuery(tenantID string) string {
	return "@" + FieldTenant + ":{" + db.EscapeTag(tenantID) + "}"
}

// docToHash flattens a document into hash fields. Meta keeps its open map
// shape as a JSON blob; the lexical fields are duplicated flat so the engine
// can analyze them.
func docToHash(doc *domain.Document) (map[string]string, error) {
	metaJSON, err := json.Marshal(doc.Meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	now := time.Now().UTC()
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return map[string]string{
		FieldTenant:    doc.TenantID,
		FieldContent:   doc.Content,
		FieldSentiment: string(doc.Meta.Sentiment),
		FieldType:      doc.Meta.Type,
		FieldMeta:      string(metaJSON),
		FieldEmbedding: db.VectorToBytes(doc.Embedding),
		FieldCreatedAt: strconv.FormatInt(createdAt.UnixMilli(), 10),
		FieldUpdatedAt: strconv.FormatInt(updatedAt.UnixMilli(), 10),
	}, nil
}

// docFromHash rebuilds a document from hash fields (storage hydration).
func docFromHash(id string, m map[string]string) domain.Document {
	doc := domain.Document{
		ID:        id,
		TenantID:  m[FieldTenant],
		Content:   m[FieldContent],
		Embedding: db.VectorFromBytes(m[FieldEmbedding]),
	}

	if raw := m[FieldMeta]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &doc.Meta)
	}
	if doc.Meta.Sentiment == "" {
		doc.Meta.Sentiment = domain.Sentiment(m[FieldSentiment])
	}
	if doc.Meta.Type == "" {
		doc.Meta.Type = m[FieldType]
	}

	doc.CreatedAt = parseMillis(m[FieldCreatedAt])
	doc.UpdatedAt = parseMillis(m[FieldUpdatedAt])
	return doc
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
