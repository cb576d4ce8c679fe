// Package feedback stores collected feedback records keyed by tenant.
//
// In a full deployment this sits in front of the relational store; the
// ingestion and summary pipelines only see the usecase-level contracts, so a
// SQL-backed implementation drops in without touching them.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/feedloop-io/feedloop/internal/domain"
)

// Hash field names of a feedback record.
const (
	fieldTenant      = "tenant_id"
	fieldRate        = "rate"
	fieldDescription = "description"
	fieldSentiment   = "sentiment"
	fieldAIResponse  = "ai_response"
	fieldCreatedAt   = "created_at"
)

// store is the consumer interface for feedback records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the feedback record store.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a feedback repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

func (r *Repo) key(tenantID, id string) string {
	return r.keyPrefix + "fb:" + tenantID + ":" + id
}

// Create persists a feedback record.
func (r *Repo) Create(ctx context.Context, fb *domain.Feedback) error {
	fields := map[string]string{
		fieldTenant:      fb.TenantID,
		fieldRate:        strconv.Itoa(fb.Rate),
		fieldDescription: fb.Description,
		fieldSentiment:   string(fb.Sentiment),
		fieldAIResponse:  fb.AIResponse,
		fieldCreatedAt:   strconv.FormatInt(fb.CreatedAt.UnixMilli(), 10),
	}
	if err := r.store.HSet(ctx, r.key(fb.TenantID, fb.ID), fields); err != nil {
		return fmt.Errorf("store feedback %s: %w", fb.ID, err)
	}
	return nil
}

// Get returns one feedback record, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, tenantID, id string) (domain.Feedback, error) {
	m, err := r.store.HGetAll(ctx, r.key(tenantID, id))
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("get feedback %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Feedback{}, fmt.Errorf("feedback %s: %w", id, domain.ErrNotFound)
	}
	return fromHash(id, m), nil
}

// Delete removes one feedback record. Absent records are success.
func (r *Repo) Delete(ctx context.Context, tenantID, id string) error {
	if err := r.store.Del(ctx, r.key(tenantID, id)); err != nil {
		return fmt.Errorf("delete feedback %s: %w", id, err)
	}
	return nil
}

// ListRecent returns up to limit records of one tenant, newest first,
// optionally filtered by sentiment.
func (r *Repo) ListRecent(
	ctx context.Context, tenantID string, sentiment domain.Sentiment, limit int,
) ([]domain.Feedback, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"fb:"+tenantID+":*")
	if err != nil {
		return nil, fmt.Errorf("scan feedback %s: %w", tenantID, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load feedback %s: %w", tenantID, err)
	}

	records := make([]domain.Feedback, 0, len(maps))
	idPrefix := r.keyPrefix + "fb:" + tenantID + ":"
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		fb := fromHash(keys[i][len(idPrefix):], m)
		if sentiment != "" && fb.Sentiment != sentiment {
			continue
		}
		records = append(records, fb)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func fromHash(id string, m map[string]string) domain.Feedback {
	rate, _ := strconv.Atoi(m[fieldRate])
	fb := domain.Feedback{
		ID:          id,
		TenantID:    m[fieldTenant],
		Rate:        rate,
		Description: m[fieldDescription],
		Sentiment:   domain.Sentiment(m[fieldSentiment]),
		AIResponse:  m[fieldAIResponse],
	}
	if ms, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64); err == nil {
		fb.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return fb
}
