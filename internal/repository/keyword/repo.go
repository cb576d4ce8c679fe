// Package keyword maintains per-tenant keyword frequency counters for the
// dashboard tag cloud. Counters live in one hash per tenant and are bumped
// with atomic increment-or-insert, so concurrent ingestions never under-count.
package keyword

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/feedloop-io/feedloop/internal/db"
	"github.com/feedloop-io/feedloop/internal/domain"
)

// store is the consumer interface for keyword counters (ISP).
type store interface {
	HIncrByMulti(ctx context.Context, key string, incs []db.CounterIncrement) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// Repo implements the keyword counter store.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a keyword repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

func (r *Repo) key(tenantID string) string {
	return r.keyPrefix + "kw:" + tenantID
}

// IncrementAll applies one ingestion's keyword counts in a single pipelined
// batch of atomic increments.
func (r *Repo) IncrementAll(ctx context.Context, tenantID string, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	incs := make([]db.CounterIncrement, 0, len(counts))
	for kw, n := range counts {
		incs = append(incs, db.CounterIncrement{Field: kw, By: n})
	}

	if err := r.store.HIncrByMulti(ctx, r.key(tenantID), incs); err != nil {
		return fmt.Errorf("increment keywords %s: %w", tenantID, err)
	}
	return nil
}

// Top returns the tenant's highest-frequency keywords, descending.
func (r *Repo) Top(ctx context.Context, tenantID string, limit int) ([]domain.KeywordCount, error) {
	m, err := r.store.HGetAll(ctx, r.key(tenantID))
	if err != nil {
		return nil, fmt.Errorf("load keywords %s: %w", tenantID, err)
	}
	if len(m) == 0 {
		return nil, nil
	}

	counts := make([]domain.KeywordCount, 0, len(m))
	for kw, raw := range m {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counts = append(counts, domain.KeywordCount{Keyword: kw, Total: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Total != counts[j].Total {
			return counts[i].Total > counts[j].Total
		}
		return counts[i].Keyword < counts[j].Keyword
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// DeleteTenant drops all counters of one tenant (offboarding).
func (r *Repo) DeleteTenant(ctx context.Context, tenantID string) error {
	if err := r.store.Del(ctx, r.key(tenantID)); err != nil {
		return fmt.Errorf("delete keywords %s: %w", tenantID, err)
	}
	return nil
}
