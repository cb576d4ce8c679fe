package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feedloop-io/feedloop/internal/db"
	"github.com/feedloop-io/feedloop/internal/domain"
)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:       domain.FeedbackDocID("fb-1"),
		TenantID: "team-1",
		Content:  "great service",
		Meta: domain.Meta{
			Type:       domain.DocTypeFeedback,
			Sentiment:  domain.SentimentPositive,
			FeedbackID: "fb-1",
			TenantID:   "team-1",
		},
		Embedding: []float32{0.1, 0.2, 0.3},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEnsureIndex(t *testing.T) {
	t.Run("creates when absent", func(t *testing.T) {
		created := false
		store := &mockStore{
			createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
				created = true
				if def.Name != "feedloop:feedback:idx" {
					t.Errorf("index name = %q", def.Name)
				}
				if len(def.Prefixes) != 1 || def.Prefixes[0] != "feedloop:feedback:" {
					t.Errorf("prefixes = %v", def.Prefixes)
				}
				return nil
			},
		}
		if err := newTestRepo(store).EnsureIndex(context.Background()); err != nil {
			t.Fatalf("EnsureIndex: %v", err)
		}
		if !created {
			t.Error("index was not created")
		}
	})

	t.Run("skips when present", func(t *testing.T) {
		store := &mockStore{
			indexExistsFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
			createIndexFn: func(_ context.Context, _ *db.IndexDefinition) error {
				t.Error("create must not run when the index exists")
				return nil
			},
		}
		if err := newTestRepo(store).EnsureIndex(context.Background()); err != nil {
			t.Fatalf("EnsureIndex: %v", err)
		}
	})

	t.Run("losing the create race is success", func(t *testing.T) {
		store := &mockStore{
			createIndexFn: func(_ context.Context, _ *db.IndexDefinition) error {
				return db.ErrIndexExists
			},
		}
		if err := newTestRepo(store).EnsureIndex(context.Background()); err != nil {
			t.Fatalf("EnsureIndex: %v", err)
		}
	})

	t.Run("probes only once", func(t *testing.T) {
		probes := 0
		store := &mockStore{
			indexExistsFn: func(_ context.Context, _ string) (bool, error) {
				probes++
				return true, nil
			},
		}
		repo := newTestRepo(store)
		ctx := context.Background()
		if err := repo.EnsureIndex(ctx); err != nil {
			t.Fatalf("EnsureIndex: %v", err)
		}
		if err := repo.EnsureIndex(ctx); err != nil {
			t.Fatalf("EnsureIndex: %v", err)
		}
		if probes != 1 {
			t.Errorf("probes = %d, want 1", probes)
		}
	})

	t.Run("backend error is wrapped", func(t *testing.T) {
		store := &mockStore{
			indexExistsFn: func(_ context.Context, _ string) (bool, error) {
				return false, errors.New("refused")
			},
		}
		err := newTestRepo(store).EnsureIndex(context.Background())
		if !errors.Is(err, domain.ErrSearchBackend) {
			t.Fatalf("expected ErrSearchBackend, got %v", err)
		}
	})
}

func TestIndexSchema(t *testing.T) {
	def := newTestRepo(&mockStore{}).indexDefinition()

	byName := make(map[string]db.IndexField, len(def.Fields))
	for _, f := range def.Fields {
		byName[f.Name] = f
	}

	if f := byName[FieldTenant]; f.Type != db.IndexFieldTag {
		t.Errorf("tenant field type = %q, want tag", f.Type)
	}
	if f := byName[FieldContent]; f.Type != db.IndexFieldText || f.TextWeight != 2 {
		t.Errorf("content field = %+v, want text weight 2", f)
	}
	vec := byName[FieldEmbedding]
	if vec.Type != db.IndexFieldVector || vec.VectorAlgo != db.VectorHNSW {
		t.Errorf("embedding field = %+v", vec)
	}
	if vec.VectorDim != testDim || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("vector dim/distance = %d/%q", vec.VectorDim, vec.VectorDistance)
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	stored := map[string]map[string]string{}
	store := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			stored[key] = fields
			return nil
		},
		hgetAllFn: func(_ context.Context, key string) (map[string]string, error) {
			return stored[key], nil
		},
	}
	repo := newTestRepo(store)
	ctx := context.Background()

	doc := testDocument()
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.ID != doc.ID || got.TenantID != doc.TenantID || got.Content != doc.Content {
		t.Errorf("hydrated doc = %+v", got)
	}
	if got.Meta.Sentiment != domain.SentimentPositive || got.Meta.FeedbackID != "fb-1" {
		t.Errorf("hydrated meta = %+v", got.Meta)
	}
	if len(got.Embedding) != testDim || got.Embedding[1] != 0.2 {
		t.Errorf("hydrated embedding = %v", got.Embedding)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, doc.CreatedAt)
	}
}

func TestUpsert_DimensionGuard(t *testing.T) {
	store := &mockStore{
		hsetFn: func(_ context.Context, _ string, _ map[string]string) error {
			t.Error("nothing must reach the backend on a dimension mismatch")
			return nil
		},
	}
	doc := testDocument()
	doc.Embedding = []float32{0.1}

	err := newTestRepo(store).Upsert(context.Background(), doc)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := newTestRepo(&mockStore{}).Get(context.Background(), "feedback_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteByTenant(t *testing.T) {
	t.Run("pages through and deletes", func(t *testing.T) {
		pages := [][]db.SearchEntry{
			{{Key: "feedloop:feedback:feedback_1"}, {Key: "feedloop:feedback:feedback_2"}},
			{},
		}
		var deleted []string
		call := 0
		store := &mockStore{
			searchListFn: func(_ context.Context, _, query string, _, _ int, _ []string) (*db.SearchResult, error) {
				if query != "@tenant_id:{team\\-1}" {
					t.Errorf("tenant query = %q", query)
				}
				res := &db.SearchResult{Entries: pages[call]}
				if call < len(pages)-1 {
					call++
				}
				return res, nil
			},
			delMultiFn: func(_ context.Context, keys []string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}

		n, err := newTestRepo(store).DeleteByTenant(context.Background(), "team-1")
		if err != nil {
			t.Fatalf("DeleteByTenant: %v", err)
		}
		if n != 2 || len(deleted) != 2 {
			t.Errorf("deleted %d keys (%v), want 2", n, deleted)
		}
	})

	t.Run("missing tenant rejected", func(t *testing.T) {
		_, err := newTestRepo(&mockStore{}).DeleteByTenant(context.Background(), "")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestCountByTenant(t *testing.T) {
	store := &mockStore{
		searchCountFn: func(_ context.Context, _, query string) (int, error) {
			if query != "@tenant_id:{team\\-1}" {
				t.Errorf("tenant query = %q", query)
			}
			return 7, nil
		},
	}
	n, err := newTestRepo(store).CountByTenant(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("CountByTenant: %v", err)
	}
	if n != 7 {
		t.Errorf("count = %d, want 7", n)
	}
}
