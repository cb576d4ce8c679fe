package keyword

import (
	"context"
	"errors"
	"testing"

	"github.com/feedloop-io/feedloop/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hincrByMultiFn func(ctx context.Context, key string, incs []db.CounterIncrement) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	delFn          func(ctx context.Context, key string) error
}

func (m *mockStore) HIncrByMulti(ctx context.Context, key string, incs []db.CounterIncrement) error {
	if m.hincrByMultiFn != nil {
		return m.hincrByMultiFn(ctx, key, incs)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func TestIncrementAll(t *testing.T) {
	t.Run("batches all counters on the tenant key", func(t *testing.T) {
		var gotKey string
		var gotIncs []db.CounterIncrement
		store := &mockStore{
			hincrByMultiFn: func(_ context.Context, key string, incs []db.CounterIncrement) error {
				gotKey = key
				gotIncs = incs
				return nil
			},
		}

		err := New(store, "feedloop:").IncrementAll(context.Background(), "team-1", map[string]int64{
			"great": 2,
			"staff": 1,
		})
		if err != nil {
			t.Fatalf("IncrementAll: %v", err)
		}
		if gotKey != "feedloop:kw:team-1" {
			t.Errorf("key = %q", gotKey)
		}
		if len(gotIncs) != 2 {
			t.Fatalf("increments = %v", gotIncs)
		}
		byField := map[string]int64{}
		for _, inc := range gotIncs {
			byField[inc.Field] = inc.By
		}
		if byField["great"] != 2 || byField["staff"] != 1 {
			t.Errorf("increments = %v", byField)
		}
	})

	t.Run("no counts is a no-op", func(t *testing.T) {
		store := &mockStore{
			hincrByMultiFn: func(_ context.Context, _ string, _ []db.CounterIncrement) error {
				t.Error("store must not be touched for empty counts")
				return nil
			},
		}
		if err := New(store, "feedloop:").IncrementAll(context.Background(), "team-1", nil); err != nil {
			t.Fatalf("IncrementAll: %v", err)
		}
	})
}

func TestTop(t *testing.T) {
	store := &mockStore{
		hgetAllFn: func(_ context.Context, _ string) (map[string]string, error) {
			return map[string]string{
				"great":   "5",
				"staff":   "3",
				"slow":    "3",
				"ok":      "1",
				"corrupt": "x",
			}, nil
		},
	}

	counts, err := New(store, "feedloop:").Top(context.Background(), "team-1", 3)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("got %d entries, want 3", len(counts))
	}
	if counts[0].Keyword != "great" || counts[0].Total != 5 {
		t.Errorf("first = %+v", counts[0])
	}
	// Equal totals tie-break alphabetically for stable output.
	if counts[1].Keyword != "slow" || counts[2].Keyword != "staff" {
		t.Errorf("tie order = %q, %q", counts[1].Keyword, counts[2].Keyword)
	}
}

func TestTop_Empty(t *testing.T) {
	counts, err := New(&mockStore{}, "feedloop:").Top(context.Background(), "team-1", 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no entries, got %v", counts)
	}
}

func TestDeleteTenant(t *testing.T) {
	var gotKey string
	store := &mockStore{
		delFn: func(_ context.Context, key string) error {
			gotKey = key
			return nil
		},
	}
	if err := New(store, "feedloop:").DeleteTenant(context.Background(), "team-1"); err != nil {
		t.Fatalf("DeleteTenant: %v", err)
	}
	if gotKey != "feedloop:kw:team-1" {
		t.Errorf("key = %q", gotKey)
	}
}

func TestKeywordErrorsPropagate(t *testing.T) {
	backend := errors.New("down")
	store := &mockStore{
		hincrByMultiFn: func(_ context.Context, _ string, _ []db.CounterIncrement) error { return backend },
		hgetAllFn:      func(_ context.Context, _ string) (map[string]string, error) { return nil, backend },
		delFn:          func(_ context.Context, _ string) error { return backend },
	}
	repo := New(store, "feedloop:")
	ctx := context.Background()

	if err := repo.IncrementAll(ctx, "t", map[string]int64{"a": 1}); !errors.Is(err, backend) {
		t.Errorf("IncrementAll: %v", err)
	}
	if _, err := repo.Top(ctx, "t", 1); !errors.Is(err, backend) {
		t.Errorf("Top: %v", err)
	}
	if err := repo.DeleteTenant(ctx, "t"); !errors.Is(err, backend) {
		t.Errorf("DeleteTenant: %v", err)
	}
}
