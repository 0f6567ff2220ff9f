package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cageledger/internal/store"
)

func TestDocumentLifecycle(t *testing.T) {
	databaseURL := os.Getenv("CAGELEDGER_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set CAGELEDGER_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	collection := fmt.Sprintf("it_records_%d", stamp)
	customerID := fmt.Sprintf("cust-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1`, collection)
	})

	first, err := s.Insert(ctx, collection, store.Fields{
		"customerId": customerID,
		"date":       "2026-03-01",
		"remaining":  120.5,
	})
	if err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if _, err := s.Insert(ctx, collection, store.Fields{
		"customerId": customerID,
		"date":       "2026-03-04",
		"remaining":  40.0,
	}); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if _, err := s.Insert(ctx, collection, store.Fields{
		"customerId": "someone-else",
		"date":       "2026-03-01",
		"remaining":  999.0,
	}); err != nil {
		t.Fatalf("insert other customer: %v", err)
	}

	got, err := s.Get(ctx, collection, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fields.String("date") != "2026-03-01" {
		t.Fatalf("expected date 2026-03-01, got %q", got.Fields.String("date"))
	}
	if got.Fields.Float("remaining") != 120.5 {
		t.Fatalf("expected remaining 120.5, got %v", got.Fields.Float("remaining"))
	}

	earlier, err := s.Query(ctx, collection, store.Query{
		Equal: map[string]any{"customerId": customerID},
		Less:  map[string]any{"date": "2026-03-04"},
	})
	if err != nil {
		t.Fatalf("query earlier: %v", err)
	}
	if len(earlier) != 1 || earlier[0].ID != first.ID {
		t.Fatalf("expected only the first document before 2026-03-04, got %d", len(earlier))
	}

	updated, err := s.Update(ctx, collection, first.ID, store.Fields{"remaining": 0.0, "paid": 120.5})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Fields.Float("remaining") != 0 {
		t.Fatalf("expected remaining 0 after update, got %v", updated.Fields.Float("remaining"))
	}
	if updated.Fields.String("date") != "2026-03-01" {
		t.Fatalf("update must merge fields, date was lost")
	}

	all, err := s.Query(ctx, collection, store.Query{Descending: true})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("expected descending createdAt order")
		}
	}

	if err := s.Delete(ctx, collection, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, collection, first.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, collection, first.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
