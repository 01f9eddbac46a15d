package chromem_test

import (
	"context"
	"errors"
	"testing"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/embedder/mock"
	"github.com/feb-co/mem0-avater/store"
	"github.com/feb-co/mem0-avater/store/chromem"
)

func seed(t *testing.T, s *chromem.Store, id, data, userID string) {
	t.Helper()
	emb := mock.New()
	vec, err := emb.Embed(context.Background(), data)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	payload := map[string]interface{}{"data": data, "user_id": userID}
	if err := s.Insert(context.Background(), [][]float32{vec}, []string{id}, []map[string]interface{}{payload}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestInsertGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	seed(t, s, "m1", "likes tennis", "alice")

	rec, err := s.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Data() != "likes tennis" {
		t.Errorf("Data = %q, want %q", rec.Data(), "likes tennis")
	}

	if err := s.Delete(ctx, "m1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "m1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}

	// The collection and the index must agree: a deleted record is
	// neither gettable nor searchable.
	emb := mock.New()
	query, _ := emb.Embed(ctx, "likes tennis")
	records, err := s.Search(ctx, query, 5, core.Filters{"user_id": "alice"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, rec := range records {
		if rec.ID == "m1" {
			t.Errorf("Deleted record still searchable")
		}
	}

	if err := s.Delete(ctx, "m1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSearchRespectsOwnerFilter(t *testing.T) {
	ctx := context.Background()
	s, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	seed(t, s, "m1", "likes tennis", "alice")
	seed(t, s, "m2", "likes chess", "bob")

	emb := mock.New()
	query, _ := emb.Embed(ctx, "likes tennis")
	records, err := s.Search(ctx, query, 5, core.Filters{"user_id": "alice"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, rec := range records {
		if rec.Payload["user_id"] != "alice" {
			t.Errorf("Search leaked record from owner %v", rec.Payload["user_id"])
		}
	}
	if len(records) == 0 {
		t.Errorf("Expected the identical seeded record to be found")
	}
}

func TestSearchLimitLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	s, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	seed(t, s, "m1", "likes tennis", "alice")

	emb := mock.New()
	query, _ := emb.Embed(ctx, "likes tennis")
	// Asking for more results than documents must not error.
	records, err := s.Search(ctx, query, 50, core.Filters{"user_id": "alice"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

func TestUpdateReplacesPayload(t *testing.T) {
	ctx := context.Background()
	s, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	seed(t, s, "m1", "likes tennis", "alice")

	emb := mock.New()
	vec, _ := emb.Embed(ctx, "likes padel")
	payload := map[string]interface{}{"data": "likes padel", "user_id": "alice"}
	if err := s.Update(ctx, "m1", vec, payload); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	rec, err := s.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Data() != "likes padel" {
		t.Errorf("Data = %q, want %q", rec.Data(), "likes padel")
	}

	if err := s.Update(ctx, "missing", vec, payload); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update of missing id: err = %v, want ErrNotFound", err)
	}
}

func TestListAndDeleteCollection(t *testing.T) {
	ctx := context.Background()
	s, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	seed(t, s, "m1", "likes tennis", "alice")
	seed(t, s, "m2", "likes chess", "alice")
	seed(t, s, "m3", "likes go", "bob")

	records, err := s.List(ctx, core.Filters{"user_id": "alice"}, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records for alice, got %d", len(records))
	}

	if err := s.DeleteCollection(ctx); err != nil {
		t.Fatalf("DeleteCollection failed: %v", err)
	}
	records, err = s.List(ctx, core.Filters{"user_id": "alice"}, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty store after DeleteCollection, got %d", len(records))
	}
}
