package storage_test

import (
	"context"
	"testing"

	"github.com/feb-co/mem0-avater/storage"
)

func newTestDB(t *testing.T) *storage.SQLiteManager {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strptr(s string) *string { return &s }

func TestHistoryLedger(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if err := db.AddHistory(ctx, "m1", nil, strptr("likes tennis"), "ADD", "t1", "t1", false); err != nil {
		t.Fatalf("AddHistory failed: %v", err)
	}
	if err := db.AddHistory(ctx, "m1", strptr("likes tennis"), strptr("likes padel"), "UPDATE", "t1", "t2", false); err != nil {
		t.Fatalf("AddHistory failed: %v", err)
	}
	if err := db.AddHistory(ctx, "m1", strptr("likes padel"), nil, "DELETE", "t1", "t3", true); err != nil {
		t.Fatalf("AddHistory failed: %v", err)
	}
	// A different memory's entry must not show up below.
	if err := db.AddHistory(ctx, "m2", nil, strptr("other"), "ADD", "t1", "t1", false); err != nil {
		t.Fatalf("AddHistory failed: %v", err)
	}

	entries, err := db.GetHistory(ctx, "m1")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Event != "ADD" || entries[1].Event != "UPDATE" || entries[2].Event != "DELETE" {
		t.Errorf("Wrong order: %v, %v, %v", entries[0].Event, entries[1].Event, entries[2].Event)
	}
	if entries[0].PrevValue != nil {
		t.Errorf("ADD prev_value should be nil")
	}
	last := entries[2]
	if last.NewValue != nil {
		t.Errorf("DELETE new_value should be nil, got %q", *last.NewValue)
	}
	if !last.IsDeleted {
		t.Errorf("DELETE entry should be flagged deleted")
	}
}

func TestProfileRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if _, found, err := db.GetProfile(ctx, "alice"); err != nil || found {
		t.Fatalf("Expected no row yet, found=%v err=%v", found, err)
	}

	if err := db.InsertProfile(ctx, "alice", `{"basic":{}}`, "t1"); err != nil {
		t.Fatalf("InsertProfile failed: %v", err)
	}
	raw, found, err := db.GetProfile(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("GetProfile after insert: found=%v err=%v", found, err)
	}
	if raw != `{"basic":{}}` {
		t.Errorf("Unexpected row: %q", raw)
	}

	if err := db.UpdateProfile(ctx, "alice", `{"basic":{"Name":{"value":"Alice"}}}`, "t2"); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	raw, _, _ = db.GetProfile(ctx, "alice")
	if raw == `{"basic":{}}` {
		t.Errorf("Update did not replace the row")
	}

	if err := db.UpdateProfile(ctx, "nobody", "{}", "t3"); err != storage.ErrNotFound {
		t.Errorf("Updating a missing row: err = %v, want ErrNotFound", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_ = db.AddHistory(ctx, "m1", nil, strptr("x"), "ADD", "t1", "t1", false)
	_ = db.InsertProfile(ctx, "alice", "{}", "t1")

	if err := db.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	entries, err := db.GetHistory(ctx, "m1")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history after reset, got %d", len(entries))
	}
	if _, found, _ := db.GetProfile(ctx, "alice"); found {
		t.Errorf("Expected profiles wiped after reset")
	}
}
