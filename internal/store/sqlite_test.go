package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	occurred := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	saved, err := s.Insert(ctx, core.Transaction{
		Owner:        "user-1",
		Amount:       core.Money{Cents: -4550},
		Kind:         core.Expense,
		OccurredAt:   occurred,
		Description:  "electricity",
		Counterparty: "utility co",
		Category:     "bills",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Amount.Cents != -4550 || got.Kind != core.Expense {
		t.Errorf("unexpected row back: %+v", got)
	}
	if got.Description != "electricity" || got.Counterparty != "utility co" || got.Category != "bills" {
		t.Errorf("text fields not preserved: %+v", got)
	}
	if !got.OccurredAt.Equal(occurred) {
		t.Errorf("expected occurred %v, got %v", occurred, got.OccurredAt)
	}
}

func TestSQLiteStoreListOrderNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	s.Insert(ctx, core.Transaction{
		Owner: "user-1", Amount: core.Money{Cents: -100}, Kind: core.Expense,
		OccurredAt: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	s.Insert(ctx, core.Transaction{
		Owner: "user-1", Amount: core.Money{Cents: 300}, Kind: core.Income,
		OccurredAt: time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
	})
	// No occurred date: sorts by created_at, which is now.
	s.Insert(ctx, core.Transaction{
		Owner: "user-1", Amount: core.Money{Cents: 700}, Kind: core.Income,
	})
	s.Insert(ctx, core.Transaction{
		Owner: "user-2", Amount: core.Money{Cents: 900}, Kind: core.Income,
	})

	list, err := s.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(list))
	}
	if list[0].Amount.Cents != 700 {
		t.Errorf("expected undated row (created now) first, got %+v", list[0])
	}
	if list[1].Amount.Cents != 300 || list[2].Amount.Cents != -100 {
		t.Errorf("expected dated rows newest first, got %+v then %+v", list[1], list[2])
	}
}

func TestSQLiteStoreUpdateQueuesMirror(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	saved, _ := s.Insert(ctx, core.Transaction{
		Owner: "user-1", Amount: core.Money{Cents: -500}, Kind: core.Expense,
	})
	if err := s.SetMirrorState(ctx, saved.ID, MirrorDone); err != nil {
		t.Fatalf("SetMirrorState failed: %v", err)
	}

	desc := "updated"
	if err := s.Update(ctx, "user-1", saved.ID, UpdateFields{Description: &desc}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pending, err := s.ListPendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingMirror failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != saved.ID {
		t.Errorf("expected updated row pending again, got %+v", pending)
	}
}

func TestSQLiteStoreMirrorLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, _ := s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: 100}, Kind: core.Income})
	b, _ := s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: 200}, Kind: core.Income})

	pending, err := s.ListPendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingMirror failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a.ID {
		t.Fatalf("expected both rows pending oldest first, got %+v", pending)
	}

	if err := s.SetMirrorState(ctx, a.ID, MirrorDone); err != nil {
		t.Fatalf("SetMirrorState failed: %v", err)
	}
	pending, _ = s.ListPendingMirror(ctx, 10)
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("expected only second row pending, got %+v", pending)
	}
}

func TestSQLiteStoreDeleteEnforcesOwner(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	saved, _ := s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: 100}, Kind: core.Income})

	if err := s.Delete(ctx, "user-2", saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
	}
	if err := s.Delete(ctx, "user-1", saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
