package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
)

func TestMemoryStoreInsertAssignsIDAndCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	saved, err := s.Insert(ctx, core.Transaction{
		Owner:  "user-1",
		Amount: core.Money{Cents: -1500},
		Kind:   core.Expense,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMemoryStoreListByOwnerScopesAndOrders(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: -100}, Kind: core.Expense, OccurredAt: older})
	s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: 200}, Kind: core.Income, OccurredAt: newer})
	s.Insert(ctx, core.Transaction{Owner: "user-2", Amount: core.Money{Cents: 999}, Kind: core.Income, OccurredAt: newer})

	list, err := s.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows for user-1, got %d", len(list))
	}
	if !list[0].OccurredAt.Equal(newer) {
		t.Errorf("expected newest first, got %v", list[0].OccurredAt)
	}
}

func TestMemoryStoreUpdatePartialFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	saved, _ := s.Insert(ctx, core.Transaction{
		Owner:       "user-1",
		Amount:      core.Money{Cents: -1000},
		Kind:        core.Expense,
		Description: "groceries",
	})

	amount := core.Money{Cents: -2000}
	if err := s.Update(ctx, "user-1", saved.ID, UpdateFields{Amount: &amount}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := s.Get(ctx, saved.ID)
	if got.Amount.Cents != -2000 {
		t.Errorf("expected amount -2000, got %d", got.Amount.Cents)
	}
	if got.Description != "groceries" {
		t.Errorf("expected untouched description, got %q", got.Description)
	}
}

func TestMemoryStoreOwnerMismatchIsNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	saved, _ := s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: 100}, Kind: core.Income})

	if err := s.Delete(ctx, "user-2", saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
	}
	if err := s.Update(ctx, "user-2", saved.ID, UpdateFields{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
	}
}

func TestMemoryStoreDeleteRemovesRow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	saved, _ := s.Insert(ctx, core.Transaction{Owner: "user-1", Amount: core.Money{Cents: 100}, Kind: core.Income})
	if err := s.Delete(ctx, "user-1", saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
