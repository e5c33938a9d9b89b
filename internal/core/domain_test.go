package core

import (
	"errors"
	"testing"
	"time"
)

func TestKindValid(t *testing.T) {
	if !Income.Valid() || !Expense.Valid() {
		t.Fatal("expected income and expense to be valid kinds")
	}
	if Kind("transfer").Valid() {
		t.Fatal("expected unknown kind to be invalid")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Owner:      "u1",
		Amount:     Money{Cents: -1500},
		Kind:       Expense,
		OccurredAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"empty owner", Transaction{Kind: Income}, ErrEmptyOwner},
		{"unknown kind", Transaction{Owner: "u1", Kind: "transfer"}, ErrUnknownKind},
		{"positive expense", Transaction{Owner: "u1", Kind: Expense, Amount: Money{Cents: 100}}, ErrSignMismatch},
		{"negative income", Transaction{Owner: "u1", Kind: Income, Amount: Money{Cents: -100}}, ErrSignMismatch},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	// Zero amounts satisfy both sign constraints.
	zero := Transaction{Owner: "u1", Kind: Expense}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero expense: expected ok, got %v", err)
	}
}

func TestSignedAmount(t *testing.T) {
	m, err := SignedAmount(1500, Expense)
	if err != nil || m.Cents != -1500 {
		t.Fatalf("expense: got %d/%v, want -1500/nil", m.Cents, err)
	}
	m, err = SignedAmount(1500, Income)
	if err != nil || m.Cents != 1500 {
		t.Fatalf("income: got %d/%v, want 1500/nil", m.Cents, err)
	}
	if _, err := SignedAmount(-1, Income); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative magnitude: got %v, want ErrInvalidAmount", err)
	}
	if _, err := SignedAmount(0, Income); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero magnitude: got %v, want ErrInvalidAmount", err)
	}
	if _, err := SignedAmount(1, "transfer"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("bad kind: got %v, want ErrUnknownKind", err)
	}
}

func TestEffectiveDateFallback(t *testing.T) {
	created := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	occurred := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	withDate := Transaction{OccurredAt: occurred, CreatedAt: created}
	if !withDate.EffectiveDate().Equal(occurred) {
		t.Fatal("expected OccurredAt to win when set")
	}
	withoutDate := Transaction{CreatedAt: created}
	if !withoutDate.EffectiveDate().Equal(created) {
		t.Fatal("expected CreatedAt fallback when OccurredAt is zero")
	}
}
