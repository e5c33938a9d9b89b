package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind classifies a transaction and constrains the sign of its amount.
	Kind string

	// Money is a signed amount in cents. Expenses carry negative cents.
	Money struct {
		Cents int64
	}

	// Transaction is the single domain entity: one dated money movement
	// belonging to an owner. ID and CreatedAt are assigned by the store.
	Transaction struct {
		ID           int64
		Owner        string
		Amount       Money
		Kind         Kind
		OccurredAt   time.Time // user-supplied date; zero means "use CreatedAt"
		CreatedAt    time.Time
		Description  string
		Counterparty string
		Category     string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnknownKind         = errors.New("unknown transaction kind")
	ErrSignMismatch        = errors.New("amount sign does not match kind")
	ErrEmptyOwner          = errors.New("empty owner")
	ErrPartialAmountChange = errors.New("amount and kind must change together")
)

func (k Kind) Valid() bool {
	switch k {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// EffectiveDate returns OccurredAt, falling back to CreatedAt when the user
// never supplied a date.
func (t Transaction) EffectiveDate() time.Time {
	if t.OccurredAt.IsZero() {
		return t.CreatedAt
	}
	return t.OccurredAt
}

// Validate checks field-level invariants. Violations are reported at the
// form boundary and never reach the store.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if !t.Kind.Valid() {
		return ErrUnknownKind
	}
	if err := t.validateSign(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if len(t.Counterparty) > 200 {
		return errors.New("counterparty too long (max 200 characters)")
	}
	return nil
}

// validateSign enforces the sign convention: income >= 0, expense <= 0.
func (t Transaction) validateSign() error {
	switch t.Kind {
	case Income:
		if t.Amount.Cents < 0 {
			return ErrSignMismatch
		}
	case Expense:
		if t.Amount.Cents > 0 {
			return ErrSignMismatch
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// SignedAmount applies the sign convention to a magnitude: expenses are
// stored negative, incomes positive. Forms submit magnitudes; this is the
// negate-on-submit step. A zero magnitude is rejected, matching the form
// requirement that an amount is always entered.
func SignedAmount(magnitudeCents int64, kind Kind) (Money, error) {
	if magnitudeCents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	if !kind.Valid() {
		return Money{}, ErrUnknownKind
	}
	if kind == Expense {
		return Money{Cents: -magnitudeCents}, nil
	}
	return Money{Cents: magnitudeCents}, nil
}
