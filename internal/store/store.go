// Package store persists owner-scoped transaction rows. It plays the role
// of the remote tabular store: queries are filtered by owner and ordered by
// the effective date descending, mutations are single atomic calls keyed by
// id, and the store itself decides existence (no client-side pre-check).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
)

// ErrNotFound is returned by id-keyed operations when no row matches.
var ErrNotFound = errors.New("transaction not found")

// UpdateFields is a partial field replacement. Nil members are left
// untouched; Owner is never mutable.
type UpdateFields struct {
	Amount       *core.Money
	Kind         *core.Kind
	OccurredAt   *time.Time
	Description  *string
	Counterparty *string
	Category     *string
}

// Store is the remote-store port the dashboard talks to.
type Store interface {
	// ListByOwner returns every row for the owner, ordered by effective
	// date descending with store insertion order breaking ties. An owner
	// with no rows gets an empty list, not an error.
	ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error)

	// Insert persists a new row, assigning ID and CreatedAt, and returns
	// the stored form.
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)

	// Update applies a partial field replacement to the owner's row with
	// the given id. Returns ErrNotFound when no such row exists.
	Update(ctx context.Context, owner string, id int64, fields UpdateFields) error

	// Delete removes the owner's row with the given id. Returns
	// ErrNotFound when no such row exists.
	Delete(ctx context.Context, owner string, id int64) error

	// Get fetches one row by id regardless of owner. Used by the mirror
	// worker, not the dashboard.
	Get(ctx context.Context, id int64) (core.Transaction, error)
}
