// Package sheets defines the port the mirror worker writes through. The
// spreadsheet is an append-only export; it is never read back into the
// dashboard.
package sheets

import (
	"context"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
)

// TransactionWriter appends one transaction row to the export destination
// and returns an opaque reference to where it landed.
type TransactionWriter interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
}
