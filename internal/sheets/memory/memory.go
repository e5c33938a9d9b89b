// Package memory is an in-process spreadsheet stand-in for tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
	ports "github.com/Tcordeir0/vpsurge-fin/internal/sheets"
)

// Writer records appended transactions in order.
type Writer struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ ports.TransactionWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) Append(_ context.Context, t core.Transaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, t)
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []core.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.Transaction(nil), w.rows...)
}
