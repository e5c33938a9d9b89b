package dashboard

import (
	"github.com/Tcordeir0/vpsurge-fin/internal/core"
)

// State describes where the controller is in its load cycle.
type State string

const (
	// StateUnauthenticated means no user is signed in; data is empty.
	StateUnauthenticated State = "unauthenticated"
	// StateLoading means a user is signed in and the first fetch for that
	// identity has not completed yet.
	StateLoading State = "loading"
	// StateReady means the cached snapshot reflects the last successful fetch.
	StateReady State = "ready"
	// StateError means the last fetch failed. The state is not terminal; the
	// next successful refresh moves back to ready.
	StateError State = "error"
)

// Snapshot is a consistent view of the controller at one instant.
// Transactions are newest first. Metrics are derived from the same list.
type Snapshot struct {
	State        State
	Transactions []core.Transaction
	Metrics      core.Metrics
	Err          error
}
