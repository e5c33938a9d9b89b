// Package auth resolves the authenticated user the dashboard is scoped to.
//
// The dashboard never reads ambient global state: a Provider is injected
// into every component that needs identity, so tests can drive sign-in and
// sign-out explicitly.
package auth

import "context"

// User is an authenticated identity. ID is the owner key on every
// transaction row.
type User struct {
	ID    string
	Email string
}

// Unsubscribe cancels an OnChange registration. Safe to call more than once.
type Unsubscribe func()

// Provider resolves the current user and announces identity changes.
type Provider interface {
	// Current returns the signed-in user, or nil when nobody is
	// authenticated. A nil user is not an error.
	Current(ctx context.Context) (*User, error)

	// OnChange registers a callback invoked with the current user (or nil)
	// on every sign-in, sign-out, and session refresh. The callback also
	// fires once immediately with the current state.
	OnChange(fn func(*User)) Unsubscribe
}
