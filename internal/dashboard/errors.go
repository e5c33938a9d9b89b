package dashboard

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by mutating operations when no user is
// signed in. No backend call is made in that case.
var ErrNotAuthenticated = errors.New("not authenticated")

// RemoteError wraps a failure from the backing store or feed so callers can
// tell it apart from validation problems.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}
