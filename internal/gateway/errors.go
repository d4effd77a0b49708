package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated indicates an operation that requires an operator
	// session was attempted without one.
	ErrNotAuthenticated = errors.New("gateway: not authenticated")
	// ErrUnavailable indicates no gateway connection is configured. Read
	// paths fall back to bundled sample content; write paths are refused.
	ErrUnavailable = errors.New("gateway: no connection configured")
)

// RemoteError wraps a failed remote operation with the operation name so
// aggregated save failures stay attributable.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway: %s failed", e.Op)
	}
	return fmt.Sprintf("gateway: %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError wraps err as a RemoteError for the named operation.
func NewRemoteError(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}
