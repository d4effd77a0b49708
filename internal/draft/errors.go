package draft

import (
	"errors"
	"fmt"
)

var (
	errUnknownItem     = errors.New("item not present in draft")
	errIndexOutOfRange = errors.New("index out of range")
	errNotPermutation  = errors.New("sequence is not a permutation of the draft")
)

// ServiceError carries an operation code alongside the underlying cause so
// save failures surface as a single attributable notice.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the operation code, e.g. "draft.save.remote_operation_failed".
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opLoad   = "draft.load"
	opSave   = "draft.save"
	opToggle = "draft.toggle"
	opMutate = "draft.mutate"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}
