// Package errors defines the domain error taxonomy shared by the services and
// the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// DomainError is a typed business failure. Two DomainErrors match under
// errors.Is when their codes are equal, so a specific message can be checked
// against the package sentinels.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *DomainError) Retryable() bool {
	return e.Code == ErrConflict.Code
}

// Newf returns a copy of base carrying a formatted message.
func Newf(base *DomainError, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    base.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// As returns the DomainError in err's chain, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable domain error.
func IsRetryable(err error) bool {
	de, ok := As(err)
	return ok && de.Retryable()
}
