package memory

import (
	"errors"
	"fmt"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// Error implements repositories.RepositoryError for the in-memory store.
type Error struct {
	op       string
	err      error
	notFound bool
	conflict bool
}

var _ repositories.RepositoryError = (*Error)(nil)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsNotFound reports whether the record was missing.
func (e *Error) IsNotFound() bool { return e != nil && e.notFound }

// IsConflict reports whether a uniqueness rule was violated.
func (e *Error) IsConflict() bool { return e != nil && e.conflict }

// IsUnavailable is always false; memory never goes away.
func (e *Error) IsUnavailable() bool { return false }

func notFound(op, what string) error {
	return &Error{op: op, err: fmt.Errorf("%s not found", what), notFound: true}
}

func conflict(op, what string) error {
	return &Error{op: op, err: fmt.Errorf("%s already exists", what), conflict: true}
}

func invalid(op, msg string) error {
	return &Error{op: op, err: errors.New(msg)}
}
