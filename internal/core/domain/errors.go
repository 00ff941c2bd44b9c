package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the auth workflows matches exactly
// one of them via errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication error")
	ErrStore      = errors.New("store error")
)

var (
	ErrFieldsRequired     = fmt.Errorf("%w: all fields required", ErrValidation)
	ErrPasswordMismatch   = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password too long", ErrValidation)
	ErrEmailExists        = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuth)
)

// ErrUserNotFound is returned by stores when a lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// StoreError wraps a connectivity or query failure of a user store.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError returns a *StoreError for op, or nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
