// Package apperr defines the error kinds shared by every ledger domain.
// Domain sentinels wrap one of these so callers can match either the
// specific error or its kind with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a required entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned on state-machine re-entry of a terminal entity.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrInsufficientBalance is returned when a debit exceeds spendable funds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrValidation is returned for malformed input such as non-positive amounts.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a uniqueness race or a guarded transition is lost.
	ErrConflict = errors.New("conflict")

	// ErrRetryable marks transient store contention. The operation rolled back
	// and may be retried by the caller.
	ErrRetryable = errors.New("transient store failure")
)

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// IsTerminal reports whether retrying the same call can never succeed.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrConflict)
}
