package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the engine and its collaborators. Callers branch on
// these with errors.Is; everything else wraps one of them.
var (
	// ErrInvalidArgument marks caller mistakes: malformed filters,
	// pagination, date ranges or thresholds. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageUnavailable marks data-access failures from the
	// underlying store, including timeouts. Retry policy belongs to the
	// caller; the engine never retries internally.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound marks a referenced entity that does not exist for the
	// given owner.
	ErrNotFound = errors.New("not found")
)

// Domain validation errors. Each wraps ErrInvalidArgument so callers can
// match either the specific failure or the whole class.
var (
	ErrInvalidAmount    = fmt.Errorf("invalid amount: %w", ErrInvalidArgument)
	ErrEmptyTitle       = fmt.Errorf("empty title: %w", ErrInvalidArgument)
	ErrEmptyName        = fmt.Errorf("empty name: %w", ErrInvalidArgument)
	ErrInvalidDateRange = fmt.Errorf("end date before start date: %w", ErrInvalidArgument)
	ErrInvalidThreshold = fmt.Errorf("alert threshold outside [0,100]: %w", ErrInvalidArgument)
)

// InvalidArgumentf builds a descriptive error wrapping ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

// NotFoundf builds a descriptive error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// StorageError wraps a store failure so callers can match
// ErrStorageUnavailable while keeping the driver error in the chain.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// IsInvalidArgument reports whether err is a caller error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsStorageUnavailable reports whether err is a data-access failure.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsNotFound reports whether err refers to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
