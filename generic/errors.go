/*
errors.go - Centralized error types for the worktime engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages and stores wrap these errors with additional context.

ERROR CATEGORIES:
  1. Conflict errors - Optimistic lock mismatches, duplicate (user, date)
  2. State errors - Mutating a submitted record
  3. Programmer errors - Settings that violate the engine's contract

  Validation failures of user input are NOT errors. They are returned as
  lists of stable keys (see attendance/validation.go).

USAGE:
  if errors.Is(err, generic.ErrConcurrentModification) {
      // reload and let the user decide
  }

SEE ALSO:
  - attendance/version.go: Produces ConflictError
  - store/sqlite/sqlite.go: Wraps driver errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConcurrentModification is returned when optimistic locking detects a conflict.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicateEntry is returned when a record already exists for (user, date).
	ErrDuplicateEntry = errors.New("duplicate entry for user and date")

	// ErrReadOnly is returned when mutating a submitted record.
	ErrReadOnly = errors.New("record is submitted and read-only")

	// ErrNotFound is returned when a referenced record or settings object doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSettings marks a contract violation by the caller.
	ErrInvalidSettings = errors.New("invalid settings")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError provides details about a stale write.
type ConflictError struct {
	RecordID  string
	Stored    string
	Submitted string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of %s: stored version %q, submitted %q",
		e.RecordID, e.Stored, e.Submitted)
}

func (e *ConflictError) Unwrap() error {
	return ErrConcurrentModification
}

// SettingsError names the offending settings field.
type SettingsError struct {
	Field  string
	Reason string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid settings: %s %s", e.Field, e.Reason)
}

func (e *SettingsError) Unwrap() error {
	return ErrInvalidSettings
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true if the caller should re-fetch before retrying.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrDuplicateEntry)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
