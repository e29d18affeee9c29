/*
store.go - Persistence port for records and settings

PURPOSE:
  Defines the interface between the request boundary and the database.
  The engine itself never calls a Store; handlers load records, run the
  pure functions, and write back through this interface.

OPTIMISTIC LOCKING:
  Every mutation that replaces existing state takes the version token the
  client read. Implementations compare it with CheckVersion before writing
  and return *generic.ConflictError on mismatch. No locks are held between
  read and write, and nothing is retried.

IMPLEMENTATIONS:
  - store/sqlite: database/sql + go-sqlite3
  - store/memory: In-memory for tests and demos

SEE ALSO:
  - version.go: The comparison rule
  - generic/errors.go: ErrNotFound, ErrDuplicateEntry, ErrReadOnly
*/
package attendance

import (
	"context"

	"github.com/verk/worktime/generic"
)

// Store persists attendance records and user settings.
type Store interface {
	// Create inserts a draft record and assigns ID and version.
	// Returns generic.ErrDuplicateEntry if (user, date) is taken.
	Create(ctx context.Context, r Record) (Record, error)

	// Update replaces a draft record if version matches.
	Update(ctx context.Context, r Record, version string) (Record, error)

	// Delete removes a draft record if version matches.
	Delete(ctx context.Context, userID generic.UserID, id generic.RecordID, version string) error

	// Submit moves a draft record to submitted if version matches.
	Submit(ctx context.Context, userID generic.UserID, id generic.RecordID, version string) (Record, error)

	// Get returns one record of a user.
	Get(ctx context.Context, userID generic.UserID, id generic.RecordID) (Record, error)

	// List returns a user's records in [from, to] ordered by date.
	List(ctx context.Context, userID generic.UserID, from, to generic.Date) ([]Record, error)

	// ListAll returns every record of a user ordered by date.
	ListAll(ctx context.Context, userID generic.UserID) ([]Record, error)

	// Settings returns the user's settings or generic.ErrNotFound.
	Settings(ctx context.Context, userID generic.UserID) (Settings, error)

	// SaveSettings creates settings (version ignored) or replaces them if
	// version matches.
	SaveSettings(ctx context.Context, s Settings, version string) (Settings, error)
}
