package attendance

import (
	"time"

	"github.com/verk/worktime/generic"
)

// =============================================================================
// OPTIMISTIC CONCURRENCY GUARD
// =============================================================================
//
// Every mutation path (record update, delete, submit and settings update)
// calls CheckVersion with the token it read and the token the client sent.
// A mismatch means another writer got there first; the write is rejected and
// the caller decides whether to re-fetch. Nothing is retried or locked here.

// VersionMatches is the comparison rule: plain equality of opaque tokens.
func VersionMatches(stored, submitted string) bool {
	return stored == submitted
}

// CheckVersion returns a *generic.ConflictError when the tokens differ.
func CheckVersion(id string, stored, submitted string) error {
	if VersionMatches(stored, submitted) {
		return nil
	}
	return &generic.ConflictError{RecordID: id, Stored: stored, Submitted: submitted}
}

// VersionToken derives the token from a last-modified timestamp.
func VersionToken(updatedAt time.Time) string {
	return updatedAt.UTC().Format(time.RFC3339Nano)
}

// NextUpdatedAt returns now, or just after prev when the clock has not
// advanced, so every write produces a fresh token.
func NextUpdatedAt(prev, now time.Time) time.Time {
	now = now.UTC()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
