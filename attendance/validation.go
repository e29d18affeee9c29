package attendance

import (
	"unicode/utf8"

	"github.com/verk/worktime/generic"
)

// =============================================================================
// VALIDATION KEYS - Stable identifiers; message text lives at the boundary
// =============================================================================

type ErrorKey string

const (
	KeyMissingEndTime      ErrorKey = "missing_end_time"
	KeyMissingStartTime    ErrorKey = "missing_start_time"
	KeyEndBeforeStart      ErrorKey = "end_before_start"
	KeyBreakExceeds        ErrorKey = "break_exceeds_duration"
	KeyDuplicateEntry      ErrorKey = "duplicate_entry"
	KeyFutureDate          ErrorKey = "future_date"
	KeySubmittedReadonly   ErrorKey = "submitted_readonly"
	KeyInvalidBreakMinutes ErrorKey = "invalid_break_minutes"
	KeyNotesTooLong        ErrorKey = "notes_too_long"
	KeyInvalidAbsenceType  ErrorKey = "invalid_absence_type"
)

// ValidateOptions carries the context Validate needs without reading the clock.
type ValidateOptions struct {
	// AsOf is "today" for the future-date rule.
	AsOf generic.Date
	// AllowFuture disables the future-date rule (e.g. planned vacation).
	AllowFuture bool
}

// Validate checks a candidate record before it is created or updated.
// existing holds the user's stored records; a stored record with the
// candidate's ID is the version being replaced.
//
// An empty result means valid. A submitted record yields exactly
// [submitted_readonly] and no other rule runs. All other rules are
// independent and all are reported, in a fixed order.
func Validate(candidate Record, existing []Record, opts ValidateOptions) []ErrorKey {
	if isReadOnly(candidate, existing) {
		return []ErrorKey{KeySubmittedReadonly}
	}

	var errs []ErrorKey

	// 1. start and end come together
	if candidate.StartTime != nil && candidate.EndTime == nil {
		errs = append(errs, KeyMissingEndTime)
	}
	if candidate.EndTime != nil && candidate.StartTime == nil {
		errs = append(errs, KeyMissingStartTime)
	}

	// 2. + 3. ordering and break within the raw duration
	if candidate.HasTimes() {
		duration := candidate.EndTime.Minutes() - candidate.StartTime.Minutes()
		if duration <= 0 {
			errs = append(errs, KeyEndBeforeStart)
		} else if candidate.BreakMinutes > duration {
			errs = append(errs, KeyBreakExceeds)
		}
	}

	// 4. one record per (user, date)
	if isDuplicate(candidate, existing) {
		errs = append(errs, KeyDuplicateEntry)
	}

	// 5. no future dates
	if !opts.AllowFuture && !opts.AsOf.IsZero() && candidate.WorkDate.After(opts.AsOf) {
		errs = append(errs, KeyFutureDate)
	}

	// field bounds
	if candidate.BreakMinutes < 0 || candidate.BreakMinutes > MaxBreakMinutes {
		errs = append(errs, KeyInvalidBreakMinutes)
	}
	if utf8.RuneCountInString(candidate.Notes) > MaxNotesLength {
		errs = append(errs, KeyNotesTooLong)
	}
	if candidate.AbsenceType != "" && !candidate.AbsenceType.Valid() {
		errs = append(errs, KeyInvalidAbsenceType)
	}

	return errs
}

func isReadOnly(candidate Record, existing []Record) bool {
	if candidate.ID == "" {
		return false
	}
	if candidate.IsSubmitted() {
		return true
	}
	for _, e := range existing {
		if e.ID == candidate.ID && e.IsSubmitted() {
			return true
		}
	}
	return false
}

// isDuplicate compares the (user, date) key by value. The candidate's own
// stored version is not a duplicate of itself.
func isDuplicate(candidate Record, existing []Record) bool {
	for _, e := range existing {
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if e.UserID == candidate.UserID && e.WorkDate.Equal(candidate.WorkDate) {
			return true
		}
	}
	return false
}

// Strings converts keys for transport.
func Strings(keys []ErrorKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
