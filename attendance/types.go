// Package attendance implements per-day attendance records, the calculation
// primitives that turn one record into hours, and the rules a record must
// satisfy before it is accepted.
package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/verk/worktime/generic"
)

// =============================================================================
// ABSENCE TYPE
// =============================================================================

type AbsenceType string

const (
	AbsenceNone     AbsenceType = "none"      // regular work day
	AbsenceVacation AbsenceType = "vacation"  // Urlaub
	AbsenceSick     AbsenceType = "sick"      // Krank
	AbsenceHoliday  AbsenceType = "holiday"   // Feiertag
	AbsenceFlexTime AbsenceType = "flex_time" // Zeitausgleich
)

// Valid reports whether a is one of the known absence types.
func (a AbsenceType) Valid() bool {
	switch a {
	case AbsenceNone, AbsenceVacation, AbsenceSick, AbsenceHoliday, AbsenceFlexTime:
		return true
	}
	return false
}

// CreditedAsWorked is true for absences that count as a fully worked day.
func (a AbsenceType) CreditedAsWorked() bool {
	return a == AbsenceVacation || a == AbsenceSick || a == AbsenceHoliday
}

// =============================================================================
// RECORD STATUS
// =============================================================================

type Status string

const (
	StatusDraft     Status = "draft"     // user can edit
	StatusSubmitted Status = "submitted" // locked for HR
)

// =============================================================================
// ATTENDANCE RECORD
// =============================================================================

const (
	MaxBreakMinutes = 480
	MaxNotesLength  = 500
)

// Record is one calendar day's attendance for one user.
// (UserID, WorkDate) is unique.
type Record struct {
	ID           generic.RecordID
	UserID       generic.UserID
	WorkDate     generic.Date
	StartTime    *generic.TimeOfDay
	EndTime      *generic.TimeOfDay
	BreakMinutes int
	AbsenceType  AbsenceType
	Notes        string
	Status       Status

	// Version is the optimistic-lock token (last-modified timestamp).
	Version   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTimes is true when both start and end are set.
func (r Record) HasTimes() bool { return r.StartTime != nil && r.EndTime != nil }

// IsSubmitted is true once the record is read-only.
func (r Record) IsSubmitted() bool { return r.Status == StatusSubmitted }

// EmptyRecord is the synthetic record used for days without an entry.
func EmptyRecord(userID generic.UserID, day generic.Date) Record {
	return Record{UserID: userID, WorkDate: day, AbsenceType: AbsenceNone, Status: StatusDraft}
}

// =============================================================================
// USER SETTINGS
// =============================================================================

// DaySchedule holds the pre-fill defaults for one weekday.
type DaySchedule struct {
	Enabled      bool
	StartTime    *generic.TimeOfDay
	EndTime      *generic.TimeOfDay
	BreakMinutes int
}

// WeekSchedule is indexed by time.Weekday (Sunday = 0 ... Saturday = 6),
// so an out-of-range weekday cannot be stored.
type WeekSchedule [7]DaySchedule

// Day returns the schedule of a weekday.
func (w WeekSchedule) Day(wd time.Weekday) DaySchedule { return w[wd] }

// StandardWeek is Monday-Friday 08:00-16:30 with a 30 minute break.
func StandardWeek() WeekSchedule {
	start, end := generic.NewTimeOfDay(8, 0), generic.NewTimeOfDay(16, 30)
	var w WeekSchedule
	for wd := time.Monday; wd <= time.Friday; wd++ {
		w[wd] = DaySchedule{Enabled: true, StartTime: &start, EndTime: &end, BreakMinutes: 30}
	}
	return w
}

// CarryoverCutoff is the month/day on which unused vacation carryover expires.
type CarryoverCutoff struct {
	Month time.Month
	Day   int
}

// DefaultCarryoverCutoff is March 31.
var DefaultCarryoverCutoff = CarryoverCutoff{Month: time.March, Day: 31}

// In returns the cutoff date within year.
func (c CarryoverCutoff) In(year int) generic.Date {
	return generic.NewDate(year, c.Month, c.Day)
}

// VacationPolicy holds the vacation parameters. Nil fields are unset.
type VacationPolicy struct {
	InitialBalance    *decimal.Decimal
	AnnualEntitlement *decimal.Decimal
	CarryoverDays     *decimal.Decimal
	CarryoverCutoff   *CarryoverCutoff
}

// Settings is the per-user configuration. Exactly one exists per user.
type Settings struct {
	UserID            generic.UserID
	WeeklyTargetHours decimal.Decimal
	Schedule          WeekSchedule

	// Records before TrackingStart are excluded from balances.
	TrackingStart *generic.Date
	// InitialHoursOffset seeds the cumulative balance; may be negative.
	InitialHoursOffset decimal.Decimal

	Vacation VacationPolicy

	Version   string
	UpdatedAt time.Time
}

// DefaultSettings returns a 40 hour week with the standard schedule.
func DefaultSettings(userID generic.UserID) Settings {
	return Settings{
		UserID:            userID,
		WeeklyTargetHours: decimal.NewFromInt(40),
		Schedule:          StandardWeek(),
	}
}

// IsTracked reports whether day counts towards balances.
func (s Settings) IsTracked(day generic.Date) bool {
	return s.TrackingStart == nil || day.AfterOrEqual(*s.TrackingStart)
}

var (
	maxWeeklyHours = decimal.NewFromInt(80)
	maxOffset      = generic.MustParseDecimal("999.99")
)

// Validate checks the settings contract. Calculation functions panic on
// settings that fail it, so boundaries call Validate before storing.
func (s Settings) Validate() error {
	if s.WeeklyTargetHours.IsNegative() || s.WeeklyTargetHours.GreaterThan(maxWeeklyHours) {
		return &generic.SettingsError{Field: "weekly_target_hours", Reason: "must be between 0 and 80"}
	}
	if s.InitialHoursOffset.Abs().GreaterThan(maxOffset) {
		return &generic.SettingsError{Field: "initial_hours_offset", Reason: "must be between -999.99 and 999.99"}
	}
	for field, v := range map[string]*decimal.Decimal{
		"vacation_initial_balance":    s.Vacation.InitialBalance,
		"vacation_annual_entitlement": s.Vacation.AnnualEntitlement,
		"vacation_carryover_days":     s.Vacation.CarryoverDays,
	} {
		if v != nil && v.IsNegative() {
			return &generic.SettingsError{Field: field, Reason: "must not be negative"}
		}
	}
	if c := s.Vacation.CarryoverCutoff; c != nil {
		if c.Month < time.January || c.Month > time.December || c.Day < 1 ||
			c.In(2001).Month() != c.Month { // 2001: no Feb 29
			return &generic.SettingsError{Field: "vacation_carryover_expiration", Reason: "is not a valid month/day"}
		}
	}
	for wd, day := range s.Schedule {
		if day.BreakMinutes < 0 || day.BreakMinutes > MaxBreakMinutes {
			return &generic.SettingsError{Field: "weekday_schedule", Reason: fmt.Sprintf("break of %s out of range", time.Weekday(wd))}
		}
		if day.StartTime != nil && day.EndTime != nil && *day.EndTime <= *day.StartTime {
			return &generic.SettingsError{Field: "weekday_schedule", Reason: fmt.Sprintf("end before start on %s", time.Weekday(wd))}
		}
	}
	return nil
}
