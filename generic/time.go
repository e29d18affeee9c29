package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day (attendance is tracked per day, never per instant)
// =============================================================================

// Date is a calendar day normalized to UTC midnight.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date { return NewDate(t.Year(), t.Month(), t.Day()) }

func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts ISO (2026-01-31) and German (31.01.2026) notation.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("02.01.2006", s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) String() string        { return d.Time.Format(dateLayout) }
func (d Date) GermanString() string  { return d.Time.Format("02.01.2006") }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Monday returns the Monday of the week containing d. Weeks start on Monday.
func (d Date) Monday() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// =============================================================================
// TIME OF DAY - Wall clock start/end of a work day
// =============================================================================

// TimeOfDay is a wall clock time stored as minutes after midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// ParseTimeOfDay parses "HH:MM" (single-digit hours allowed).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) Hour() int      { return int(t) / 60 }
func (t TimeOfDay) Minute() int    { return int(t) % 60 }
func (t TimeOfDay) Minutes() int   { return int(t) }
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()) }

// =============================================================================
// HOLIDAY CALENDAR - Public holidays for a jurisdiction
// =============================================================================

// Holiday is a named public holiday.
type Holiday struct {
	Date Date
	Name string
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// IsHoliday reports whether date is a public holiday and its display name.
	IsHoliday(date Date) (bool, string)

	// Holidays returns all holidays of a year ordered by date.
	Holidays(year int) []Holiday
}

// IsWorkdayWithHolidays checks if a date is a working day, considering holidays.
func (d Date) IsWorkdayWithHolidays(calendar HolidayCalendar) bool {
	if d.IsWeekend() {
		return false
	}
	if calendar != nil {
		if ok, _ := calendar.IsHoliday(d); ok {
			return false
		}
	}
	return true
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) Date     { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date       { return NewDate(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }
func EndOfMonth(year int, month time.Month) Date {
	return DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}
