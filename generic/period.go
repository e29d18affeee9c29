package generic

import "time"

// =============================================================================
// PERIOD - Closed date range used for summaries and balances
// =============================================================================

// Period defines the time boundary for balance calculation.
//
// Examples:
//   - Week: Monday - Sunday
//   - Month: 1st - last day (weeks at both ends may be partial)
//   - Vacation year: Jan 1 - Dec 31
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD CONSTRUCTORS
// =============================================================================

// WeekOf returns the Monday-start week containing d.
func WeekOf(d Date) Period {
	monday := d.Monday()
	return Period{Start: monday, End: monday.AddDays(6)}
}

// MonthOf returns the calendar month.
func MonthOf(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// YearOf returns the calendar year.
func YearOf(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Weeks returns the Monday-start weeks touching the period. The first and
// last week may extend beyond the period bounds.
func (p Period) Weeks() []Period {
	var weeks []Period
	for start := p.Start.Monday(); start.BeforeOrEqual(p.End); start = start.AddDays(7) {
		weeks = append(weeks, Period{Start: start, End: start.AddDays(6)})
	}
	return weeks
}
