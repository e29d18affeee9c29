package worktime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// =============================================================================
// SUMMARY VIEWS - Derived, never persisted
// =============================================================================

// DaySummary is one calendar day of a weekly view.
type DaySummary struct {
	Date        generic.Date
	Actual      decimal.Decimal
	Target      decimal.Decimal
	Balance     decimal.Decimal
	AbsenceType attendance.AbsenceType

	// HasRecord is false for days filled with a synthetic empty record.
	HasRecord bool
	// Tracked is false before the tracking start; such days contribute zero.
	Tracked bool
}

// WeeklySummary covers seven days starting on a Monday.
type WeeklySummary struct {
	WeekStart generic.Date
	WeekEnd   generic.Date
	Days      []DaySummary

	TotalActual  decimal.Decimal
	TotalTarget  decimal.Decimal
	TotalBalance decimal.Decimal
}

// MonthlySummary covers one calendar month.
//
// Weeks holds every Monday-start week touching the month, each with all
// seven days. The totals only count days inside the month, so the first and
// last week contribute partially.
type MonthlySummary struct {
	Year  int
	Month time.Month
	Weeks []WeeklySummary

	TotalActual   decimal.Decimal
	TotalTarget   decimal.Decimal
	PeriodBalance decimal.Decimal

	// CarryoverIn is the cumulative balance before the first day.
	CarryoverIn decimal.Decimal
	// CarryoverOut is the cumulative balance through the last day.
	CarryoverOut decimal.Decimal
}

// Period returns the month as a date range.
func (m MonthlySummary) Period() generic.Period {
	return generic.MonthOf(m.Year, m.Month)
}

// Days returns the day summaries that fall inside the month.
func (m MonthlySummary) Days() []DaySummary {
	period := m.Period()
	var days []DaySummary
	for _, w := range m.Weeks {
		for _, d := range w.Days {
			if period.Contains(d.Date) {
				days = append(days, d)
			}
		}
	}
	return days
}
