/*
service.go - Time Calculation Service

PURPOSE:
  Aggregates the per-record primitives of package attendance over
  collections of records: period and cumulative balances, weekly summaries
  and monthly summaries with carryover.

TRACKING START:
  Records dated before Settings.TrackingStart never contribute. A record
  dated exactly on the tracking start does. In summaries, days before the
  tracking start are reported with Tracked=false and zero values.

INITIAL OFFSET:
  Settings.InitialHoursOffset seeds the cumulative balance as of the
  tracking start. It is added exactly once:
    - PeriodBalance adds it only when includeCarryover is true
    - AllTimeBalance adds it when the window reaches the tracking start
    - MonthlySummary uses it as CarryoverIn for the month containing the
      tracking start, and through AllTimeBalance for every later month

CARRYOVER CHAIN:
  CarryoverIn and CarryoverOut are the same cumulative balance taken before
  the first and through the last day of the month, so one month's
  CarryoverOut is the next month's CarryoverIn. The only exception is the
  month containing the tracking start, whose CarryoverIn is the offset
  while the month before closes at zero.

MISSING DAYS:
  Summaries fill days without a record with attendance.EmptyRecord, so an
  unexplained workday counts as -target in the week and month totals.
  Cumulative balances, and therefore carryover, sum stored records only;
  PeriodBalance of a month with missing days is not CarryoverOut minus
  CarryoverIn.

PRECISION:
  Per-day values are rounded by the primitives; sums are rounded once at
  the end with generic.SumHours.

SEE ALSO:
  - attendance/calc.go: Per-record primitives
  - summary.go: Result types
*/
package worktime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// Service aggregates attendance records. The zero value ignores public
// holidays that are not flagged on the record.
type Service struct {
	Calc attendance.Calculator
}

// NewService returns a service using the default (German) calculator.
func NewService() *Service {
	return &Service{Calc: attendance.DefaultCalculator}
}

// =============================================================================
// BALANCES
// =============================================================================

// PeriodBalance sums the daily balance of every tracked record. The offset
// is added only when includeCarryover is true, which callers set for the
// first tracked period.
func (s *Service) PeriodBalance(records []attendance.Record, settings attendance.Settings, includeCarryover bool) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if !settings.IsTracked(r.WorkDate) {
			continue
		}
		total = total.Add(s.Calc.DailyBalance(r, settings))
	}
	if includeCarryover {
		total = total.Add(settings.InitialHoursOffset)
	}
	return generic.RoundHours(total)
}

// AllTimeBalance returns the cumulative balance through a date, inclusive.
// The offset is included once the window reaches the tracking start.
func (s *Service) AllTimeBalance(records []attendance.Record, settings attendance.Settings, through generic.Date) decimal.Decimal {
	var window []attendance.Record
	for _, r := range records {
		if r.WorkDate.BeforeOrEqual(through) {
			window = append(window, r)
		}
	}
	reached := settings.TrackingStart == nil || through.AfterOrEqual(*settings.TrackingStart)
	return s.PeriodBalance(window, settings, reached)
}

// =============================================================================
// SUMMARIES
// =============================================================================

// WeeklySummary builds the seven days starting at the Monday of weekStart.
func (s *Service) WeeklySummary(records []attendance.Record, settings attendance.Settings, weekStart generic.Date) WeeklySummary {
	return s.week(indexByDate(records), settings, generic.WeekOf(weekStart))
}

// MonthlySummary builds the weeks of a month with totals and carryover.
func (s *Service) MonthlySummary(records []attendance.Record, settings attendance.Settings, year int, month time.Month) MonthlySummary {
	period := generic.MonthOf(year, month)
	byDate := indexByDate(records)

	m := MonthlySummary{Year: year, Month: month}
	var actual, target, balance []decimal.Decimal
	for _, week := range period.Weeks() {
		summary := s.week(byDate, settings, week)
		m.Weeks = append(m.Weeks, summary)
		for _, d := range summary.Days {
			if period.Contains(d.Date) {
				actual = append(actual, d.Actual)
				target = append(target, d.Target)
				balance = append(balance, d.Balance)
			}
		}
	}
	m.TotalActual = generic.SumHours(actual...)
	m.TotalTarget = generic.SumHours(target...)
	m.PeriodBalance = generic.SumHours(balance...)

	m.CarryoverIn = s.carryoverIn(records, settings, period)
	m.CarryoverOut = s.AllTimeBalance(records, settings, period.End)
	return m
}

// carryoverIn is the cumulative balance before the first day of period.
func (s *Service) carryoverIn(records []attendance.Record, settings attendance.Settings, period generic.Period) decimal.Decimal {
	start := settings.TrackingStart
	switch {
	case start != nil && period.End.Before(*start):
		return decimal.Zero
	case start != nil && period.Contains(*start):
		return generic.RoundHours(settings.InitialHoursOffset)
	default:
		return s.AllTimeBalance(records, settings, period.Start.AddDays(-1))
	}
}

func (s *Service) week(byDate map[string]attendance.Record, settings attendance.Settings, week generic.Period) WeeklySummary {
	w := WeeklySummary{WeekStart: week.Start, WeekEnd: week.End}
	var actual, target, balance []decimal.Decimal
	for _, day := range week.Days() {
		d := s.day(byDate, settings, day)
		w.Days = append(w.Days, d)
		actual = append(actual, d.Actual)
		target = append(target, d.Target)
		balance = append(balance, d.Balance)
	}
	w.TotalActual = generic.SumHours(actual...)
	w.TotalTarget = generic.SumHours(target...)
	w.TotalBalance = generic.SumHours(balance...)
	return w
}

func (s *Service) day(byDate map[string]attendance.Record, settings attendance.Settings, day generic.Date) DaySummary {
	r, ok := byDate[day.String()]
	if !ok {
		r = attendance.EmptyRecord(settings.UserID, day)
	}
	summary := DaySummary{
		Date:        day,
		AbsenceType: r.AbsenceType,
		HasRecord:   ok,
		Tracked:     settings.IsTracked(day),
		Actual:      decimal.Zero,
		Target:      decimal.Zero,
		Balance:     decimal.Zero,
	}
	if !summary.Tracked {
		return summary
	}
	v := s.Calc.Evaluate(r, settings)
	summary.Actual, summary.Target, summary.Balance = v.Actual, v.Target, v.Balance
	return summary
}

// indexByDate keeps the first record per day, keyed by ISO date.
func indexByDate(records []attendance.Record) map[string]attendance.Record {
	byDate := make(map[string]attendance.Record, len(records))
	for _, r := range records {
		key := r.WorkDate.String()
		if _, dup := byDate[key]; !dup {
			byDate[key] = r
		}
	}
	return byDate
}
