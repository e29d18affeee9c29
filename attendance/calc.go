/*
calc.go - Calculation primitives for a single attendance record

PURPOSE:
  Pure functions turning one Record plus Settings into actual hours, target
  hours and the daily balance. Everything above (weekly/monthly summaries,
  cumulative balances) is a sum of these three values.

RULES:
  actual  = (end - start) - break, 0 when either time is missing.
            Not clamped: end before start is rejected by Validate, not here.
  target  = 0 on Saturday/Sunday, on HOLIDAY absences and on calendar
            holidays; weekly_target_hours / 5 on every other day, including
            VACATION and SICK (continued pay, EFZG).
  balance = effective_actual - target, where effective_actual = target for
            VACATION, SICK and HOLIDAY, and actual otherwise. FLEX_TIME is an
            ordinary day and usually goes negative.

PRECISION:
  All values are decimal.Decimal rounded to two places. Calling any function
  twice with the same input yields identical output.

  The daily target is weekly/5 rounded to two places, so five daily targets
  need not add up to the weekly target: 38.33/5 gives 7.67 a day and 38.35
  for a full week.

HOLIDAY CALENDAR:
  Calculator.Calendar is consulted for target hours. A nil Calendar only
  honours records explicitly flagged HOLIDAY.

SEE ALSO:
  - worktime/service.go: Aggregates these values
  - holiday/germany.go: Default calendar
*/
package attendance

import (
	"github.com/shopspring/decimal"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/holiday"
)

// WorkdaysPerWeek divides the weekly target into a daily one.
var WorkdaysPerWeek = decimal.NewFromInt(5)

// Calculator evaluates records against settings.
type Calculator struct {
	Calendar generic.HolidayCalendar
}

// DefaultCalculator uses the German holiday calendar.
var DefaultCalculator = Calculator{Calendar: holiday.Germany{}}

// ActualHours returns worked hours for a record.
func ActualHours(r Record) decimal.Decimal { return DefaultCalculator.ActualHours(r) }

// TargetHours returns the expected hours for the record's day.
func TargetHours(r Record, s Settings) decimal.Decimal { return DefaultCalculator.TargetHours(r, s) }

// DailyBalance returns credited hours minus target for the record's day.
func DailyBalance(r Record, s Settings) decimal.Decimal { return DefaultCalculator.DailyBalance(r, s) }

// ActualHours returns (end - start) - break in hours, 0 without both times.
func (Calculator) ActualHours(r Record) decimal.Decimal {
	if !r.HasTimes() {
		return decimal.Zero
	}
	minutes := r.EndTime.Minutes() - r.StartTime.Minutes() - r.BreakMinutes
	return generic.HoursFromMinutes(minutes)
}

// DailyTarget returns weekly_target_hours / 5. It panics on settings that
// violate the contract (negative weekly target).
func DailyTarget(s Settings) decimal.Decimal {
	if s.WeeklyTargetHours.IsNegative() {
		panic(&generic.SettingsError{Field: "weekly_target_hours", Reason: "must not be negative"})
	}
	return generic.RoundHours(s.WeeklyTargetHours.Div(WorkdaysPerWeek))
}

// IsNonWorkingDay reports whether day carries no target at all.
func (c Calculator) IsNonWorkingDay(day generic.Date) bool {
	return !day.IsWorkdayWithHolidays(c.Calendar)
}

// TargetHours returns the expected hours for the record's day.
func (c Calculator) TargetHours(r Record, s Settings) decimal.Decimal {
	daily := DailyTarget(s)
	if r.AbsenceType == AbsenceHoliday || c.IsNonWorkingDay(r.WorkDate) {
		return decimal.Zero
	}
	return daily
}

// DailyBalance returns effective actual minus target.
func (c Calculator) DailyBalance(r Record, s Settings) decimal.Decimal {
	target := c.TargetHours(r, s)
	if r.AbsenceType.CreditedAsWorked() {
		return decimal.Zero
	}
	return generic.RoundHours(c.ActualHours(r).Sub(target))
}

// Day bundles the three values of one record.
type Day struct {
	Actual  decimal.Decimal
	Target  decimal.Decimal
	Balance decimal.Decimal
}

// Evaluate computes actual, target and balance in one pass.
func (c Calculator) Evaluate(r Record, s Settings) Day {
	return Day{
		Actual:  c.ActualHours(r),
		Target:  c.TargetHours(r, s),
		Balance: c.DailyBalance(r, s),
	}
}
