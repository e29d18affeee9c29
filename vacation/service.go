/*
service.go - Vacation Calculation Service

PURPOSE:
  Computes vacation entitlement, usage, carryover and the expiring-soon
  warning from a user's vacation policy and the VACATION-flagged records.
  Runs independently of the time balance.

VACATION YEAR:
  Jan 1 - Dec 31 of the as-of date. Carryover from the previous year is
  valid until the cutoff (default March 31) of that year.

ENTITLEMENT:
  AnnualEntitlement is granted once for the year tracking starts in and
  again on every Jan 1 after it, up to the as-of date. InitialBalance is
  an opening balance added on top. Without a tracking start the window is
  the as-of year and the entitlement is InitialBalance + AnnualEntitlement.

CARRYOVER:
  Vacation days taken between Jan 1 and the cutoff consume carryover first.
  After the cutoff, the unconsumed rest is forfeited:

    forfeited = max(0, carryover - used(Jan 1 .. cutoff))
    remaining = entitlement + carryover - forfeited - used(window)

WARNING:
  Until the cutoff, when it is at most 30 days away and some carryover is
  still unused, the snapshot is flagged ExpiringSoon with the days at risk:

    < 7 days   critical
    7-14 days  warning
    15-30 days info

NOT CONFIGURED:
  A policy without AnnualEntitlement yields Snapshot{Configured: false}.
  This is a valid state prompting setup, not an error. AnnualEntitlement is
  the only required field: a missing InitialBalance or CarryoverDays counts
  as 0 and a missing CarryoverCutoff as March 31.

SEE ALSO:
  - attendance/types.go: VacationPolicy
*/
package vacation

import (
	"github.com/shopspring/decimal"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// WarningThresholdDays is how close the cutoff must be to warn.
const WarningThresholdDays = 30

// Severity grades the expiring-soon warning.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityInfo     Severity = "info"     // 15-30 days left
	SeverityWarning  Severity = "warning"  // 7-14 days left
	SeverityCritical Severity = "critical" // fewer than 7 days left
)

// SeverityFor grades the number of days until the cutoff.
func SeverityFor(daysUntilCutoff int) Severity {
	switch {
	case daysUntilCutoff < 0 || daysUntilCutoff > WarningThresholdDays:
		return SeverityNone
	case daysUntilCutoff < 7:
		return SeverityCritical
	case daysUntilCutoff <= 14:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Snapshot is the derived vacation state as of one date.
type Snapshot struct {
	Configured bool
	AsOf       generic.Date

	Entitlement decimal.Decimal
	Used        decimal.Decimal

	// Carryover is the carryover still valid (after forfeiting).
	Carryover          decimal.Decimal
	CarryoverForfeited decimal.Decimal
	Cutoff             generic.Date

	Remaining decimal.Decimal

	ExpiringSoon    bool
	DaysAtRisk      decimal.Decimal
	DaysUntilCutoff int
	Severity        Severity
}

// Service computes vacation snapshots.
type Service struct{}

// NewService returns a vacation service.
func NewService() *Service { return &Service{} }

// CountVacationDays counts VACATION records dated in [from, to].
func CountVacationDays(records []attendance.Record, from, to generic.Date) decimal.Decimal {
	window := generic.Period{Start: from, End: to}
	n := int64(0)
	for _, r := range records {
		if r.AbsenceType == attendance.AbsenceVacation && window.Contains(r.WorkDate) {
			n++
		}
	}
	return decimal.NewFromInt(n)
}

// Snapshot computes the vacation state as of asOf.
func (s *Service) Snapshot(records []attendance.Record, settings attendance.Settings, asOf generic.Date) Snapshot {
	policy := settings.Vacation
	if policy.AnnualEntitlement == nil {
		return Snapshot{Configured: false, AsOf: asOf}
	}

	year := generic.YearOf(asOf.Year())
	cutoffRule := attendance.DefaultCarryoverCutoff
	if policy.CarryoverCutoff != nil {
		cutoffRule = *policy.CarryoverCutoff
	}
	cutoff := cutoffRule.In(asOf.Year())

	windowStart := year.Start
	if settings.TrackingStart != nil {
		windowStart = *settings.TrackingStart
	}

	snap := Snapshot{
		Configured:  true,
		AsOf:        asOf,
		Entitlement: entitlement(policy, settings.TrackingStart, asOf),
		Used:        CountVacationDays(records, windowStart, asOf),
		Cutoff:      cutoff,
		DaysAtRisk:  decimal.Zero,
	}

	carryover := valueOr(policy.CarryoverDays)
	yearStart := maxDate(year.Start, windowStart)
	usedThisYear := CountVacationDays(records, yearStart, asOf)

	snap.CarryoverForfeited = decimal.Zero
	if asOf.After(cutoff) {
		usedBeforeCutoff := CountVacationDays(records, yearStart, cutoff)
		snap.CarryoverForfeited = decimal.Max(decimal.Zero, carryover.Sub(usedBeforeCutoff))
	}
	snap.Carryover = carryover.Sub(snap.CarryoverForfeited)
	snap.Remaining = snap.Entitlement.Add(snap.Carryover).Sub(snap.Used)

	if asOf.BeforeOrEqual(cutoff) {
		snap.DaysUntilCutoff = generic.DaysBetween(asOf, cutoff)
		atRisk := decimal.Max(decimal.Zero, carryover.Sub(usedThisYear))
		if snap.DaysUntilCutoff <= WarningThresholdDays && atRisk.IsPositive() {
			snap.ExpiringSoon = true
			snap.DaysAtRisk = atRisk
			snap.Severity = SeverityFor(snap.DaysUntilCutoff)
		}
	}
	return snap
}

// entitlement is InitialBalance plus one AnnualEntitlement for every year
// from the tracking-start year through the as-of year, never fewer than one.
func entitlement(policy attendance.VacationPolicy, trackingStart *generic.Date, asOf generic.Date) decimal.Decimal {
	initial := valueOr(policy.InitialBalance)
	annual := valueOr(policy.AnnualEntitlement)
	grants := int64(1)
	if trackingStart != nil {
		grants = max(1, int64(asOf.Year()-trackingStart.Year()+1))
	}
	return initial.Add(annual.Mul(decimal.NewFromInt(grants)))
}

func valueOr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func maxDate(a, b generic.Date) generic.Date {
	if a.After(b) {
		return a
	}
	return b
}
