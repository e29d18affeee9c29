package vacation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/vacation"
)

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func days(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func vacationOn(dates ...generic.Date) []attendance.Record {
	var records []attendance.Record
	for _, d := range dates {
		r := attendance.EmptyRecord("user-1", d)
		r.AbsenceType = attendance.AbsenceVacation
		records = append(records, r)
	}
	return records
}

// 30 days a year, 5 days carried over from 2025.
func policySettings() attendance.Settings {
	s := attendance.DefaultSettings("user-1")
	s.Vacation = attendance.VacationPolicy{
		AnnualEntitlement: days("30"),
		CarryoverDays:     days("5"),
	}
	return s
}

func assertDays(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, decimal.RequireFromString(want).String(), got.String(), msgAndArgs...)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestSnapshot_NotConfigured(t *testing.T) {
	svc := vacation.NewService()
	s := attendance.DefaultSettings("user-1")

	snap := svc.Snapshot(vacationOn(date(2026, time.February, 2)), s, date(2026, time.March, 1))

	assert.False(t, snap.Configured)
	assert.False(t, snap.ExpiringSoon)
}

// =============================================================================
// BALANCE AND CARRYOVER
// =============================================================================

func TestSnapshot_BeforeCutoffIncludesCarryover(t *testing.T) {
	svc := vacation.NewService()
	records := vacationOn(date(2026, time.February, 2), date(2026, time.February, 3))

	snap := svc.Snapshot(records, policySettings(), date(2026, time.February, 1))

	assert.True(t, snap.Configured)
	assertDays(t, "30", snap.Entitlement)
	assertDays(t, "0", snap.Used, "records after as-of are not used yet")
	assertDays(t, "5", snap.Carryover)
	assertDays(t, "35", snap.Remaining)
	assert.Equal(t, date(2026, time.March, 31), snap.Cutoff)
	assert.False(t, snap.ExpiringSoon, "58 days to the cutoff")
}

func TestSnapshot_UnusedCarryoverForfeitedAfterCutoff(t *testing.T) {
	svc := vacation.NewService()

	// GIVEN: 2 days taken before the cutoff, 1 after
	records := vacationOn(date(2026, time.February, 2), date(2026, time.February, 3), date(2026, time.July, 6))

	// WHEN: Looking at the balance in summer
	snap := svc.Snapshot(records, policySettings(), date(2026, time.July, 31))

	// THEN: 3 of 5 carryover days are gone
	assertDays(t, "3", snap.CarryoverForfeited)
	assertDays(t, "2", snap.Carryover)
	assertDays(t, "3", snap.Used)
	assertDays(t, "29", snap.Remaining)
	assert.False(t, snap.ExpiringSoon)
}

func TestSnapshot_CarryoverFullyConsumed(t *testing.T) {
	svc := vacation.NewService()
	records := vacationOn(
		date(2026, time.January, 5), date(2026, time.January, 6), date(2026, time.January, 7),
		date(2026, time.January, 8), date(2026, time.January, 9), date(2026, time.January, 12),
	)

	snap := svc.Snapshot(records, policySettings(), date(2026, time.March, 25))
	assert.False(t, snap.ExpiringSoon, "nothing left to forfeit")

	snap = svc.Snapshot(records, policySettings(), date(2026, time.April, 1))
	assertDays(t, "0", snap.CarryoverForfeited)
	assertDays(t, "29", snap.Remaining)
}

func TestSnapshot_EntitlementGrantedEachYearFromTrackingStart(t *testing.T) {
	svc := vacation.NewService()
	s := policySettings()
	start := date(2025, time.June, 1)
	s.TrackingStart = &start
	s.Vacation.InitialBalance = days("12")

	records := vacationOn(date(2025, time.May, 30), date(2025, time.August, 4), date(2026, time.April, 20))

	snap := svc.Snapshot(records, s, date(2025, time.December, 31))
	assertDays(t, "42", snap.Entitlement, "initial balance plus the 2025 grant")
	assertDays(t, "1", snap.Used, "2025-05-30 predates tracking")

	snap = svc.Snapshot(records, s, date(2026, time.April, 30))
	assertDays(t, "72", snap.Entitlement)
	assertDays(t, "2", snap.Used)
	assertDays(t, "5", snap.CarryoverForfeited, "2026-04-20 is after the cutoff")
	assertDays(t, "70", snap.Remaining)
}

func TestSnapshot_TrackingStartYearGetsAnnualGrant(t *testing.T) {
	svc := vacation.NewService()

	// GIVEN: Tracking starts on Jan 1 of the current year, 30 days a year
	s := attendance.DefaultSettings("user-1")
	start := date(2026, time.January, 1)
	s.TrackingStart = &start
	s.Vacation = attendance.VacationPolicy{AnnualEntitlement: days("30")}

	// WHEN: Looking at the balance later that year with nothing taken
	snap := svc.Snapshot(nil, s, date(2026, time.May, 15))

	// THEN: The full year's grant is available
	assert.True(t, snap.Configured)
	assertDays(t, "30", snap.Entitlement)
	assertDays(t, "30", snap.Remaining)
}

func TestSnapshot_OnlyAnnualEntitlementRequired(t *testing.T) {
	svc := vacation.NewService()

	// GIVEN: A policy with just an annual entitlement
	s := attendance.DefaultSettings("user-1")
	s.Vacation = attendance.VacationPolicy{AnnualEntitlement: days("25")}

	// WHEN: Computing the snapshot
	snap := svc.Snapshot(vacationOn(date(2026, time.February, 2)), s, date(2026, time.March, 10))

	// THEN: It is configured, carryover is 0 and the cutoff is March 31
	assert.True(t, snap.Configured)
	assertDays(t, "25", snap.Entitlement)
	assertDays(t, "0", snap.Carryover)
	assertDays(t, "24", snap.Remaining)
	assert.Equal(t, date(2026, time.March, 31), snap.Cutoff)
	assert.False(t, snap.ExpiringSoon, "no carryover at risk")
}

func TestSnapshot_CustomCutoff(t *testing.T) {
	svc := vacation.NewService()
	s := policySettings()
	s.Vacation.CarryoverCutoff = &attendance.CarryoverCutoff{Month: time.June, Day: 30}

	snap := svc.Snapshot(nil, s, date(2026, time.June, 20))

	assert.Equal(t, date(2026, time.June, 30), snap.Cutoff)
	assert.Equal(t, 10, snap.DaysUntilCutoff)
	assert.True(t, snap.ExpiringSoon)
	assert.Equal(t, vacation.SeverityWarning, snap.Severity)
}

// =============================================================================
// EXPIRING-SOON WARNING
// =============================================================================

func TestSnapshot_ExpiringSoonWarning(t *testing.T) {
	svc := vacation.NewService()
	records := vacationOn(date(2026, time.February, 2), date(2026, time.February, 3))

	tests := []struct {
		asOf     generic.Date
		left     int
		severity vacation.Severity
	}{
		{date(2026, time.March, 1), 30, vacation.SeverityInfo},
		{date(2026, time.March, 16), 15, vacation.SeverityInfo},
		{date(2026, time.March, 17), 14, vacation.SeverityWarning},
		{date(2026, time.March, 24), 7, vacation.SeverityWarning},
		{date(2026, time.March, 25), 6, vacation.SeverityCritical},
		{date(2026, time.March, 31), 0, vacation.SeverityCritical},
	}
	for _, tt := range tests {
		snap := svc.Snapshot(records, policySettings(), tt.asOf)
		assert.True(t, snap.ExpiringSoon, tt.asOf)
		assert.Equal(t, tt.left, snap.DaysUntilCutoff, tt.asOf)
		assert.Equal(t, tt.severity, snap.Severity, tt.asOf)
		assertDays(t, "3", snap.DaysAtRisk, tt.asOf)
	}

	snap := svc.Snapshot(records, policySettings(), date(2026, time.February, 28))
	assert.False(t, snap.ExpiringSoon, "31 days left")
	assert.Equal(t, vacation.SeverityNone, snap.Severity)
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, vacation.SeverityCritical, vacation.SeverityFor(0))
	assert.Equal(t, vacation.SeverityCritical, vacation.SeverityFor(6))
	assert.Equal(t, vacation.SeverityWarning, vacation.SeverityFor(7))
	assert.Equal(t, vacation.SeverityWarning, vacation.SeverityFor(14))
	assert.Equal(t, vacation.SeverityInfo, vacation.SeverityFor(15))
	assert.Equal(t, vacation.SeverityInfo, vacation.SeverityFor(30))
	assert.Equal(t, vacation.SeverityNone, vacation.SeverityFor(31))
	assert.Equal(t, vacation.SeverityNone, vacation.SeverityFor(-1))
}

func TestCountVacationDays_InclusiveBounds(t *testing.T) {
	records := vacationOn(date(2026, time.March, 2), date(2026, time.March, 6))
	sick := attendance.EmptyRecord("user-1", date(2026, time.March, 4))
	sick.AbsenceType = attendance.AbsenceSick
	records = append(records, sick)

	assertDays(t, "2", vacation.CountVacationDays(records, date(2026, time.March, 2), date(2026, time.March, 6)))
	assertDays(t, "1", vacation.CountVacationDays(records, date(2026, time.March, 3), date(2026, time.March, 6)))
	assertDays(t, "0", vacation.CountVacationDays(records, date(2026, time.March, 3), date(2026, time.March, 5)))
}
