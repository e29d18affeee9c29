package worktime_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/worktime"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func worked(day generic.Date, start, end string, breakMin int) attendance.Record {
	s, err := generic.ParseTimeOfDay(start)
	if err != nil {
		panic(err)
	}
	e, err := generic.ParseTimeOfDay(end)
	if err != nil {
		panic(err)
	}
	r := attendance.EmptyRecord("user-1", day)
	r.StartTime, r.EndTime, r.BreakMinutes = &s, &e, breakMin
	return r
}

func assertHours(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

// trackedFromJan12 starts tracking on Monday 2026-01-12 with 5 hours of
// pre-existing overtime.
func trackedFromJan12() attendance.Settings {
	s := attendance.DefaultSettings("user-1")
	start := date(2026, time.January, 12)
	s.TrackingStart = &start
	s.InitialHoursOffset = decimal.NewFromInt(5)
	return s
}

func januaryRecords() []attendance.Record {
	return []attendance.Record{
		worked(date(2026, time.January, 9), "07:00", "17:00", 0),  // +2, before tracking start
		worked(date(2026, time.January, 12), "07:00", "16:00", 0), // +1
		worked(date(2026, time.January, 13), "08:00", "16:00", 0), // 0
	}
}

// =============================================================================
// PERIOD BALANCE
// =============================================================================

func TestPeriodBalance_TrackingStartBoundary(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	// GIVEN: One record the day before the tracking start, one on it
	before := worked(date(2026, time.January, 11), "08:00", "12:00", 0) // Sunday, +4
	on := worked(date(2026, time.January, 12), "08:00", "17:00", 0)     // +1

	// THEN: Only the record on the boundary counts
	assertHours(t, "1.00", svc.PeriodBalance([]attendance.Record{before, on}, s, false))
	assertHours(t, "0.00", svc.PeriodBalance([]attendance.Record{before}, s, false))
}

func TestPeriodBalance_OffsetOnlyWithCarryover(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	assertHours(t, "1.00", svc.PeriodBalance(januaryRecords(), s, false))
	assertHours(t, "6.00", svc.PeriodBalance(januaryRecords(), s, true))
}

func TestPeriodBalance_NegativeOffset(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()
	s.InitialHoursOffset = decimal.RequireFromString("-12.5")

	assertHours(t, "-11.50", svc.PeriodBalance(januaryRecords(), s, true))
}

// =============================================================================
// ALL-TIME BALANCE
// =============================================================================

func TestAllTimeBalance_OffsetAppliedOnceAtBoundary(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	assertHours(t, "0.00", svc.AllTimeBalance(januaryRecords(), s, date(2026, time.January, 11)))
	assertHours(t, "6.00", svc.AllTimeBalance(januaryRecords(), s, date(2026, time.January, 12)))
	assertHours(t, "6.00", svc.AllTimeBalance(januaryRecords(), s, date(2026, time.December, 31)))
}

func TestAllTimeBalance_NoTrackingStart(t *testing.T) {
	svc := worktime.NewService()
	s := attendance.DefaultSettings("user-1")
	s.InitialHoursOffset = decimal.NewFromInt(3)

	// Every record counts, including the one on 2026-01-09.
	assertHours(t, "6.00", svc.AllTimeBalance(januaryRecords(), s, date(2026, time.January, 31)))
}

// =============================================================================
// WEEKLY SUMMARY
// =============================================================================

func TestWeeklySummary_FillsMissingDays(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	// WHEN: Asking for the week from a Wednesday
	w := svc.WeeklySummary(januaryRecords(), s, date(2026, time.January, 14))

	// THEN: The week snaps to Monday and has seven days
	assert.Equal(t, date(2026, time.January, 12), w.WeekStart)
	assert.Equal(t, date(2026, time.January, 18), w.WeekEnd)
	require.Len(t, w.Days, 7)

	assert.True(t, w.Days[0].HasRecord)
	assert.True(t, w.Days[1].HasRecord)
	assert.False(t, w.Days[2].HasRecord)
	assertHours(t, "-8.00", w.Days[2].Balance, "unexplained workday")
	assertHours(t, "0.00", w.Days[5].Target, "saturday")

	assertHours(t, "17.00", w.TotalActual)
	assertHours(t, "40.00", w.TotalTarget)
	assertHours(t, "-23.00", w.TotalBalance)
}

func TestWeeklySummary_UntrackedDaysAreZero(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	w := svc.WeeklySummary(januaryRecords(), s, date(2026, time.January, 5))

	for _, d := range w.Days {
		assert.False(t, d.Tracked, d.Date)
	}
	assert.True(t, w.Days[4].HasRecord, "record on 2026-01-09 is shown")
	assertHours(t, "0.00", w.TotalBalance)
	assertHours(t, "0.00", w.TotalTarget)
}

func TestWeeklySummary_HolidayWeek(t *testing.T) {
	svc := worktime.NewService()
	s := attendance.DefaultSettings("user-1")

	// Easter week 2026: Karfreitag 04-03, Ostermontag 04-06
	w := svc.WeeklySummary(nil, s, date(2026, time.March, 30))
	assertHours(t, "32.00", w.TotalTarget)

	w = svc.WeeklySummary(nil, s, date(2026, time.April, 6))
	assertHours(t, "32.00", w.TotalTarget)
}

// =============================================================================
// MONTHLY SUMMARY
// =============================================================================

func TestMonthlySummary_FirstTrackedMonth(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	m := svc.MonthlySummary(januaryRecords(), s, 2026, time.January)

	// 2025-12-29 .. 2026-02-01
	require.Len(t, m.Weeks, 5)
	assert.Equal(t, date(2025, time.December, 29), m.Weeks[0].WeekStart)

	// 15 tracked workdays from 01-12, two of them recorded
	assertHours(t, "17.00", m.TotalActual)
	assertHours(t, "120.00", m.TotalTarget)
	assertHours(t, "-103.00", m.PeriodBalance)
	assertHours(t, "5.00", m.CarryoverIn, "offset at the boundary month")
	assertHours(t, "6.00", m.CarryoverOut, "offset plus recorded balance through 01-31")
}

func TestMonthlySummary_LaterMonthCarriesCumulativeBalance(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()
	records := append(januaryRecords(),
		worked(date(2026, time.February, 2), "07:00", "17:00", 30), // +1.5
	)

	// GIVEN: January closes with workdays that have no record
	jan := svc.MonthlySummary(records, s, 2026, time.January)
	feb := svc.MonthlySummary(records, s, 2026, time.February)
	mar := svc.MonthlySummary(records, s, 2026, time.March)

	// THEN: Each month opens where the previous one closed
	assertHours(t, "6.00", feb.CarryoverIn)
	assertHours(t, jan.CarryoverOut.StringFixed(2), feb.CarryoverIn)
	assertHours(t, "7.50", feb.CarryoverOut)
	assertHours(t, feb.CarryoverOut.StringFixed(2), mar.CarryoverIn)

	// AND: Carryover follows the cumulative balance, not the summary totals
	assertHours(t, svc.AllTimeBalance(records, s, date(2026, time.February, 28)).StringFixed(2), feb.CarryoverOut)
	assert.False(t, feb.CarryoverIn.Add(feb.PeriodBalance).Equal(feb.CarryoverOut))
}

func TestMonthlySummary_ChainAcrossYear(t *testing.T) {
	svc := worktime.NewService()
	s := attendance.DefaultSettings("user-1")
	s.InitialHoursOffset = decimal.RequireFromString("-2.25")
	records := []attendance.Record{
		worked(date(2025, time.November, 28), "08:00", "17:00", 30), // +0.5
		worked(date(2025, time.December, 1), "08:00", "15:00", 0),   // -1
		worked(date(2026, time.January, 5), "08:00", "18:00", 45),   // +1.25
	}

	// WHEN: No tracking start, so the offset is part of every carryover
	prev := svc.MonthlySummary(records, s, 2025, time.November)
	for _, ym := range []struct {
		year  int
		month time.Month
	}{{2025, time.December}, {2026, time.January}, {2026, time.February}} {
		m := svc.MonthlySummary(records, s, ym.year, ym.month)

		// THEN: The chain never breaks
		assertHours(t, prev.CarryoverOut.StringFixed(2), m.CarryoverIn, "%d-%02d", ym.year, ym.month)
		prev = m
	}
	assertHours(t, "-1.50", prev.CarryoverOut)
}

func TestMonthlySummary_BeforeTrackingStart(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()

	m := svc.MonthlySummary(januaryRecords(), s, 2025, time.December)

	assertHours(t, "0.00", m.TotalActual)
	assertHours(t, "0.00", m.TotalTarget)
	assertHours(t, "0.00", m.PeriodBalance)
	assertHours(t, "0.00", m.CarryoverIn)
	assertHours(t, "0.00", m.CarryoverOut)
}

func TestMonthlySummary_PublicHolidays(t *testing.T) {
	svc := worktime.NewService()
	s := attendance.DefaultSettings("user-1")

	// May 2026: 21 weekdays, three of them holidays (05-01, 05-14, 05-25)
	m := svc.MonthlySummary(nil, s, 2026, time.May)

	assertHours(t, "144.00", m.TotalTarget)
	assertHours(t, "-144.00", m.PeriodBalance)
	assertHours(t, "0.00", m.CarryoverIn)
}

func TestMonthlySummary_RoundTripWithWeeklySummaries(t *testing.T) {
	svc := worktime.NewService()
	s := trackedFromJan12()
	s.WeeklyTargetHours = decimal.RequireFromString("38.5")

	records := append(januaryRecords(),
		worked(date(2026, time.January, 30), "07:13", "15:59", 17),
		worked(date(2026, time.February, 2), "07:00", "15:00", 30),
	)
	m := svc.MonthlySummary(records, s, 2026, time.January)
	month := m.Period()

	// Re-derive the totals from independent weekly summaries, restricted
	// to days inside the month.
	actual, target, balance := decimal.Zero, decimal.Zero, decimal.Zero
	for _, week := range month.Weeks() {
		w := svc.WeeklySummary(records, s, week.Start)
		for _, d := range w.Days {
			if month.Contains(d.Date) {
				actual = actual.Add(d.Actual)
				target = target.Add(d.Target)
				balance = balance.Add(d.Balance)
			}
		}
	}

	assert.True(t, m.TotalActual.Equal(actual), "actual %s vs %s", m.TotalActual, actual)
	assert.True(t, m.TotalTarget.Equal(target), "target %s vs %s", m.TotalTarget, target)
	assert.True(t, m.PeriodBalance.Equal(balance), "balance %s vs %s", m.PeriodBalance, balance)
	assert.Len(t, m.Days(), 31)
}
