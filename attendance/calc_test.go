package attendance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func tod(s string) *generic.TimeOfDay {
	t, err := generic.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func settings(weekly string) attendance.Settings {
	s := attendance.DefaultSettings("user-1")
	s.WeeklyTargetHours = decimal.RequireFromString(weekly)
	return s
}

func worked(day generic.Date, start, end string, breakMin int) attendance.Record {
	return attendance.Record{
		UserID:       "user-1",
		WorkDate:     day,
		StartTime:    tod(start),
		EndTime:      tod(end),
		BreakMinutes: breakMin,
		AbsenceType:  attendance.AbsenceNone,
		Status:       attendance.StatusDraft,
	}
}

func absent(day generic.Date, a attendance.AbsenceType) attendance.Record {
	r := attendance.EmptyRecord("user-1", day)
	r.AbsenceType = a
	return r
}

func assertHours(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

var (
	monday   = date(2026, time.January, 12)
	saturday = date(2026, time.January, 17)
	sunday   = date(2026, time.January, 18)
)

// =============================================================================
// ACTUAL HOURS
// =============================================================================

func TestActualHours_WithBreak(t *testing.T) {
	// 07:00-15:00 with 30 minutes break
	assertHours(t, "7.50", attendance.ActualHours(worked(monday, "07:00", "15:00", 30)))
}

func TestActualHours_NoBreak(t *testing.T) {
	assertHours(t, "5.00", attendance.ActualHours(worked(monday, "07:00", "12:00", 0)))
}

func TestActualHours_MissingTimeIsZero(t *testing.T) {
	r := worked(monday, "07:00", "15:00", 0)
	r.EndTime = nil
	assertHours(t, "0.00", attendance.ActualHours(r))

	r = worked(monday, "07:00", "15:00", 0)
	r.StartTime = nil
	assertHours(t, "0.00", attendance.ActualHours(r))
}

func TestActualHours_NotClamped(t *testing.T) {
	// Rejected by Validate, but the primitive stays total.
	assertHours(t, "-2.00", attendance.ActualHours(worked(monday, "15:00", "13:00", 0)))
}

func TestActualHours_OddMinutes(t *testing.T) {
	// 08:00-16:20 minus 45 = 7:35 = 7.5833 -> 7.58
	assertHours(t, "7.58", attendance.ActualHours(worked(monday, "08:00", "16:20", 45)))
}

// =============================================================================
// TARGET HOURS
// =============================================================================

func TestTargetHours_PartTimeMonday(t *testing.T) {
	assertHours(t, "6.40", attendance.TargetHours(worked(monday, "07:00", "15:00", 30), settings("32")))
}

func TestTargetHours_WeekendAlwaysZero(t *testing.T) {
	s := settings("40")
	for _, a := range []attendance.AbsenceType{
		attendance.AbsenceNone, attendance.AbsenceVacation, attendance.AbsenceSick,
		attendance.AbsenceHoliday, attendance.AbsenceFlexTime,
	} {
		assertHours(t, "0.00", attendance.TargetHours(absent(saturday, a), s), a)
		assertHours(t, "0.00", attendance.TargetHours(absent(sunday, a), s), a)
	}
}

func TestTargetHours_AbsencesKeepTarget(t *testing.T) {
	s := settings("40")
	assertHours(t, "8.00", attendance.TargetHours(absent(monday, attendance.AbsenceVacation), s))
	assertHours(t, "8.00", attendance.TargetHours(absent(monday, attendance.AbsenceSick), s))
	assertHours(t, "8.00", attendance.TargetHours(absent(monday, attendance.AbsenceFlexTime), s))
	assertHours(t, "0.00", attendance.TargetHours(absent(monday, attendance.AbsenceHoliday), s))
}

func TestTargetHours_CalendarHolidayWithoutFlag(t *testing.T) {
	// Karfreitag 2026 is a Friday
	goodFriday := date(2026, time.April, 3)
	s := settings("40")

	assertHours(t, "0.00", attendance.TargetHours(attendance.EmptyRecord("user-1", goodFriday), s))

	manualOnly := attendance.Calculator{}
	assertHours(t, "8.00", manualOnly.TargetHours(attendance.EmptyRecord("user-1", goodFriday), s))
}

func TestDailyTarget_RoundedPerDay(t *testing.T) {
	// GIVEN: A weekly target not divisible by 5 at two places
	s := settings("38.33")

	// WHEN: Summing the targets of a full Monday to Friday week
	week := decimal.Zero
	for i := 0; i < 5; i++ {
		week = week.Add(attendance.TargetHours(absent(monday.AddDays(i), attendance.AbsenceNone), s))
	}

	// THEN: Each day carries the rounded daily target
	assertHours(t, "7.67", attendance.DailyTarget(s))
	assertHours(t, "38.35", week)
}

func TestTargetHours_NegativeWeeklyTargetPanics(t *testing.T) {
	s := settings("-1")
	assert.Panics(t, func() { attendance.TargetHours(absent(monday, attendance.AbsenceNone), s) })

	var settingsErr *generic.SettingsError
	require.ErrorAs(t, s.Validate(), &settingsErr)
	assert.Equal(t, "weekly_target_hours", settingsErr.Field)
}

// =============================================================================
// DAILY BALANCE
// =============================================================================

func TestDailyBalance_CreditedAbsencesAreNeutral(t *testing.T) {
	s := settings("40")
	for _, day := range []generic.Date{monday, saturday} {
		for _, a := range []attendance.AbsenceType{attendance.AbsenceVacation, attendance.AbsenceSick, attendance.AbsenceHoliday} {
			assertHours(t, "0.00", attendance.DailyBalance(absent(day, a), s), "%s %s", day, a)
		}
	}
}

func TestDailyBalance_SickIgnoresActualHours(t *testing.T) {
	r := worked(monday, "07:00", "09:00", 0)
	r.AbsenceType = attendance.AbsenceSick
	assertHours(t, "0.00", attendance.DailyBalance(r, settings("40")))
}

func TestDailyBalance_FlexTimeConsumesBalance(t *testing.T) {
	assertHours(t, "-8.00", attendance.DailyBalance(absent(monday, attendance.AbsenceFlexTime), settings("40")))

	r := worked(monday, "08:00", "12:00", 0)
	r.AbsenceType = attendance.AbsenceFlexTime
	assertHours(t, "-4.00", attendance.DailyBalance(r, settings("40")))
}

func TestDailyBalance_UnexplainedEmptyDay(t *testing.T) {
	r := attendance.EmptyRecord("user-1", monday)
	s := settings("32")

	day := attendance.DefaultCalculator.Evaluate(r, s)
	assertHours(t, "0.00", day.Actual)
	assertHours(t, "6.40", day.Target)
	assertHours(t, "-6.40", day.Balance)
}

func TestDailyBalance_Overtime(t *testing.T) {
	assertHours(t, "2.00", attendance.DailyBalance(worked(monday, "07:00", "17:30", 30), settings("40")))
	assertHours(t, "4.00", attendance.DailyBalance(worked(saturday, "08:00", "12:00", 0), settings("40")))
}

func TestDailyBalance_Idempotent(t *testing.T) {
	r := worked(monday, "07:13", "15:59", 17)
	s := settings("38.5")
	first := attendance.DailyBalance(r, s)
	for i := 0; i < 100; i++ {
		require.True(t, first.Equal(attendance.DailyBalance(r, s)))
	}
}
