/*
Package generic provides the domain-agnostic building blocks of the
worktime engine.

PURPOSE:
  Attendance tracking, balances and vacation accounting all reason about
  calendar days, closed day ranges and fixed-point hour values. This package
  holds those primitives so the domain packages never touch time.Time
  arithmetic or float64 directly.

KEY CONCEPTS:
  - Date: A calendar day (UTC midnight), compared and iterated day by day
  - TimeOfDay: Minutes after midnight for start/end of work
  - Period: A closed [Start, End] range of days (week, month, year)
  - Hours: decimal.Decimal values rounded to two places, rendered as H:MM
  - HolidayCalendar: Lookup interface implemented by package holiday
  - UserID / RecordID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, no floating-point drift
  2. Purity: No I/O, no clock reads except Today()
  3. Type Safety: Distinct ID types prevent mixing users and records

SEE ALSO:
  - time.go: Date, TimeOfDay, HolidayCalendar
  - period.go: Period and week/month partitioning
  - hours.go: Rounding and rendering
  - errors.go: Error taxonomy
*/
package generic

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type RecordID string
