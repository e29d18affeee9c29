/*
hours.go - Fixed-point hour arithmetic and H:MM rendering

PURPOSE:
  All hour values in the system are decimal.Decimal, never float64.
  Monthly sums of 7.5h + 6.4h + ... must equal what the user sees per day,
  so values are rounded to two fractional digits at the point they are
  produced and rendered by converting to whole minutes.

RENDERING:
  FormatHours(6.4)      -> "6:24h"
  FormatHours(149.6333) -> "149:38h"
  FormatBalance(1.5)    -> "+1:30"
  FormatBalance(-0.75)  -> "-0:45"
  FormatDuration(500)   -> "8:20h"   (input in minutes)

SEE ALSO:
  - attendance/calc.go: Produces hour values
  - api/dto.go: Serializes them
*/
package generic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// HourPlaces is the number of fractional digits kept for hour values.
const HourPlaces = 2

var (
	sixty   = decimal.NewFromInt(60)
	hmRegex = regexp.MustCompile(`^(-?)(\d+):(\d{2})$`)
)

// RoundHours rounds to HourPlaces (half away from zero).
func RoundHours(d decimal.Decimal) decimal.Decimal { return d.Round(HourPlaces) }

// HoursFromMinutes converts whole minutes to rounded decimal hours.
func HoursFromMinutes(minutes int) decimal.Decimal {
	return RoundHours(decimal.NewFromInt(int64(minutes)).Div(sixty))
}

// MinutesOf converts decimal hours to whole minutes (rounded).
func MinutesOf(hours decimal.Decimal) int64 {
	return hours.Mul(sixty).Round(0).IntPart()
}

// SumHours adds values and rounds once at the end.
func SumHours(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return RoundHours(total)
}

func splitMinutes(total int64) (sign string, hours, minutes int64) {
	if total < 0 {
		sign = "-"
		total = -total
	}
	return sign, total / 60, total % 60
}

// FormatHours renders hours as "H:MMh"; nil renders "-".
func FormatHours(hours *decimal.Decimal) string {
	if hours == nil {
		return "-"
	}
	sign, h, m := splitMinutes(MinutesOf(*hours))
	return fmt.Sprintf("%s%d:%02dh", sign, h, m)
}

// FormatBalance renders a balance with explicit sign, "+H:MM" or "-H:MM".
func FormatBalance(hours *decimal.Decimal) string {
	if hours == nil {
		return "-"
	}
	sign, h, m := splitMinutes(MinutesOf(*hours))
	if sign == "" {
		sign = "+"
	}
	return fmt.Sprintf("%s%d:%02d", sign, h, m)
}

// FormatDuration renders whole minutes as "H:MMh"; nil renders "-".
func FormatDuration(minutes *int) string {
	if minutes == nil {
		return "-"
	}
	sign, h, m := splitMinutes(int64(*minutes))
	return fmt.Sprintf("%s%d:%02dh", sign, h, m)
}

// ParseHours accepts "H:MM" (optionally negative), a decimal point or a
// German decimal comma ("38,5").
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if m := hmRegex.FindStringSubmatch(s); m != nil {
		h, _ := decimal.NewFromString(m[2])
		min, _ := decimal.NewFromString(m[3])
		if min.GreaterThanOrEqual(sixty) {
			return decimal.Zero, fmt.Errorf("invalid hours %q: minutes must be below 60", s)
		}
		v := h.Add(min.Div(sixty))
		if m[1] == "-" {
			v = v.Neg()
		}
		return RoundHours(v), nil
	}
	v, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid hours %q: %w", s, err)
	}
	return v, nil
}

// MustParseDecimal parses s or returns zero.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
