/*
Package holiday implements the public holiday calendar used for target hours.

PURPOSE:
  Decides whether a date is a German nationwide public holiday and returns
  its German display name. Fixed-date holidays are listed directly; movable
  holidays are offsets from Easter Sunday, which is computed per year with
  the anonymous Gregorian algorithm (Meeus/Jones/Butcher). No lookup tables,
  so every Gregorian year works.

NATIONWIDE HOLIDAYS:
  Neujahr                    Jan 1
  Karfreitag                 Easter - 2
  Ostermontag                Easter + 1
  Tag der Arbeit             May 1
  Christi Himmelfahrt        Easter + 39
  Pfingstmontag              Easter + 50
  Tag der Deutschen Einheit  Oct 3
  1. Weihnachtstag           Dec 25
  2. Weihnachtstag           Dec 26

  Regional holidays (Fronleichnam, Reformationstag, ...) are not included.

SEE ALSO:
  - generic/time.go: HolidayCalendar interface
  - attendance/calc.go: Uses the calendar for target hours
*/
package holiday

import (
	"sort"
	"time"

	"github.com/verk/worktime/generic"
)

// Germany is the nationwide German holiday calendar. The zero value is ready to use.
type Germany struct{}

// Compile-time check that Germany implements generic.HolidayCalendar
var _ generic.HolidayCalendar = Germany{}

type rule struct {
	name string
	date func(year int, easter generic.Date) generic.Date
}

func fixed(month time.Month, day int) func(int, generic.Date) generic.Date {
	return func(year int, _ generic.Date) generic.Date { return generic.NewDate(year, month, day) }
}

func fromEaster(days int) func(int, generic.Date) generic.Date {
	return func(_ int, easter generic.Date) generic.Date { return easter.AddDays(days) }
}

var germanRules = []rule{
	{"Neujahr", fixed(time.January, 1)},
	{"Karfreitag", fromEaster(-2)},
	{"Ostermontag", fromEaster(1)},
	{"Tag der Arbeit", fixed(time.May, 1)},
	{"Christi Himmelfahrt", fromEaster(39)},
	{"Pfingstmontag", fromEaster(50)},
	{"Tag der Deutschen Einheit", fixed(time.October, 3)},
	{"1. Weihnachtstag", fixed(time.December, 25)},
	{"2. Weihnachtstag", fixed(time.December, 26)},
}

// IsHoliday reports whether date is a nationwide holiday and its name.
func (Germany) IsHoliday(date generic.Date) (bool, string) {
	easter := Easter(date.Year())
	for _, r := range germanRules {
		if r.date(date.Year(), easter).Equal(date) {
			return true, r.name
		}
	}
	return false, ""
}

// Holidays returns the holidays of year ordered by date.
func (Germany) Holidays(year int) []generic.Holiday {
	easter := Easter(year)
	out := make([]generic.Holiday, 0, len(germanRules))
	for _, r := range germanRules {
		out = append(out, generic.Holiday{Date: r.date(year, easter), Name: r.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// IsHoliday checks date against the German calendar.
func IsHoliday(date generic.Date) (bool, string) {
	return Germany{}.IsHoliday(date)
}

// Easter returns Easter Sunday of the given Gregorian year.
func Easter(year int) generic.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewDate(year, time.Month(month), day)
}
