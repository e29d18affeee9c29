package attendance

import "github.com/verk/worktime/generic"

// Prefill is the suggested content of a new record for a day.
type Prefill struct {
	WorkDate     generic.Date
	StartTime    *generic.TimeOfDay
	EndTime      *generic.TimeOfDay
	BreakMinutes int
	AbsenceType  AbsenceType
	HolidayName  string
}

// Defaults derives the pre-fill for a new record on day. Public holidays
// and disabled weekdays get no times and a zero break.
func (c Calculator) Defaults(day generic.Date, s Settings) Prefill {
	p := Prefill{WorkDate: day, AbsenceType: AbsenceNone}

	if c.Calendar != nil {
		if ok, name := c.Calendar.IsHoliday(day); ok {
			p.AbsenceType = AbsenceHoliday
			p.HolidayName = name
			return p
		}
	}

	sched := s.Schedule.Day(day.Weekday())
	if !sched.Enabled {
		return p
	}
	p.StartTime = sched.StartTime
	p.EndTime = sched.EndTime
	p.BreakMinutes = sched.BreakMinutes
	return p
}

// Record turns the pre-fill into a draft record for userID.
func (p Prefill) Record(userID generic.UserID) Record {
	return Record{
		UserID:       userID,
		WorkDate:     p.WorkDate,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		BreakMinutes: p.BreakMinutes,
		AbsenceType:  p.AbsenceType,
		Status:       StatusDraft,
	}
}
