/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's value objects from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Hours and vacation days travel as decimal strings ("7.50") so clients
  never see floating point. Every hour value also has a display twin in
  H:MM notation ("7:30h", "+1:30").

INPUT FORMATS:
  Requests accept what the German UI sends: decimal commas ("38,5"),
  H:MM offsets ("-5:30") and DD.MM.YYYY dates next to ISO dates.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - messages.go: Text for validation keys
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/vacation"
	"github.com/verk/worktime/worktime"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordDTO represents an attendance record in API responses.
type RecordDTO struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	WorkDate     string  `json:"work_date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakMinutes int     `json:"break_minutes"`
	AbsenceType  string  `json:"absence_type"`
	Notes        string  `json:"notes"`
	Status       string  `json:"status"`
	Version      string  `json:"version"`

	ActualHours    string `json:"actual_hours"`
	TargetHours    string `json:"target_hours"`
	Balance        string `json:"balance"`
	ActualDisplay  string `json:"actual_display"`
	BalanceDisplay string `json:"balance_display"`
	BreakDisplay   string `json:"break_display"`
}

// RecordRequest is the body of create and update calls.
type RecordRequest struct {
	WorkDate     string  `json:"work_date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakMinutes int     `json:"break_minutes"`
	AbsenceType  string  `json:"absence_type"`
	Notes        string  `json:"notes"`
	Version      string  `json:"version,omitempty"` // required on update
}

// VersionRequest carries the version token for submit.
type VersionRequest struct {
	Version string `json:"version"`
}

// PrefillDTO is the suggested content of a new record.
type PrefillDTO struct {
	WorkDate     string  `json:"work_date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakMinutes int     `json:"break_minutes"`
	AbsenceType  string  `json:"absence_type"`
	HolidayName  string  `json:"holiday_name,omitempty"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// DayScheduleDTO is one weekday of the schedule.
type DayScheduleDTO struct {
	Enabled      bool    `json:"enabled"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakMinutes int     `json:"break_minutes"`
}

// SettingsDTO is both the response and the PUT body for user settings.
type SettingsDTO struct {
	UserID            string                    `json:"user_id,omitempty"`
	WeeklyTargetHours string                    `json:"weekly_target_hours"`
	Schedule          map[string]DayScheduleDTO `json:"weekday_schedule"`

	TrackingStartDate  *string `json:"tracking_start_date"`
	InitialHoursOffset string  `json:"initial_hours_offset"`

	VacationInitialBalance      *string `json:"vacation_initial_balance"`
	VacationAnnualEntitlement   *string `json:"vacation_annual_entitlement"`
	VacationCarryoverDays       *string `json:"vacation_carryover_days"`
	VacationCarryoverExpiration *string `json:"vacation_carryover_expiration"` // "MM-DD"

	Version string `json:"version"`
}

// =============================================================================
// SUMMARIES
// =============================================================================

type DaySummaryDTO struct {
	Date           string `json:"date"`
	Weekday        string `json:"weekday"`
	ActualHours    string `json:"actual_hours"`
	TargetHours    string `json:"target_hours"`
	Balance        string `json:"balance"`
	ActualDisplay  string `json:"actual_display"`
	BalanceDisplay string `json:"balance_display"`
	AbsenceType    string `json:"absence_type"`
	HasRecord      bool   `json:"has_record"`
	Tracked        bool   `json:"tracked"`
}

type WeeklySummaryDTO struct {
	WeekStart      string          `json:"week_start"`
	WeekEnd        string          `json:"week_end"`
	Days           []DaySummaryDTO `json:"days"`
	TotalActual    string          `json:"total_actual"`
	TotalTarget    string          `json:"total_target"`
	TotalBalance   string          `json:"total_balance"`
	BalanceDisplay string          `json:"balance_display"`
}

type MonthlySummaryDTO struct {
	Year          int                `json:"year"`
	Month         int                `json:"month"`
	Weeks         []WeeklySummaryDTO `json:"weeks"`
	TotalActual   string             `json:"total_actual"`
	TotalTarget   string             `json:"total_target"`
	PeriodBalance string             `json:"period_balance"`
	CarryoverIn   string             `json:"carryover_in"`
	CarryoverOut  string             `json:"carryover_out"`

	ActualDisplay       string `json:"actual_display"`
	CarryoverOutDisplay string `json:"carryover_out_display"`
}

// BalanceDTO is the cumulative balance through a date.
type BalanceDTO struct {
	Through string `json:"through"`
	Balance string `json:"balance"`
	Display string `json:"display"`
}

// =============================================================================
// VACATION
// =============================================================================

type VacationWarningDTO struct {
	Severity        string `json:"severity"`
	Message         string `json:"message"`
	DaysExpiring    string `json:"days_expiring"`
	ExpiryDate      string `json:"expiry_date"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
}

type VacationDTO struct {
	Configured         bool                `json:"configured"`
	AsOf               string              `json:"as_of"`
	Entitlement        string              `json:"total_entitlement,omitempty"`
	Used               string              `json:"days_used,omitempty"`
	Carryover          string              `json:"carryover_days,omitempty"`
	CarryoverForfeited string              `json:"carryover_forfeited,omitempty"`
	CarryoverExpires   string              `json:"carryover_expires,omitempty"`
	Remaining          string              `json:"days_remaining,omitempty"`
	Warning            *VacationWarningDTO `json:"warning,omitempty"`
}

// =============================================================================
// HOLIDAYS AND ERRORS
// =============================================================================

type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// FieldErrorDTO is one validation failure.
type FieldErrorDTO struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS - domain to DTO
// =============================================================================

func hours(d decimal.Decimal) string { return d.StringFixed(generic.HourPlaces) }

func timeStr(t *generic.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func decimalStr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func toRecordDTO(r attendance.Record, day attendance.Day) RecordDTO {
	return RecordDTO{
		ID:             string(r.ID),
		UserID:         string(r.UserID),
		WorkDate:       r.WorkDate.String(),
		StartTime:      timeStr(r.StartTime),
		EndTime:        timeStr(r.EndTime),
		BreakMinutes:   r.BreakMinutes,
		AbsenceType:    string(r.AbsenceType),
		Notes:          r.Notes,
		Status:         string(r.Status),
		Version:        r.Version,
		ActualHours:    hours(day.Actual),
		TargetHours:    hours(day.Target),
		Balance:        hours(day.Balance),
		ActualDisplay:  generic.FormatHours(&day.Actual),
		BalanceDisplay: generic.FormatBalance(&day.Balance),
		BreakDisplay:   generic.FormatDuration(&r.BreakMinutes),
	}
}

func toPrefillDTO(p attendance.Prefill) PrefillDTO {
	return PrefillDTO{
		WorkDate:     p.WorkDate.String(),
		StartTime:    timeStr(p.StartTime),
		EndTime:      timeStr(p.EndTime),
		BreakMinutes: p.BreakMinutes,
		AbsenceType:  string(p.AbsenceType),
		HolidayName:  p.HolidayName,
	}
}

var weekdayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func toSettingsDTO(s attendance.Settings) SettingsDTO {
	dto := SettingsDTO{
		UserID:                    string(s.UserID),
		WeeklyTargetHours:         s.WeeklyTargetHours.String(),
		Schedule:                  make(map[string]DayScheduleDTO, len(s.Schedule)),
		InitialHoursOffset:        s.InitialHoursOffset.String(),
		VacationInitialBalance:    decimalStr(s.Vacation.InitialBalance),
		VacationAnnualEntitlement: decimalStr(s.Vacation.AnnualEntitlement),
		VacationCarryoverDays:     decimalStr(s.Vacation.CarryoverDays),
		Version:                   s.Version,
	}
	for wd, d := range s.Schedule {
		dto.Schedule[weekdayKeys[wd]] = DayScheduleDTO{
			Enabled:      d.Enabled,
			StartTime:    timeStr(d.StartTime),
			EndTime:      timeStr(d.EndTime),
			BreakMinutes: d.BreakMinutes,
		}
	}
	if s.TrackingStart != nil {
		v := s.TrackingStart.String()
		dto.TrackingStartDate = &v
	}
	if c := s.Vacation.CarryoverCutoff; c != nil {
		v := fmt.Sprintf("%02d-%02d", int(c.Month), c.Day)
		dto.VacationCarryoverExpiration = &v
	}
	return dto
}

func toDaySummaryDTO(d worktime.DaySummary) DaySummaryDTO {
	return DaySummaryDTO{
		Date:           d.Date.String(),
		Weekday:        weekdayKeys[d.Date.Weekday()],
		ActualHours:    hours(d.Actual),
		TargetHours:    hours(d.Target),
		Balance:        hours(d.Balance),
		ActualDisplay:  generic.FormatHours(&d.Actual),
		BalanceDisplay: generic.FormatBalance(&d.Balance),
		AbsenceType:    string(d.AbsenceType),
		HasRecord:      d.HasRecord,
		Tracked:        d.Tracked,
	}
}

func toWeeklySummaryDTO(w worktime.WeeklySummary) WeeklySummaryDTO {
	dto := WeeklySummaryDTO{
		WeekStart:      w.WeekStart.String(),
		WeekEnd:        w.WeekEnd.String(),
		Days:           make([]DaySummaryDTO, len(w.Days)),
		TotalActual:    hours(w.TotalActual),
		TotalTarget:    hours(w.TotalTarget),
		TotalBalance:   hours(w.TotalBalance),
		BalanceDisplay: generic.FormatBalance(&w.TotalBalance),
	}
	for i, d := range w.Days {
		dto.Days[i] = toDaySummaryDTO(d)
	}
	return dto
}

func toMonthlySummaryDTO(m worktime.MonthlySummary) MonthlySummaryDTO {
	dto := MonthlySummaryDTO{
		Year:                m.Year,
		Month:               int(m.Month),
		Weeks:               make([]WeeklySummaryDTO, len(m.Weeks)),
		TotalActual:         hours(m.TotalActual),
		TotalTarget:         hours(m.TotalTarget),
		PeriodBalance:       hours(m.PeriodBalance),
		CarryoverIn:         hours(m.CarryoverIn),
		CarryoverOut:        hours(m.CarryoverOut),
		ActualDisplay:       generic.FormatHours(&m.TotalActual),
		CarryoverOutDisplay: generic.FormatBalance(&m.CarryoverOut),
	}
	for i, w := range m.Weeks {
		dto.Weeks[i] = toWeeklySummaryDTO(w)
	}
	return dto
}

func toVacationDTO(s vacation.Snapshot) VacationDTO {
	dto := VacationDTO{Configured: s.Configured, AsOf: s.AsOf.String()}
	if !s.Configured {
		return dto
	}
	dto.Entitlement = s.Entitlement.String()
	dto.Used = s.Used.String()
	dto.Carryover = s.Carryover.String()
	dto.CarryoverForfeited = s.CarryoverForfeited.String()
	dto.CarryoverExpires = s.Cutoff.String()
	dto.Remaining = s.Remaining.String()
	if s.ExpiringSoon {
		dto.Warning = &VacationWarningDTO{
			Severity:        string(s.Severity),
			Message:         vacationWarningMessage(s.DaysAtRisk, s.Cutoff),
			DaysExpiring:    s.DaysAtRisk.String(),
			ExpiryDate:      s.Cutoff.String(),
			DaysUntilExpiry: s.DaysUntilCutoff,
		}
	}
	return dto
}

// =============================================================================
// CONVERSIONS - request to domain
// =============================================================================

func parseOptionalTime(s *string) (*generic.TimeOfDay, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := generic.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDays accepts "2.5" and "2,5"; empty means unset.
func parseDays(s *string) (*decimal.Decimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(*s), ",", ".", 1))
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", *s)
	}
	return &d, nil
}

// toRecord maps a request onto a record. The absence type is kept verbatim
// so an unknown value reaches validation as invalid_absence_type.
func (req RecordRequest) toRecord(userID generic.UserID) (attendance.Record, error) {
	day, err := generic.ParseDate(req.WorkDate)
	if err != nil {
		return attendance.Record{}, err
	}
	start, err := parseOptionalTime(req.StartTime)
	if err != nil {
		return attendance.Record{}, err
	}
	end, err := parseOptionalTime(req.EndTime)
	if err != nil {
		return attendance.Record{}, err
	}
	absence := attendance.AbsenceType(req.AbsenceType)
	if absence == "" {
		absence = attendance.AbsenceNone
	}
	return attendance.Record{
		UserID:       userID,
		WorkDate:     day,
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: req.BreakMinutes,
		AbsenceType:  absence,
		Notes:        req.Notes,
		Status:       attendance.StatusDraft,
	}, nil
}

// toSettings maps a request onto settings. Weekdays missing from the
// schedule are disabled.
func (dto SettingsDTO) toSettings(userID generic.UserID) (attendance.Settings, error) {
	s := attendance.Settings{UserID: userID}
	var err error

	if s.WeeklyTargetHours, err = generic.ParseHours(dto.WeeklyTargetHours); err != nil {
		return s, fmt.Errorf("weekly_target_hours: %w", err)
	}
	if strings.TrimSpace(dto.InitialHoursOffset) != "" {
		if s.InitialHoursOffset, err = generic.ParseHours(dto.InitialHoursOffset); err != nil {
			return s, fmt.Errorf("initial_hours_offset: %w", err)
		}
	}
	for wd, key := range weekdayKeys {
		d, ok := dto.Schedule[key]
		if !ok {
			continue
		}
		start, err := parseOptionalTime(d.StartTime)
		if err != nil {
			return s, fmt.Errorf("weekday_schedule.%s: %w", key, err)
		}
		end, err := parseOptionalTime(d.EndTime)
		if err != nil {
			return s, fmt.Errorf("weekday_schedule.%s: %w", key, err)
		}
		s.Schedule[wd] = attendance.DaySchedule{Enabled: d.Enabled, StartTime: start, EndTime: end, BreakMinutes: d.BreakMinutes}
	}
	if dto.TrackingStartDate != nil && strings.TrimSpace(*dto.TrackingStartDate) != "" {
		d, err := generic.ParseDate(*dto.TrackingStartDate)
		if err != nil {
			return s, fmt.Errorf("tracking_start_date: %w", err)
		}
		s.TrackingStart = &d
	}
	if s.Vacation.InitialBalance, err = parseDays(dto.VacationInitialBalance); err != nil {
		return s, fmt.Errorf("vacation_initial_balance: %w", err)
	}
	if s.Vacation.AnnualEntitlement, err = parseDays(dto.VacationAnnualEntitlement); err != nil {
		return s, fmt.Errorf("vacation_annual_entitlement: %w", err)
	}
	if s.Vacation.CarryoverDays, err = parseDays(dto.VacationCarryoverDays); err != nil {
		return s, fmt.Errorf("vacation_carryover_days: %w", err)
	}
	if c := dto.VacationCarryoverExpiration; c != nil && strings.TrimSpace(*c) != "" {
		var month, day int
		if _, err := fmt.Sscanf(*c, "%d-%d", &month, &day); err != nil {
			return s, fmt.Errorf("vacation_carryover_expiration: expected MM-DD, got %q", *c)
		}
		s.Vacation.CarryoverCutoff = &attendance.CarryoverCutoff{Month: time.Month(month), Day: day}
	}
	return s, nil
}
