/*
handlers.go - HTTP API handlers for the worktime engine

PURPOSE:
  Exposes the calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine and the
  store. This is the mutation boundary: it validates candidates, enforces
  the optimistic lock through the store, and turns error keys into German
  text.

ENDPOINTS:
  Records:
    GET    /api/users/{userID}/records?from=&to=        List records
    POST   /api/users/{userID}/records                  Create draft record
    GET    /api/users/{userID}/records/defaults?date=   Pre-fill for a day
    GET    /api/users/{userID}/records/{id}             Get record
    PUT    /api/users/{userID}/records/{id}             Update (version in body)
    DELETE /api/users/{userID}/records/{id}?version=    Delete
    POST   /api/users/{userID}/records/{id}/submit      Lock for HR

  Settings:
    GET    /api/users/{userID}/settings                 Get (created on first read)
    PUT    /api/users/{userID}/settings                 Replace (version in body)

  Reports:
    GET    /api/users/{userID}/summary/week?start=      Weekly summary
    GET    /api/users/{userID}/summary/month?year=&month= Monthly summary
    GET    /api/users/{userID}/balance?through=         Cumulative balance
    GET    /api/users/{userID}/vacation?as_of=          Vacation snapshot

  Calendar:
    GET    /api/holidays?year=                          Public holidays

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (attendance.Validate, Settings.Validate)
  3. Call store / engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid settings
  - 404: Record not found
  - 409: Stale version, duplicate (user, date)
  - 422: Validation keys, with German messages
  - 500: Internal errors

SECURITY NOTE:
  No authentication. userID in the path is trusted.

SEE ALSO:
  - dto.go: Request/response data structures
  - messages.go: German text
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/holiday"
	"github.com/verk/worktime/vacation"
	"github.com/verk/worktime/worktime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    attendance.Store
	Time     *worktime.Service
	Vacation *vacation.Service
	Calendar generic.HolidayCalendar

	// AllowFuture disables the future_date rule.
	AllowFuture bool
	// Today is the as-of date for validation and report defaults.
	Today func() generic.Date

	Log logrus.FieldLogger
}

// NewHandler creates a new handler with the given store.
func NewHandler(store attendance.Store) *Handler {
	return &Handler{
		Store:    store,
		Time:     worktime.NewService(),
		Vacation: vacation.NewService(),
		Calendar: holiday.Germany{},
		Today:    generic.Today,
		Log:      logrus.WithField("component", "api"),
	}
}

func (h *Handler) calc() attendance.Calculator { return h.Time.Calc }

func userID(r *http.Request) generic.UserID {
	return generic.UserID(chi.URLParam(r, "userID"))
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ListRecords returns records in [from, to], defaulting to the current month.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	today := h.Today()
	from, err := dateParam(r, "from", generic.StartOfMonth(today.Year(), today.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	to, err := dateParam(r, "to", generic.EndOfMonth(today.Year(), today.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}

	user := userID(r)
	records, err := h.Store.List(r.Context(), user, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	settings, err := h.settings(r, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec, h.calc().Evaluate(rec, settings))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRecord returns one record.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	rec, err := h.Store.Get(r.Context(), user, generic.RecordID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeRecord(w, r, http.StatusOK, rec)
}

// CreateRecord validates and inserts a draft record.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	user := userID(r)
	candidate, err := req.toRecord(user)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}

	existing, err := h.Store.List(r.Context(), user, candidate.WorkDate, candidate.WorkDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if keys := attendance.Validate(candidate, existing, h.validateOptions()); len(keys) > 0 {
		writeValidation(w, keys)
		return
	}

	created, err := h.Store.Create(r.Context(), candidate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeRecord(w, r, http.StatusCreated, created)
}

// UpdateRecord replaces a draft record. The body carries the version read.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	user := userID(r)
	id := generic.RecordID(chi.URLParam(r, "id"))

	stored, err := h.Store.Get(r.Context(), user, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	candidate, err := req.toRecord(user)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	candidate.ID = id

	existing, err := h.Store.List(r.Context(), user, candidate.WorkDate, candidate.WorkDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	existing = append(existing, stored)
	if keys := attendance.Validate(candidate, existing, h.validateOptions()); len(keys) > 0 {
		writeValidation(w, keys)
		return
	}

	updated, err := h.Store.Update(r.Context(), candidate, req.Version)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeRecord(w, r, http.StatusOK, updated)
}

// DeleteRecord removes a draft record. The version comes as query parameter.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := generic.RecordID(chi.URLParam(r, "id"))
	if err := h.Store.Delete(r.Context(), userID(r), id, r.URL.Query().Get("version")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitRecord locks a draft record.
func (h *Handler) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	var req VersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	rec, err := h.Store.Submit(r.Context(), userID(r), generic.RecordID(chi.URLParam(r, "id")), req.Version)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeRecord(w, r, http.StatusOK, rec)
}

// RecordDefaults returns the pre-fill for a new record on ?date=.
func (h *Handler) RecordDefaults(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date", h.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	settings, err := h.settings(r, userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPrefillDTO(h.calc().Defaults(day, settings)))
}

func (h *Handler) validateOptions() attendance.ValidateOptions {
	return attendance.ValidateOptions{AsOf: h.Today(), AllowFuture: h.AllowFuture}
}

func (h *Handler) writeRecord(w http.ResponseWriter, r *http.Request, status int, rec attendance.Record) {
	settings, err := h.settings(r, rec.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, toRecordDTO(rec, h.calc().Evaluate(rec, settings)))
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the user's settings, creating the default 40 hour
// week on first access.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings(r, userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings replaces the settings. The first write needs no version.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	in, err := req.toSettings(userID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidSettings, err)
		return
	}

	saved, err := h.Store.SaveSettings(r.Context(), in, req.Version)
	if err != nil {
		if generic.IsConflict(err) {
			writeError(w, http.StatusConflict, msgSettingsConflict, err)
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(saved))
}

// settings loads the user's settings, storing defaults on first access.
func (h *Handler) settings(r *http.Request, user generic.UserID) (attendance.Settings, error) {
	s, err := h.Store.Settings(r.Context(), user)
	if !generic.IsNotFound(err) {
		return s, err
	}
	s, err = h.Store.SaveSettings(r.Context(), attendance.DefaultSettings(user), "")
	if generic.IsConflict(err) {
		// Created concurrently by another request
		return h.Store.Settings(r.Context(), user)
	}
	return s, err
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// WeeklySummary returns the Monday-start week containing ?start=.
func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start", h.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	records, settings, ok := h.loadAll(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toWeeklySummaryDTO(h.Time.WeeklySummary(records, settings, start)))
}

// MonthlySummary returns ?year=&month=, defaulting to the current month.
func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	today := h.Today()
	year, err := intParam(r, "year", today.Year(), 1900, 9999)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	month, err := intParam(r, "month", int(today.Month()), 1, 12)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	records, settings, ok := h.loadAll(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySummaryDTO(h.Time.MonthlySummary(records, settings, year, time.Month(month))))
}

// Balance returns the cumulative balance through ?through= (default today).
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	through, err := dateParam(r, "through", h.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	records, settings, ok := h.loadAll(w, r)
	if !ok {
		return
	}
	balance := h.Time.AllTimeBalance(records, settings, through)
	writeJSON(w, http.StatusOK, BalanceDTO{
		Through: through.String(),
		Balance: hours(balance),
		Display: generic.FormatBalance(&balance),
	})
}

// VacationSnapshot returns the vacation state as of ?as_of= (default today).
func (h *Handler) VacationSnapshot(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of", h.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	records, settings, ok := h.loadAll(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toVacationDTO(h.Vacation.Snapshot(records, settings, asOf)))
}

func (h *Handler) loadAll(w http.ResponseWriter, r *http.Request) ([]attendance.Record, attendance.Settings, bool) {
	user := userID(r)
	settings, err := h.settings(r, user)
	if err != nil {
		h.fail(w, r, err)
		return nil, settings, false
	}
	records, err := h.Store.ListAll(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return nil, settings, false
	}
	return records, settings, true
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the public holidays of ?year= (default current year).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", h.Today().Year(), 1583, 9999)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput, err)
		return
	}
	holidays := h.Calendar.Holidays(year)
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = HolidayDTO{Date: hd.Date.String(), Name: hd.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidation(w http.ResponseWriter, keys []attendance.ErrorKey) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   msgValidation,
		Code:    "validation_failed",
		Details: fieldErrors(keys),
	})
}

// fail maps store and engine errors to responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, msgNotFound, err)
	case errors.Is(err, generic.ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: msgConflict, Code: "conflict", Details: err.Error()})
	case errors.Is(err, generic.ErrDuplicateEntry):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: Message(attendance.KeyDuplicateEntry), Code: string(attendance.KeyDuplicateEntry),
		})
	case errors.Is(err, generic.ErrReadOnly):
		writeValidation(w, []attendance.ErrorKey{attendance.KeySubmittedReadonly})
	case errors.Is(err, generic.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, msgInvalidSettings, err)
	default:
		h.Log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, msgInternal, nil)
	}
}

func dateParam(r *http.Request, name string, def generic.Date) (generic.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return generic.ParseDate(v)
}

func intParam(r *http.Request, name string, def, min, max int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, &rangeError{name: name, min: min, max: max}
	}
	return n, nil
}

type rangeError struct {
	name     string
	min, max int
}

func (e *rangeError) Error() string {
	return e.name + " must be between " + strconv.Itoa(e.min) + " and " + strconv.Itoa(e.max)
}
