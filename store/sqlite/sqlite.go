/*
Package sqlite provides a SQLite-backed implementation of attendance.Store.

PURPOSE:
  Persists attendance records and user settings with database/sql and
  go-sqlite3. The engine never sees this package; the HTTP boundary loads
  records here, runs the pure calculations, and writes back.

KEY TABLES:
  time_entries:  One row per (user_id, work_date), enforced by a UNIQUE
                 constraint so a racing duplicate insert fails in the
                 database, not only in validation.
  user_settings: One row per user. The weekday schedule is a JSON column
                 keyed by weekday name.

OPTIMISTIC LOCKING:
  updated_at (RFC3339Nano, UTC) doubles as the version token. Every
  mutation reads the row, runs attendance.CheckVersion and writes inside
  one transaction, with WHERE updated_at = ? as a second guard. No lock is
  held between a client's read and its write.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows a single writer; the
  mutex keeps writers from tripping over SQLITE_BUSY.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/worktime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New() with CREATE TABLE IF NOT EXISTS.

SEE ALSO:
  - attendance/store.go: Interface definition
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// Store implements attendance.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Now is the clock used for version tokens.
	Now func() time.Time
	Log logrus.FieldLogger
}

var _ attendance.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:  db,
		Now: time.Now,
		Log: logrus.WithField("component", "sqlite"),
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		break_minutes INTEGER NOT NULL DEFAULT 0
			CHECK (break_minutes BETWEEN 0 AND 480),
		absence_type TEXT NOT NULL DEFAULT 'none',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, work_date)
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_user_date
		ON time_entries(user_id, work_date);

	CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY,
		weekly_target_hours TEXT NOT NULL,
		schedule_json TEXT NOT NULL,
		tracking_start_date TEXT,
		initial_hours_offset TEXT NOT NULL DEFAULT '0',
		vacation_initial_balance TEXT,
		vacation_annual_entitlement TEXT,
		vacation_carryover_days TEXT,
		vacation_carryover_expiration TEXT,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORDS
// =============================================================================

const recordColumns = `id, user_id, work_date, start_time, end_time, break_minutes,
	absence_type, notes, status, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a draft record. The UNIQUE constraint rejects a second
// record for the same (user, date).
func (s *Store) Create(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = generic.RecordID(uuid.NewString())
	r.Status = attendance.StatusDraft
	if r.AbsenceType == "" {
		r.AbsenceType = attendance.AbsenceNone
	}
	r.CreatedAt = attendance.NextUpdatedAt(time.Time{}, s.Now())
	r.UpdatedAt = r.CreatedAt
	r.Version = attendance.VersionToken(r.UpdatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.WorkDate.String(),
		nullTime(r.StartTime), nullTime(r.EndTime), r.BreakMinutes,
		r.AbsenceType, r.Notes, r.Status,
		r.CreatedAt.Format(time.RFC3339Nano), r.Version,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.Record{}, fmt.Errorf("%s on %s: %w", r.UserID, r.WorkDate, generic.ErrDuplicateEntry)
		}
		return attendance.Record{}, fmt.Errorf("failed to insert record: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"user_id": r.UserID, "work_date": r.WorkDate.String(), "record_id": r.ID,
	}).Debug("record created")
	return r, nil
}

// Update replaces a draft record if version matches.
func (s *Store) Update(ctx context.Context, r attendance.Record, version string) (attendance.Record, error) {
	var out attendance.Record
	err := s.mutate(ctx, r.UserID, r.ID, version, "update", func(tx *sql.Tx, stored attendance.Record) error {
		r.Status = stored.Status
		r.CreatedAt = stored.CreatedAt
		r.UpdatedAt = attendance.NextUpdatedAt(stored.UpdatedAt, s.Now())
		r.Version = attendance.VersionToken(r.UpdatedAt)

		_, err := tx.ExecContext(ctx, `
			UPDATE time_entries
			SET work_date = ?, start_time = ?, end_time = ?, break_minutes = ?,
			    absence_type = ?, notes = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND updated_at = ?`,
			r.WorkDate.String(), nullTime(r.StartTime), nullTime(r.EndTime), r.BreakMinutes,
			r.AbsenceType, r.Notes, r.Version,
			r.ID, r.UserID, stored.Version,
		)
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%s on %s: %w", r.UserID, r.WorkDate, generic.ErrDuplicateEntry)
		}
		out = r
		return err
	})
	return out, err
}

// Delete removes a draft record if version matches.
func (s *Store) Delete(ctx context.Context, userID generic.UserID, id generic.RecordID, version string) error {
	return s.mutate(ctx, userID, id, version, "delete", func(tx *sql.Tx, stored attendance.Record) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM time_entries WHERE id = ? AND user_id = ? AND updated_at = ?`,
			id, userID, stored.Version)
		return err
	})
}

// Submit moves a draft record to submitted if version matches.
func (s *Store) Submit(ctx context.Context, userID generic.UserID, id generic.RecordID, version string) (attendance.Record, error) {
	var out attendance.Record
	err := s.mutate(ctx, userID, id, version, "submit", func(tx *sql.Tx, stored attendance.Record) error {
		stored.Status = attendance.StatusSubmitted
		stored.UpdatedAt = attendance.NextUpdatedAt(stored.UpdatedAt, s.Now())
		prev := stored.Version
		stored.Version = attendance.VersionToken(stored.UpdatedAt)

		_, err := tx.ExecContext(ctx, `
			UPDATE time_entries SET status = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND updated_at = ?`,
			stored.Status, stored.Version, id, userID, prev)
		out = stored
		return err
	})
	return out, err
}

// mutate runs the checks shared by every record mutation inside one
// transaction: exists, still draft, version matches.
func (s *Store) mutate(ctx context.Context, userID generic.UserID, id generic.RecordID, version, op string,
	fn func(tx *sql.Tx, stored attendance.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.Log.WithFields(logrus.Fields{"user_id": userID, "record_id": id, "op": op})

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	stored, err := getRecord(ctx, sqlTx, userID, id)
	if err != nil {
		return err
	}
	if stored.IsSubmitted() {
		log.Info("rejected write to submitted record")
		return fmt.Errorf("record %s: %w", id, generic.ErrReadOnly)
	}
	if err := attendance.CheckVersion(string(id), stored.Version, version); err != nil {
		log.WithField("stored_version", stored.Version).Info("rejected stale write")
		return err
	}

	if err := fn(sqlTx, stored); err != nil {
		if !errors.Is(err, generic.ErrDuplicateEntry) {
			log.WithError(err).Error("record mutation failed")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	log.Debug("record mutated")
	return nil
}

// Get returns one record of a user.
func (s *Store) Get(ctx context.Context, userID generic.UserID, id generic.RecordID) (attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRecord(ctx, s.db, userID, id)
}

func getRecord(ctx context.Context, db execer, userID generic.UserID, id generic.RecordID) (attendance.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, fmt.Errorf("record %s: %w", id, generic.ErrNotFound)
	}
	return r, err
}

// List returns a user's records in [from, to] ordered by date.
func (s *Store) List(ctx context.Context, userID generic.UserID, from, to generic.Date) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM time_entries
		WHERE user_id = ? AND work_date >= ? AND work_date <= ?
		ORDER BY work_date ASC`,
		userID, from.String(), to.String())
}

// ListAll returns every record of a user ordered by date.
func (s *Store) ListAll(ctx context.Context, userID generic.UserID) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM time_entries
		WHERE user_id = ? ORDER BY work_date ASC`, userID)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (attendance.Record, error) {
	var (
		r                    attendance.Record
		workDate             string
		start, end           sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&r.ID, &r.UserID, &workDate, &start, &end, &r.BreakMinutes,
		&r.AbsenceType, &r.Notes, &r.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	if r.WorkDate, err = generic.ParseDate(workDate); err != nil {
		return r, err
	}
	if r.StartTime, err = parseNullTime(start); err != nil {
		return r, err
	}
	if r.EndTime, err = parseNullTime(end); err != nil {
		return r, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	r.Version = updatedAt
	return r, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings returns the user's settings or generic.ErrNotFound.
func (s *Store) Settings(ctx context.Context, userID generic.UserID) (attendance.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSettings(ctx, s.db, userID)
}

// SaveSettings inserts settings on first write and otherwise replaces them
// if version matches.
func (s *Store) SaveSettings(ctx context.Context, in attendance.Settings, version string) (attendance.Settings, error) {
	if err := in.Validate(); err != nil {
		return attendance.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.Log.WithField("user_id", in.UserID)

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return attendance.Settings{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var prev time.Time
	stored, err := getSettings(ctx, sqlTx, in.UserID)
	switch {
	case err == nil:
		if err := attendance.CheckVersion(string(in.UserID), stored.Version, version); err != nil {
			log.WithField("stored_version", stored.Version).Info("rejected stale settings write")
			return attendance.Settings{}, err
		}
		prev = stored.UpdatedAt
	case !generic.IsNotFound(err):
		return attendance.Settings{}, err
	}

	in.UpdatedAt = attendance.NextUpdatedAt(prev, s.Now())
	in.Version = attendance.VersionToken(in.UpdatedAt)

	scheduleJSON, err := json.Marshal(encodeSchedule(in.Schedule))
	if err != nil {
		return attendance.Settings{}, fmt.Errorf("failed to encode schedule: %w", err)
	}

	var trackingStart, cutoff sql.NullString
	if in.TrackingStart != nil {
		trackingStart = sql.NullString{String: in.TrackingStart.String(), Valid: true}
	}
	if c := in.Vacation.CarryoverCutoff; c != nil {
		cutoff = sql.NullString{String: fmt.Sprintf("%02d-%02d", int(c.Month), c.Day), Valid: true}
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, weekly_target_hours, schedule_json, tracking_start_date,
			initial_hours_offset, vacation_initial_balance, vacation_annual_entitlement,
			vacation_carryover_days, vacation_carryover_expiration, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_target_hours = excluded.weekly_target_hours,
			schedule_json = excluded.schedule_json,
			tracking_start_date = excluded.tracking_start_date,
			initial_hours_offset = excluded.initial_hours_offset,
			vacation_initial_balance = excluded.vacation_initial_balance,
			vacation_annual_entitlement = excluded.vacation_annual_entitlement,
			vacation_carryover_days = excluded.vacation_carryover_days,
			vacation_carryover_expiration = excluded.vacation_carryover_expiration,
			updated_at = excluded.updated_at`,
		in.UserID, in.WeeklyTargetHours.String(), string(scheduleJSON), trackingStart,
		in.InitialHoursOffset.String(),
		nullDecimal(in.Vacation.InitialBalance), nullDecimal(in.Vacation.AnnualEntitlement),
		nullDecimal(in.Vacation.CarryoverDays), cutoff, in.Version,
	)
	if err != nil {
		log.WithError(err).Error("settings write failed")
		return attendance.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return attendance.Settings{}, fmt.Errorf("failed to commit: %w", err)
	}

	log.Debug("settings saved")
	return in, nil
}

func getSettings(ctx context.Context, db execer, userID generic.UserID) (attendance.Settings, error) {
	var (
		st                         attendance.Settings
		weekly, offset, schedule   string
		trackingStart, cutoff      sql.NullString
		initial, annual, carryover sql.NullString
		updatedAt                  string
	)
	err := db.QueryRowContext(ctx, `
		SELECT user_id, weekly_target_hours, schedule_json, tracking_start_date,
		       initial_hours_offset, vacation_initial_balance, vacation_annual_entitlement,
		       vacation_carryover_days, vacation_carryover_expiration, updated_at
		FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&st.UserID, &weekly, &schedule, &trackingStart, &offset,
		&initial, &annual, &carryover, &cutoff, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("settings of %s: %w", userID, generic.ErrNotFound)
	}
	if err != nil {
		return st, fmt.Errorf("failed to load settings: %w", err)
	}

	if st.WeeklyTargetHours, err = decimal.NewFromString(weekly); err != nil {
		return st, fmt.Errorf("corrupt weekly_target_hours: %w", err)
	}
	if st.InitialHoursOffset, err = decimal.NewFromString(offset); err != nil {
		return st, fmt.Errorf("corrupt initial_hours_offset: %w", err)
	}
	var days map[string]scheduleDay
	if err := json.Unmarshal([]byte(schedule), &days); err != nil {
		return st, fmt.Errorf("corrupt schedule_json: %w", err)
	}
	if st.Schedule, err = decodeSchedule(days); err != nil {
		return st, err
	}
	if trackingStart.Valid {
		d, err := generic.ParseDate(trackingStart.String)
		if err != nil {
			return st, err
		}
		st.TrackingStart = &d
	}
	if st.Vacation.InitialBalance, err = parseNullDecimal(initial); err != nil {
		return st, err
	}
	if st.Vacation.AnnualEntitlement, err = parseNullDecimal(annual); err != nil {
		return st, err
	}
	if st.Vacation.CarryoverDays, err = parseNullDecimal(carryover); err != nil {
		return st, err
	}
	if cutoff.Valid {
		var month, day int
		if _, err := fmt.Sscanf(cutoff.String, "%d-%d", &month, &day); err != nil {
			return st, fmt.Errorf("corrupt vacation_carryover_expiration: %w", err)
		}
		st.Vacation.CarryoverCutoff = &attendance.CarryoverCutoff{Month: time.Month(month), Day: day}
	}
	st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	st.Version = updatedAt
	return st, nil
}

// =============================================================================
// SCHEDULE JSON - keyed by weekday name
// =============================================================================

type scheduleDay struct {
	Enabled      bool    `json:"enabled"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	BreakMinutes int     `json:"break_minutes"`
}

func encodeSchedule(w attendance.WeekSchedule) map[string]scheduleDay {
	out := make(map[string]scheduleDay, len(w))
	for wd, d := range w {
		out[weekdayKey(time.Weekday(wd))] = scheduleDay{
			Enabled:      d.Enabled,
			StartTime:    timeString(d.StartTime),
			EndTime:      timeString(d.EndTime),
			BreakMinutes: d.BreakMinutes,
		}
	}
	return out
}

func decodeSchedule(days map[string]scheduleDay) (attendance.WeekSchedule, error) {
	var w attendance.WeekSchedule
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		d, ok := days[weekdayKey(wd)]
		if !ok {
			continue
		}
		start, err := parseTimePtr(d.StartTime)
		if err != nil {
			return w, err
		}
		end, err := parseTimePtr(d.EndTime)
		if err != nil {
			return w, err
		}
		w[wd] = attendance.DaySchedule{Enabled: d.Enabled, StartTime: start, EndTime: end, BreakMinutes: d.BreakMinutes}
	}
	return w, nil
}

func weekdayKey(wd time.Weekday) string {
	return [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}[wd]
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func nullTime(t *generic.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func timeString(t *generic.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func parseNullTime(s sql.NullString) (*generic.TimeOfDay, error) {
	if !s.Valid {
		return nil, nil
	}
	return parseTimePtr(&s.String)
}

func parseTimePtr(s *string) (*generic.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := generic.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, fmt.Errorf("corrupt decimal %q: %w", s.String, err)
	}
	return &d, nil
}
