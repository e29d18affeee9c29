// Package memory provides an in-memory attendance.Store for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	records  map[generic.UserID][]attendance.Record // sorted by WorkDate
	settings map[generic.UserID]attendance.Settings

	// Now is the clock used for version tokens.
	Now func() time.Time
}

var _ attendance.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		records:  make(map[generic.UserID][]attendance.Record),
		settings: make(map[generic.UserID]attendance.Settings),
		Now:      time.Now,
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// Create inserts a draft record. (user, date) must be free.
func (m *Memory) Create(_ context.Context, r attendance.Record) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.findByDateLocked(r.UserID, r.WorkDate, ""); ok {
		return attendance.Record{}, fmt.Errorf("%s on %s: %w", r.UserID, r.WorkDate, generic.ErrDuplicateEntry)
	}

	r.ID = generic.RecordID(uuid.NewString())
	r.Status = attendance.StatusDraft
	if r.AbsenceType == "" {
		r.AbsenceType = attendance.AbsenceNone
	}
	r.CreatedAt = attendance.NextUpdatedAt(time.Time{}, m.Now())
	m.touch(&r, time.Time{})
	m.insertLocked(r)
	return r, nil
}

// Update replaces a draft record if version matches the stored token.
func (m *Memory) Update(_ context.Context, r attendance.Record, version string) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, i, err := m.mutableLocked(r.UserID, r.ID, version)
	if err != nil {
		return attendance.Record{}, err
	}
	if _, ok := m.findByDateLocked(r.UserID, r.WorkDate, r.ID); ok {
		return attendance.Record{}, fmt.Errorf("%s on %s: %w", r.UserID, r.WorkDate, generic.ErrDuplicateEntry)
	}

	r.Status = stored.Status
	r.CreatedAt = stored.CreatedAt
	m.touch(&r, stored.UpdatedAt)

	m.removeLocked(r.UserID, i)
	m.insertLocked(r)
	return r, nil
}

// Delete removes a draft record if version matches the stored token.
func (m *Memory) Delete(_ context.Context, userID generic.UserID, id generic.RecordID, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, i, err := m.mutableLocked(userID, id, version)
	if err != nil {
		return err
	}
	m.removeLocked(userID, i)
	return nil
}

// Submit locks a draft record.
func (m *Memory) Submit(_ context.Context, userID generic.UserID, id generic.RecordID, version string) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, i, err := m.mutableLocked(userID, id, version)
	if err != nil {
		return attendance.Record{}, err
	}
	stored.Status = attendance.StatusSubmitted
	m.touch(&stored, stored.UpdatedAt)
	m.records[userID][i] = stored
	return stored, nil
}

func (m *Memory) Get(_ context.Context, userID generic.UserID, id generic.RecordID) (attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, _, ok := m.findLocked(userID, id)
	if !ok {
		return attendance.Record{}, fmt.Errorf("record %s: %w", id, generic.ErrNotFound)
	}
	return r, nil
}

func (m *Memory) List(_ context.Context, userID generic.UserID, from, to generic.Date) ([]attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := generic.Period{Start: from, End: to}
	result := []attendance.Record{}
	for _, r := range m.records[userID] {
		if window.Contains(r.WorkDate) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *Memory) ListAll(_ context.Context, userID generic.UserID) ([]attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]attendance.Record, len(m.records[userID]))
	copy(result, m.records[userID])
	return result, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) Settings(_ context.Context, userID generic.UserID) (attendance.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return attendance.Settings{}, fmt.Errorf("settings of %s: %w", userID, generic.ErrNotFound)
	}
	return s, nil
}

// SaveSettings creates settings on first write; later writes need the
// current version.
func (m *Memory) SaveSettings(_ context.Context, s attendance.Settings, version string) (attendance.Settings, error) {
	if err := s.Validate(); err != nil {
		return attendance.Settings{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var prev time.Time
	if stored, ok := m.settings[s.UserID]; ok {
		if err := attendance.CheckVersion(string(s.UserID), stored.Version, version); err != nil {
			return attendance.Settings{}, err
		}
		prev = stored.UpdatedAt
	}
	s.UpdatedAt = attendance.NextUpdatedAt(prev, m.Now())
	s.Version = attendance.VersionToken(s.UpdatedAt)
	m.settings[s.UserID] = s
	return s, nil
}

// =============================================================================
// HELPERS (caller holds the lock)
// =============================================================================

func (m *Memory) touch(r *attendance.Record, prev time.Time) {
	r.UpdatedAt = attendance.NextUpdatedAt(prev, m.Now())
	r.Version = attendance.VersionToken(r.UpdatedAt)
}

// mutableLocked loads a record and runs the read-only and version checks
// shared by every mutation.
func (m *Memory) mutableLocked(userID generic.UserID, id generic.RecordID, version string) (attendance.Record, int, error) {
	stored, i, ok := m.findLocked(userID, id)
	if !ok {
		return attendance.Record{}, 0, fmt.Errorf("record %s: %w", id, generic.ErrNotFound)
	}
	if stored.IsSubmitted() {
		return attendance.Record{}, 0, fmt.Errorf("record %s: %w", id, generic.ErrReadOnly)
	}
	if err := attendance.CheckVersion(string(id), stored.Version, version); err != nil {
		return attendance.Record{}, 0, err
	}
	return stored, i, nil
}

func (m *Memory) findLocked(userID generic.UserID, id generic.RecordID) (attendance.Record, int, bool) {
	for i, r := range m.records[userID] {
		if r.ID == id {
			return r, i, true
		}
	}
	return attendance.Record{}, 0, false
}

func (m *Memory) findByDateLocked(userID generic.UserID, day generic.Date, except generic.RecordID) (attendance.Record, bool) {
	for _, r := range m.records[userID] {
		if r.WorkDate.Equal(day) && r.ID != except {
			return r, true
		}
	}
	return attendance.Record{}, false
}

func (m *Memory) insertLocked(r attendance.Record) {
	recs := m.records[r.UserID]

	// Binary search for insertion point to keep date order
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].WorkDate.After(r.WorkDate)
	})

	recs = append(recs, attendance.Record{})
	copy(recs[i+1:], recs[i:])
	recs[i] = r
	m.records[r.UserID] = recs
}

func (m *Memory) removeLocked(userID generic.UserID, i int) {
	recs := m.records[userID]
	m.records[userID] = append(recs[:i:i], recs[i+1:]...)
}
