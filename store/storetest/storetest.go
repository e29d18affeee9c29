// Package storetest holds the behaviour every attendance.Store must show.
// Adapters run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

func date(day int) generic.Date { return generic.NewDate(2026, time.January, day) }

func draft(user generic.UserID, day int) attendance.Record {
	start, end := generic.NewTimeOfDay(8, 0), generic.NewTimeOfDay(16, 30)
	return attendance.Record{
		UserID:       user,
		WorkDate:     date(day),
		StartTime:    &start,
		EndTime:      &end,
		BreakMinutes: 30,
		AbsenceType:  attendance.AbsenceNone,
		Notes:        "Büro",
	}
}

// Run executes the contract suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) attendance.Store) {
	ctx := context.Background()

	t.Run("CreateAssignsIdentity", func(t *testing.T) {
		s := newStore(t)
		r, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Version)
		assert.Equal(t, attendance.StatusDraft, r.Status)

		got, err := s.Get(ctx, "anna", r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Version, got.Version)
		assert.Equal(t, date(12), got.WorkDate)
		assert.Equal(t, "08:00", got.StartTime.String())
		assert.Equal(t, "16:30", got.EndTime.String())
		assert.Equal(t, 30, got.BreakMinutes)
		assert.Equal(t, "Büro", got.Notes)
	})

	t.Run("DuplicateUserDateRejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		_, err = s.Create(ctx, draft("anna", 12))
		assert.True(t, errors.Is(err, generic.ErrDuplicateEntry), "got %v", err)

		_, err = s.Create(ctx, draft("ben", 12))
		assert.NoError(t, err, "other user on the same day")
	})

	t.Run("UpdateRequiresCurrentVersion", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		// GIVEN: Two clients read the same version
		first, second := created, created
		first.BreakMinutes = 45
		second.BreakMinutes = 0

		// WHEN: Both write with that version
		updated, err := s.Update(ctx, first, created.Version)
		require.NoError(t, err)
		_, err = s.Update(ctx, second, created.Version)

		// THEN: The second write is rejected, the first survives
		assert.True(t, errors.Is(err, generic.ErrConcurrentModification), "got %v", err)
		var conflict *generic.ConflictError
		assert.ErrorAs(t, err, &conflict)

		assert.NotEqual(t, created.Version, updated.Version)
		got, err := s.Get(ctx, "anna", created.ID)
		require.NoError(t, err)
		assert.Equal(t, 45, got.BreakMinutes)
	})

	t.Run("UpdateOntoTakenDate", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)
		other, err := s.Create(ctx, draft("anna", 13))
		require.NoError(t, err)

		moved := other
		moved.WorkDate = date(12)
		_, err = s.Update(ctx, moved, other.Version)
		assert.True(t, errors.Is(err, generic.ErrDuplicateEntry), "got %v", err)
	})

	t.Run("SubmittedIsReadOnly", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		submitted, err := s.Submit(ctx, "anna", created.ID, created.Version)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusSubmitted, submitted.Status)

		changed := submitted
		changed.BreakMinutes = 0
		_, err = s.Update(ctx, changed, submitted.Version)
		assert.True(t, errors.Is(err, generic.ErrReadOnly), "got %v", err)

		err = s.Delete(ctx, "anna", created.ID, submitted.Version)
		assert.True(t, errors.Is(err, generic.ErrReadOnly), "got %v", err)

		_, err = s.Submit(ctx, "anna", created.ID, submitted.Version)
		assert.True(t, errors.Is(err, generic.ErrReadOnly), "got %v", err)
	})

	t.Run("DeleteRequiresCurrentVersion", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		err = s.Delete(ctx, "anna", created.ID, "stale")
		assert.True(t, generic.IsConflict(err), "got %v", err)

		require.NoError(t, s.Delete(ctx, "anna", created.ID, created.Version))
		_, err = s.Get(ctx, "anna", created.ID)
		assert.True(t, generic.IsNotFound(err), "got %v", err)
	})

	t.Run("RecordsAreScopedToUser", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		_, err = s.Get(ctx, "ben", created.ID)
		assert.True(t, generic.IsNotFound(err), "got %v", err)
		err = s.Delete(ctx, "ben", created.ID, created.Version)
		assert.True(t, generic.IsNotFound(err), "got %v", err)
	})

	t.Run("ListOrderedByDate", func(t *testing.T) {
		s := newStore(t)
		for _, day := range []int{20, 5, 12, 31} {
			_, err := s.Create(ctx, draft("anna", day))
			require.NoError(t, err)
		}

		got, err := s.List(ctx, "anna", date(5), date(20))
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, date(5), got[0].WorkDate)
		assert.Equal(t, date(12), got[1].WorkDate)
		assert.Equal(t, date(20), got[2].WorkDate)

		all, err := s.ListAll(ctx, "anna")
		require.NoError(t, err)
		assert.Len(t, all, 4)

		none, err := s.ListAll(ctx, "ben")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("SettingsLifecycle", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Settings(ctx, "anna")
		assert.True(t, generic.IsNotFound(err), "got %v", err)

		// First write ignores the version
		in := attendance.DefaultSettings("anna")
		in.WeeklyTargetHours = decimal.RequireFromString("38.5")
		start := date(12)
		in.TrackingStart = &start
		in.InitialHoursOffset = decimal.RequireFromString("-5.5")
		annual := decimal.NewFromInt(30)
		in.Vacation.AnnualEntitlement = &annual
		in.Vacation.CarryoverCutoff = &attendance.CarryoverCutoff{Month: time.April, Day: 30}
		in.Schedule[time.Friday].Enabled = false

		saved, err := s.SaveSettings(ctx, in, "")
		require.NoError(t, err)
		require.NotEmpty(t, saved.Version)

		got, err := s.Settings(ctx, "anna")
		require.NoError(t, err)
		assert.Equal(t, saved.Version, got.Version)
		assert.Equal(t, "38.5", got.WeeklyTargetHours.String())
		assert.Equal(t, "-5.5", got.InitialHoursOffset.String())
		require.NotNil(t, got.TrackingStart)
		assert.Equal(t, date(12), *got.TrackingStart)
		require.NotNil(t, got.Vacation.AnnualEntitlement)
		assert.Equal(t, "30", got.Vacation.AnnualEntitlement.String())
		assert.Nil(t, got.Vacation.CarryoverDays)
		assert.Equal(t, &attendance.CarryoverCutoff{Month: time.April, Day: 30}, got.Vacation.CarryoverCutoff)
		assert.False(t, got.Schedule[time.Friday].Enabled)
		assert.True(t, got.Schedule[time.Monday].Enabled)
		assert.Equal(t, "08:00", got.Schedule[time.Monday].StartTime.String())

		// Later writes need the current version
		got.WeeklyTargetHours = decimal.NewFromInt(40)
		_, err = s.SaveSettings(ctx, got, "stale")
		assert.True(t, errors.Is(err, generic.ErrConcurrentModification), "got %v", err)

		again, err := s.SaveSettings(ctx, got, saved.Version)
		require.NoError(t, err)
		assert.NotEqual(t, saved.Version, again.Version)
	})

	t.Run("InvalidSettingsRejected", func(t *testing.T) {
		s := newStore(t)
		in := attendance.DefaultSettings("anna")
		in.WeeklyTargetHours = decimal.NewFromInt(-1)

		_, err := s.SaveSettings(ctx, in, "")
		assert.True(t, errors.Is(err, generic.ErrInvalidSettings), "got %v", err)
	})

	t.Run("ConcurrentWritersOneWins", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, draft("anna", 12))
		require.NoError(t, err)

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r := created
				r.BreakMinutes = i
				_, err := s.Update(ctx, r, created.Version)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case generic.IsConflict(err):
					conflicts++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, writers-1, conflicts)
	})
}
