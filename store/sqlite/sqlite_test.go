package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/store/sqlite"
	"github.com/verk/worktime/store/storetest"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) attendance.Store { return newStore(t) })
}

func TestSQLite_FileDatabaseSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/worktime.db"
	ctx := context.Background()

	s, err := sqlite.New(path)
	require.NoError(t, err)
	sick := attendance.EmptyRecord("anna", generic.NewDate(2026, time.March, 2))
	sick.AbsenceType = attendance.AbsenceSick
	created, err := s.Create(ctx, sick)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// WHEN: Reopening runs the migration again
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "anna", created.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.AbsenceSick, got.AbsenceType)
	assert.Nil(t, got.StartTime)
	assert.Nil(t, got.EndTime)
	assert.Equal(t, created.Version, got.Version)
}

func TestSQLite_FrozenClockStillBumpsVersion(t *testing.T) {
	s := newStore(t)
	frozen := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return frozen }
	ctx := context.Background()

	r, err := s.Create(ctx, attendance.EmptyRecord("anna", generic.NewDate(2026, time.March, 2)))
	require.NoError(t, err)

	updated, err := s.Update(ctx, r, r.Version)
	require.NoError(t, err)
	assert.NotEqual(t, r.Version, updated.Version)

	_, err = s.Update(ctx, r, r.Version)
	assert.True(t, generic.IsConflict(err))
}
