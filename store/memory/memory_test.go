package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
	"github.com/verk/worktime/store/memory"
	"github.com/verk/worktime/store/storetest"
)

func TestMemory_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) attendance.Store { return memory.New() })
}

func TestMemory_FrozenClockStillBumpsVersion(t *testing.T) {
	// GIVEN: A clock that never advances
	m := memory.New()
	frozen := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return frozen }
	ctx := context.Background()

	start, end := generic.NewTimeOfDay(8, 0), generic.NewTimeOfDay(12, 0)
	r, err := m.Create(ctx, attendance.Record{
		UserID: "anna", WorkDate: generic.NewDate(2026, 1, 12),
		StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)

	// WHEN: Writing twice
	first, err := m.Update(ctx, r, r.Version)
	require.NoError(t, err)
	second, err := m.Update(ctx, first, first.Version)
	require.NoError(t, err)

	// THEN: Every write yields a fresh token
	assert.NotEqual(t, r.Version, first.Version)
	assert.NotEqual(t, first.Version, second.Version)
	assert.Equal(t, attendance.AbsenceNone, second.AbsenceType)
}
