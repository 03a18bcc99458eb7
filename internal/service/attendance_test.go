package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/store"
)

func TestPunch_InsideAndOutside(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.attendance.Punch(ctx, mr1, attendance.PunchIn, northOfHQ(150, 20))
	require.NoError(t, err)
	assert.Equal(t, "Verified: Inside Andheri", res.Message)
	assert.Equal(t, attendance.LevelSuccess, res.Level)
	require.NotNil(t, res.Record.PunchIn)
	assert.Equal(t, "t-hq", *res.Record.PunchIn.VerifiedTerritoryID)
	assert.True(t, res.Record.IsSyncedToSheets)
	assert.Equal(t, int64(2), res.Record.Version, "saved, then flagged after export")

	_, err = os.Stat(filepath.Join(f.files.Dir(), "attendance", "2026-10-19", "mr-1.json"))
	assert.NoError(t, err)

	_, err = f.attendance.Punch(ctx, mr1, attendance.PunchIn, northOfHQ(150, 20))
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	res, err = f.attendance.Punch(ctx, mr1, attendance.PunchOut, northOfHQ(50000, 30))
	require.NoError(t, err)
	assert.Equal(t, attendance.LevelInfo, res.Level)
	assert.False(t, res.Geofence.Matched())
	assert.NotEmpty(t, res.Geofence.Nearby)
	assert.Len(t, res.Record.PunchOuts, 1)

	today, err := f.attendance.Today(ctx, mr1)
	require.NoError(t, err)
	assert.Len(t, today.PunchOuts, 1)
	assert.Equal(t, res.Record.Version, today.Version)

	assert.Equal(t, 1.0, f.counter(t, "attendance_punches_total", map[string]string{"type": "IN", "matched": "true"}))
	assert.Equal(t, 1.0, f.counter(t, "attendance_punches_total", map[string]string{"type": "OUT", "matched": "false"}))
}

func TestPunch_RejectedFixesRecordNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.attendance.Punch(ctx, mr1, attendance.PunchIn, northOfHQ(10, 1500))
	assert.True(t, errors.Is(err, apperr.ErrInaccurateFix))

	_, err = f.attendance.Punch(ctx, mr1, attendance.PunchIn, location.Reported{Denied: true})
	assert.True(t, errors.Is(err, apperr.ErrLocationUnavailable))

	_, err = f.attendance.Punch(ctx, mr1, attendance.PunchIn, location.Reported{})
	assert.True(t, errors.Is(err, apperr.ErrLocationUnavailable))

	_, err = f.store.Get(ctx, store.Attendance, attendance.DailyID("mr-1", "2026-10-19"))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	assert.Equal(t, 1.0, f.counter(t, "gps_rejections_total", map[string]string{"use": "attendance", "kind": string(apperr.KindInaccurateFix)}))
	assert.Equal(t, 2.0, f.counter(t, "gps_rejections_total", map[string]string{"use": "attendance", "kind": string(apperr.KindLocationUnavailable)}))
}

func TestPunch_CoarseFallback(t *testing.T) {
	f := newFixture(t)
	coarse := location.Fix{Latitude: 19.001, Longitude: 72.0, AccuracyMeters: 600}

	res, err := f.attendance.Punch(context.Background(), mr1, attendance.PunchIn, location.Reported{Coarse: &coarse})
	require.NoError(t, err)
	assert.Equal(t, 600.0, res.Record.PunchIn.Location.AccuracyMeters)
	assert.True(t, res.Geofence.Matched())
}

func TestPunch_OutBeforeIn(t *testing.T) {
	f := newFixture(t)
	_, err := f.attendance.Punch(context.Background(), mr2, attendance.PunchOut, northOfHQ(0, 10))
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	_, err = f.attendance.Punch(context.Background(), mr2, "LUNCH", northOfHQ(0, 10))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestTeamStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.attendance.Punch(ctx, mr1, attendance.PunchIn, northOfHQ(100, 15))
	require.NoError(t, err)

	rows, err := f.attendance.TeamStatus(ctx, asm1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Asha", rows[0].Name)
	assert.Equal(t, attendance.StatusWorking, rows[0].Status)
	assert.Equal(t, "Andheri", rows[0].Location)
	assert.Equal(t, "Ravi", rows[1].Name)
	assert.Equal(t, attendance.StatusAbsent, rows[1].Status)

	all, err := f.attendance.TeamStatus(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 5, "every MR and ASM")

	_, err = f.attendance.TeamStatus(ctx, mr1)
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
}

func TestDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.attendance.Punch(ctx, mr1, attendance.PunchIn, northOfHQ(100, 15))
	require.NoError(t, err)

	d, err := f.attendance.Day(ctx, asm1, "mr-1", "2026-10-19")
	require.NoError(t, err)
	assert.NotNil(t, d.PunchIn)

	empty, err := f.attendance.Day(ctx, mr1, "mr-1", "2026-10-18")
	require.NoError(t, err)
	assert.Nil(t, empty.PunchIn)

	_, err = f.attendance.Day(ctx, asm2, "mr-1", "2026-10-19")
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))

	_, err = f.attendance.Day(ctx, mr1, "mr-1", "19/10/2026")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestExportPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := attendance.NewDaily("mr-2", "2026-10-18")
	_, err := store.PutJSON(ctx, f.store, store.Attendance, d.ID, d, 0)
	require.NoError(t, err)

	n, err := f.attendance.ExportPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.attendance.ExportPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
