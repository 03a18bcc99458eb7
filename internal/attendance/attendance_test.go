package attendance_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/geofence"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/storage"
)

var morning = time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC)

func matched(id, name string) geofence.Result {
	return geofence.Result{MatchedTerritoryID: &id, MatchedTerritoryName: &name, Nearby: []geofence.Nearby{}}
}

func unmatched() geofence.Result {
	return geofence.Result{Nearby: []geofence.Nearby{}}
}

func fix() location.Fix {
	return location.Fix{Latitude: 19.07, Longitude: 72.87, AccuracyMeters: 25}
}

func TestRecord_InThenOut(t *testing.T) {
	d := attendance.NewDaily("mr-1", "2026-10-19")
	assert.Equal(t, "mr-1_2026-10-19", d.ID)

	in := attendance.NewPunch("p1", attendance.PunchIn, fix(), matched("t-hq", "Andheri"), morning)
	d, err := d.Record(in)
	require.NoError(t, err)
	require.NotNil(t, d.PunchIn)
	assert.Equal(t, "Andheri", *d.PunchIn.VerifiedTerritoryName)
	assert.Equal(t, morning, d.PunchIn.Location.Timestamp)
	assert.False(t, d.IsSyncedToSheets)

	d.IsSyncedToSheets = true
	out := attendance.NewPunch("p2", attendance.PunchOut, fix(), unmatched(), morning.Add(8*time.Hour))
	d, err = d.Record(out)
	require.NoError(t, err)
	assert.Len(t, d.PunchOuts, 1)
	assert.Nil(t, d.PunchOuts[0].VerifiedTerritoryID)
	assert.False(t, d.IsSyncedToSheets, "a new punch needs a fresh export")
	assert.Equal(t, "p2", d.LastPunchOut().ID)

	// Multiple punch-outs are kept in order.
	d, err = d.Record(attendance.NewPunch("p3", attendance.PunchOut, fix(), unmatched(), morning.Add(9*time.Hour)))
	require.NoError(t, err)
	assert.Len(t, d.PunchOuts, 2)
	assert.Equal(t, "p3", d.LastPunchOut().ID)
}

func TestRecord_Rejections(t *testing.T) {
	d := attendance.NewDaily("mr-1", "2026-10-19")

	_, err := d.Record(attendance.NewPunch("p1", attendance.PunchOut, fix(), unmatched(), morning))
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	d, err = d.Record(attendance.NewPunch("p1", attendance.PunchIn, fix(), unmatched(), morning))
	require.NoError(t, err)
	_, err = d.Record(attendance.NewPunch("p2", attendance.PunchIn, fix(), unmatched(), morning))
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	_, err = d.Record(attendance.Punch{Type: "BREAK"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestRecord_DoesNotAliasPunchOuts(t *testing.T) {
	d := attendance.NewDaily("mr-1", "2026-10-19")
	d, _ = d.Record(attendance.NewPunch("p1", attendance.PunchIn, fix(), unmatched(), morning))
	a, err := d.Record(attendance.NewPunch("p2", attendance.PunchOut, fix(), unmatched(), morning))
	require.NoError(t, err)
	assert.Empty(t, d.PunchOuts)
	assert.Len(t, a.PunchOuts, 1)
}

func TestStatusMessage(t *testing.T) {
	msg, level := attendance.StatusMessage(attendance.PunchIn, matched("t-hq", "Andheri"))
	assert.Equal(t, "Verified: Inside Andheri", msg)
	assert.Equal(t, attendance.LevelSuccess, level)

	msg, level = attendance.StatusMessage(attendance.PunchIn, unmatched())
	assert.Equal(t, "Warning: You are outside your assigned territory.", msg)
	assert.Equal(t, attendance.LevelInfo, level)
}

func TestTeamStatus(t *testing.T) {
	members := []roster.Profile{
		{ID: "mr-1", DisplayName: "Asha", Role: roster.RoleMR},
		{ID: "mr-2", DisplayName: "Ravi", Role: roster.RoleMR},
		{ID: "mr-3", DisplayName: "Meena", Role: roster.RoleMR},
		{ID: "asm-2", DisplayName: "Kiran", Role: roster.RoleASM},
		{ID: "adm", DisplayName: "Office", Role: roster.RoleAdmin},
	}

	working := attendance.NewDaily("mr-1", "2026-10-19")
	working, _ = working.Record(attendance.NewPunch("p1", attendance.PunchIn, fix(), matched("t-hq", "Andheri"), morning))

	done := attendance.NewDaily("mr-2", "2026-10-19")
	done, _ = done.Record(attendance.NewPunch("p2", attendance.PunchIn, fix(), unmatched(), morning))
	done, _ = done.Record(attendance.NewPunch("p3", attendance.PunchOut, fix(), unmatched(), morning.Add(time.Hour)))

	rows := attendance.TeamStatus(members, map[string]attendance.Daily{"mr-1": working, "mr-2": done})
	require.Len(t, rows, 4)

	assert.Equal(t, attendance.StatusWorking, rows[0].Status)
	assert.Equal(t, "Andheri", rows[0].Location)
	require.NotNil(t, rows[0].LastActive)
	assert.Equal(t, morning, *rows[0].LastActive)

	assert.Equal(t, attendance.StatusCompleted, rows[1].Status)
	assert.Equal(t, "Field", rows[1].Location)

	assert.Equal(t, attendance.StatusAbsent, rows[2].Status)
	assert.Equal(t, "Not Started", rows[2].Location)
	assert.Nil(t, rows[2].LastActive)

	assert.Equal(t, roster.RoleASM, rows[3].Role)
	assert.Equal(t, 1, attendance.WorkingCount(rows))
}

func TestExporter(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	d := attendance.NewDaily("mr-1", "2026-10-19")
	d, _ = d.Record(attendance.NewPunch("p1", attendance.PunchIn, fix(), unmatched(), morning))

	url, err := attendance.NewExporter(files).Export(context.Background(), d)
	require.NoError(t, err)
	assert.Contains(t, url, "attendance/2026-10-19/mr-1.json")

	raw, err := os.ReadFile(filepath.Join(dir, "attendance", "2026-10-19", "mr-1.json"))
	require.NoError(t, err)
	var got attendance.Daily
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, got.IsSyncedToSheets)
	assert.Equal(t, "p1", got.PunchIn.ID)
}
