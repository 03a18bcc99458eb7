package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/geo"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/roster"
)

var center = geo.Point{Lat: 28.7041, Lng: 77.1025}

// north returns the point the given distance due north of p.
func north(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/geo.EarthRadiusMeters*180/math.Pi, Lng: p.Lng}
}

func fp(v float64) *float64 { return &v }

func territoryAt(id string, p geo.Point, radius *float64) roster.Territory {
	return roster.Territory{ID: id, Name: "Territory " + id, Category: "HQ", GeoLat: fp(p.Lat), GeoLng: fp(p.Lng), GeoRadius: radius}
}

func TestLocate_RadiusMatch(t *testing.T) {
	list := []roster.Territory{territoryAt("a", center, fp(2000))}

	inside := Locate(north(center, 150), list)
	require.True(t, inside.Matched())
	assert.Equal(t, "a", *inside.MatchedTerritoryID)
	assert.Equal(t, "Territory a", *inside.MatchedTerritoryName)
	assert.InDelta(t, 150, *inside.DistanceMeters, 0.01)

	outside := Locate(north(center, 2500), list)
	assert.False(t, outside.Matched())
	require.Len(t, outside.Nearby, 1)
	assert.Equal(t, "a", outside.Nearby[0].TerritoryID)
	assert.InDelta(t, 2500, outside.Nearby[0].DistanceMeters, 0.01)
}

func TestLocate_DefaultRadius(t *testing.T) {
	list := []roster.Territory{territoryAt("a", center, nil)}
	assert.True(t, Locate(north(center, 1999), list).Matched())
	assert.False(t, Locate(north(center, 2001), list).Matched())
}

func TestLocate_OnlyClosestCanMatch(t *testing.T) {
	list := []roster.Territory{
		territoryAt("far-big", north(center, 900), fp(5000)),
		territoryAt("near-small", north(center, 300), fp(100)),
	}
	res := Locate(center, list)
	assert.False(t, res.Matched(), "closest territory has a small radius")
	require.Len(t, res.Nearby, 2)
	assert.Equal(t, "near-small", res.Nearby[0].TerritoryID)
	assert.Equal(t, "far-big", res.Nearby[1].TerritoryID)
}

func TestLocate_NearbySortedAndCapped(t *testing.T) {
	list := []roster.Territory{
		{ID: "no-coords", Name: "Unmapped"},
		territoryAt("c", north(center, 3000), nil),
		territoryAt("a", north(center, 500), nil),
		territoryAt("b", north(center, 1500), nil),
	}

	res := Locate(center, list)
	require.Len(t, res.Nearby, MaxNearby)
	assert.Equal(t, "a", res.Nearby[0].TerritoryID)
	assert.Equal(t, "b", res.Nearby[1].TerritoryID)
	assert.LessOrEqual(t, res.Nearby[0].DistanceMeters, res.Nearby[1].DistanceMeters)
	assert.Equal(t, res, Locate(center, list), "same inputs give the same result")
}

func TestLocate_NoCoordinates(t *testing.T) {
	res := Locate(center, []roster.Territory{{ID: "x"}, {ID: "y", GeoLat: fp(1)}})
	assert.False(t, res.Matched())
	assert.Empty(t, res.Nearby)
	assert.Nil(t, res.DistanceMeters)

	empty := Locate(center, nil)
	assert.False(t, empty.Matched())
	assert.NotNil(t, empty.Nearby)
}

func TestAccuracyPolicy(t *testing.T) {
	list := []roster.Territory{territoryAt("a", center, nil)}
	p := AttendancePolicy()

	res, err := p.Verify(location.Fix{Latitude: center.Lat, Longitude: center.Lng, AccuracyMeters: 1000}, list)
	require.NoError(t, err)
	assert.True(t, res.Matched())

	_, err = p.Verify(location.Fix{Latitude: center.Lat, Longitude: center.Lng, AccuracyMeters: 1000.5}, list)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInaccurateFix)
	assert.Contains(t, err.Error(), "1001m")
}

func TestVisitPolicy(t *testing.T) {
	tagged := center
	fixAt := func(p geo.Point, acc float64) location.Fix {
		return location.Fix{Latitude: p.Lat, Longitude: p.Lng, AccuracyMeters: acc}
	}
	relaxed := DefaultVisitPolicy()
	relaxed.RelaxedMode = true

	tests := []struct {
		name     string
		policy   VisitPolicy
		fix      location.Fix
		target   *geo.Point
		want     Verification
		verified bool
		wantErr  error
	}{
		{"within radius", DefaultVisitPolicy(), fixAt(north(tagged, 150), 20), &tagged, VerificationInRange, true, nil},
		{"on the boundary", DefaultVisitPolicy(), fixAt(north(tagged, 199.9), 20), &tagged, VerificationInRange, true, nil},
		{"out of range", DefaultVisitPolicy(), fixAt(north(tagged, 450), 20), &tagged, VerificationOutOfRange, false, nil},
		{"untagged customer", DefaultVisitPolicy(), fixAt(center, 5000), nil, VerificationUntagged, false, nil},
		{"coarse fix rejected", DefaultVisitPolicy(), fixAt(tagged, 350), &tagged, "", false, apperr.ErrInaccurateFix},
		{"terrible fix rejected without relaxed mode", DefaultVisitPolicy(), fixAt(north(tagged, 5000), 1500), &tagged, "", false, apperr.ErrInaccurateFix},
		{"relaxed mode verifies terrible fix", relaxed, fixAt(north(tagged, 5000), 1500), &tagged, VerificationRelaxed, true, nil},
		{"relaxed mode still gates mid accuracy", relaxed, fixAt(tagged, 600), &tagged, "", false, apperr.ErrInaccurateFix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Verify(tt.fix, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Verification)
			assert.Equal(t, tt.verified, got.Verified)
		})
	}
}
