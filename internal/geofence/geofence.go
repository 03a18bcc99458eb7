// Package geofence verifies physical presence: which of a user's territories
// a GPS fix falls in, and whether a visit happened at a customer's tagged
// location.
package geofence

import (
	"math"
	"sort"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/geo"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/roster"
)

// MaxNearby is how many closest territories a Result lists.
const MaxNearby = 2

// Nearby is a territory with its distance from the fix.
type Nearby struct {
	TerritoryID    string  `json:"territoryId"`
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
	RadiusMeters   float64 `json:"radiusMeters"`
}

// Result is the outcome of matching a fix against territories.
// DistanceMeters is the distance to the closest territory with coordinates
// and is nil when no territory has any.
type Result struct {
	MatchedTerritoryID   *string  `json:"matchedTerritoryId,omitempty"`
	MatchedTerritoryName *string  `json:"matchedTerritoryName,omitempty"`
	Nearby               []Nearby `json:"nearby"`
	DistanceMeters       *float64 `json:"distanceMeters,omitempty"`
}

// Matched reports whether the fix fell inside a territory.
func (r Result) Matched() bool {
	return r.MatchedTerritoryID != nil
}

type ranked struct {
	territory roster.Territory
	distance  float64
}

// Locate ranks territories by distance from p. Territories without both
// coordinates rank last and are never matched or listed. The closest
// territory matches when p lies within its radius. The output depends only
// on the inputs, and ties keep the input order.
func Locate(p geo.Point, territories []roster.Territory) Result {
	list := make([]ranked, 0, len(territories))
	for _, t := range territories {
		d := math.Inf(1)
		if t.HasGeofence() {
			d = geo.DistanceMeters(p, geo.Point{Lat: *t.GeoLat, Lng: *t.GeoLng})
		}
		list = append(list, ranked{territory: t, distance: d})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].distance < list[j].distance })

	res := Result{Nearby: []Nearby{}}
	if len(list) == 0 || math.IsInf(list[0].distance, 1) {
		return res
	}

	closest := list[0]
	dist := closest.distance
	res.DistanceMeters = &dist
	if closest.distance <= closest.territory.Radius() {
		id, name := closest.territory.ID, closest.territory.Name
		res.MatchedTerritoryID = &id
		res.MatchedTerritoryName = &name
	}

	for _, r := range list {
		if len(res.Nearby) == MaxNearby || math.IsInf(r.distance, 1) {
			break
		}
		res.Nearby = append(res.Nearby, Nearby{
			TerritoryID:    r.territory.ID,
			Name:           r.territory.Name,
			DistanceMeters: r.distance,
			RadiusMeters:   r.territory.Radius(),
		})
	}
	return res
}

// AccuracyPolicy rejects fixes whose reported accuracy is worse than the
// ceiling.
type AccuracyPolicy struct {
	MaxAccuracyMeters float64
}

// Check returns an InaccurateFix error when the fix is too coarse.
func (p AccuracyPolicy) Check(fix location.Fix) error {
	if fix.AccuracyMeters > p.MaxAccuracyMeters {
		return apperr.Newf(apperr.KindInaccurateFix, "WEAK_GPS_SIGNAL",
			"Weak GPS signal (%dm). Move outdoors.", int(math.Round(fix.AccuracyMeters)))
	}
	return nil
}

// AttendancePolicy is the accuracy ceiling for punches.
func AttendancePolicy() AccuracyPolicy {
	return AccuracyPolicy{MaxAccuracyMeters: 1000}
}

// Verify gates the fix on accuracy, then matches it against territories.
func (p AccuracyPolicy) Verify(fix location.Fix, territories []roster.Territory) (Result, error) {
	if err := p.Check(fix); err != nil {
		return Result{}, err
	}
	return Locate(fix.Point(), territories), nil
}
