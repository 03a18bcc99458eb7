package roster

import "github.com/shopspring/decimal"

// DefaultGeoRadiusMeters applies to territories without an explicit radius.
const DefaultGeoRadiusMeters = 2000.0

// Territory is a named work area assigned to exactly one user. Category holds
// the expense category a day spent in the territory falls under.
type Territory struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	FixedKm   decimal.Decimal `json:"fixedKm"`
	GeoLat    *float64        `json:"geoLat,omitempty"`
	GeoLng    *float64        `json:"geoLng,omitempty"`
	GeoRadius *float64        `json:"geoRadius,omitempty"`
}

// HasGeofence reports whether both center coordinates are set.
func (t Territory) HasGeofence() bool {
	return t.GeoLat != nil && t.GeoLng != nil
}

// Radius returns the geofence radius in meters, defaulting to 2000.
func (t Territory) Radius() float64 {
	if t.GeoRadius == nil || *t.GeoRadius <= 0 {
		return DefaultGeoRadiusMeters
	}
	return *t.GeoRadius
}

// FindTerritory looks a territory up by id.
func FindTerritory(territories []Territory, id string) (Territory, bool) {
	for _, t := range territories {
		if t.ID == id {
			return t, true
		}
	}
	return Territory{}, false
}
