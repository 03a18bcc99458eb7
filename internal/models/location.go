package models

import (
	"fieldforce-backend/internal/location"
)

// LocationPayload carries the readings the device took before calling the
// API: the high-accuracy attempt, the low-accuracy fallback, or a flag
// saying the user refused location access.
type LocationPayload struct {
	Precise *location.Fix `json:"precise" validate:"omitempty"`
	Coarse  *location.Fix `json:"coarse" validate:"omitempty"`
	Denied  bool          `json:"denied"`
}

// Provider serves the payload to location.Acquire.
func (p LocationPayload) Provider() location.Reported {
	return location.Reported{Precise: p.Precise, Coarse: p.Coarse, Denied: p.Denied}
}

// PunchRequest records an attendance punch.
type PunchRequest struct {
	Type     string          `json:"type" validate:"required,oneof=IN OUT"`
	Location LocationPayload `json:"location"`
}

func (r *PunchRequest) Validate() map[string]string {
	return Validate(r)
}

// TagRequest moves a customer's tagged location.
type TagRequest struct {
	Location LocationPayload `json:"location"`
}

func (r *TagRequest) Validate() map[string]string {
	return Validate(r)
}
