package geofence

import (
	"fieldforce-backend/internal/geo"
	"fieldforce-backend/internal/location"
)

// Verification is how a visit's location was judged.
type Verification string

const (
	VerificationInRange    Verification = "IN_RANGE"
	VerificationOutOfRange Verification = "OUT_OF_RANGE"
	VerificationUntagged   Verification = "UNTAGGED"
	VerificationRelaxed    Verification = "RELAXED"
)

// VisitPolicy checks a visit against a customer's tagged point.
//
// RelaxedMode auto-verifies fixes coarser than RelaxedAccuracyMeters, for
// devices without GPS such as desktop browsers. It is off in production.
type VisitPolicy struct {
	RadiusMeters          float64
	MaxAccuracyMeters     float64
	RelaxedMode           bool
	RelaxedAccuracyMeters float64
}

// DefaultVisitPolicy matches within 200m and needs 200m accuracy.
func DefaultVisitPolicy() VisitPolicy {
	return VisitPolicy{
		RadiusMeters:          200,
		MaxAccuracyMeters:     200,
		RelaxedAccuracyMeters: 1000,
	}
}

// AccuracyCheck returns the accuracy gate applied to visit fixes.
func (p VisitPolicy) AccuracyCheck() AccuracyPolicy {
	return AccuracyPolicy{MaxAccuracyMeters: p.MaxAccuracyMeters}
}

// VisitResult is the outcome of a visit check.
type VisitResult struct {
	Verification   Verification `json:"verification"`
	Verified       bool         `json:"verified"`
	DistanceMeters float64      `json:"distanceMeters"`
}

// Verify judges a visit. target is the customer's tagged location, nil when
// the customer was never tagged. An out-of-range result is not an error:
// the caller decides whether to record the visit as unverified.
func (p VisitPolicy) Verify(fix location.Fix, target *geo.Point) (VisitResult, error) {
	if target == nil {
		return VisitResult{Verification: VerificationUntagged}, nil
	}

	dist := geo.DistanceMeters(fix.Point(), *target)
	if p.RelaxedMode && fix.AccuracyMeters > p.RelaxedAccuracyMeters {
		return VisitResult{Verification: VerificationRelaxed, Verified: true, DistanceMeters: dist}, nil
	}

	if err := p.AccuracyCheck().Check(fix); err != nil {
		return VisitResult{}, err
	}

	if dist <= p.RadiusMeters {
		return VisitResult{Verification: VerificationInRange, Verified: true, DistanceMeters: dist}, nil
	}
	return VisitResult{Verification: VerificationOutOfRange, DistanceMeters: dist}, nil
}
