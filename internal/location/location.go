// Package location acquires a GPS fix from a device provider, trying a
// precise reading first and falling back once to a coarse one.
package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/geo"
)

// Fix is one position reading.
type Fix struct {
	Latitude       float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64   `json:"longitude" validate:"gte=-180,lte=180"`
	AccuracyMeters float64   `json:"accuracy" validate:"gte=0"`
	Timestamp      time.Time `json:"timestamp"`
}

// Point returns the fix as a coordinate pair.
func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lng: f.Longitude}
}

// Validate rejects coordinates outside the valid range and NaN readings.
func (f Fix) Validate() error {
	switch {
	case math.IsNaN(f.Latitude) || math.IsNaN(f.Longitude) || math.IsNaN(f.AccuracyMeters):
		return apperr.New(apperr.KindValidation, "INVALID_FIX", "Location contains invalid numbers")
	case f.Latitude < -90 || f.Latitude > 90:
		return apperr.Newf(apperr.KindValidation, "INVALID_FIX", "Latitude %.6f is out of range", f.Latitude)
	case f.Longitude < -180 || f.Longitude > 180:
		return apperr.Newf(apperr.KindValidation, "INVALID_FIX", "Longitude %.6f is out of range", f.Longitude)
	case f.AccuracyMeters < 0:
		return apperr.New(apperr.KindValidation, "INVALID_FIX", "Accuracy must not be negative")
	}
	return nil
}

// Request describes one attempt to read the position.
type Request struct {
	HighAccuracy bool
	// MaxAge is how old a cached reading may be. Zero demands a fresh fix,
	// a negative value accepts any cached fix.
	MaxAge time.Duration
}

// Provider returns the device's current position. Implementations must
// honor ctx cancellation and return ErrPermissionDenied when the user
// refused access.
type Provider interface {
	CurrentFix(ctx context.Context, req Request) (Fix, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (Fix, error)

// CurrentFix calls f.
func (f ProviderFunc) CurrentFix(ctx context.Context, req Request) (Fix, error) {
	return f(ctx, req)
}

var (
	ErrPermissionDenied = apperr.New(apperr.KindLocationUnavailable, "LOCATION_PERMISSION_DENIED", "Location access was denied on the device")
	ErrUnavailable      = apperr.New(apperr.KindLocationUnavailable, "LOCATION_UNAVAILABLE", "Could not get location, move outdoors and try again")
)

// Options bounds the two acquisition attempts.
type Options struct {
	PrimaryTimeout  time.Duration
	FallbackTimeout time.Duration
}

// DefaultOptions waits 3s for a precise fix and 30s for the coarse one.
func DefaultOptions() Options {
	return Options{PrimaryTimeout: 3 * time.Second, FallbackTimeout: 30 * time.Second}
}

// Acquire asks p for a high-accuracy fix within PrimaryTimeout. If that
// fails for any reason other than a permission denial it makes exactly one
// low-accuracy request that accepts cached readings, bounded by
// FallbackTimeout. Failures surface as LocationUnavailable errors.
func Acquire(ctx context.Context, p Provider, opts Options) (Fix, error) {
	if opts.PrimaryTimeout <= 0 || opts.FallbackTimeout <= 0 {
		opts = DefaultOptions()
	}

	fix, err := attempt(ctx, p, Request{HighAccuracy: true}, opts.PrimaryTimeout)
	if err == nil {
		return fix, nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		return Fix{}, ErrPermissionDenied
	}
	if ctx.Err() != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}

	fix, err = attempt(ctx, p, Request{HighAccuracy: false, MaxAge: -1}, opts.FallbackTimeout)
	if err == nil {
		return fix, nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		return Fix{}, ErrPermissionDenied
	}
	return Fix{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func attempt(ctx context.Context, p Provider, req Request, timeout time.Duration) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fix, err := p.CurrentFix(ctx, req)
	if err != nil {
		return Fix{}, err
	}
	if err := fix.Validate(); err != nil {
		return Fix{}, err
	}
	return fix, nil
}
