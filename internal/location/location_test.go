package location

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
)

var fastOpts = Options{PrimaryTimeout: 20 * time.Millisecond, FallbackTimeout: 200 * time.Millisecond}

func TestAcquire_PreciseFirst(t *testing.T) {
	var calls int32
	p := ProviderFunc(func(ctx context.Context, req Request) (Fix, error) {
		atomic.AddInt32(&calls, 1)
		assert.True(t, req.HighAccuracy)
		return Fix{Latitude: 28.7, Longitude: 77.1, AccuracyMeters: 12}, nil
	})

	fix, err := Acquire(context.Background(), p, fastOpts)
	require.NoError(t, err)
	assert.Equal(t, 12.0, fix.AccuracyMeters)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAcquire_FallsBackOnceAfterTimeout(t *testing.T) {
	var requests []Request
	p := ProviderFunc(func(ctx context.Context, req Request) (Fix, error) {
		requests = append(requests, req)
		if req.HighAccuracy {
			<-ctx.Done()
			return Fix{}, ctx.Err()
		}
		return Fix{Latitude: 28.7, Longitude: 77.1, AccuracyMeters: 900}, nil
	})

	fix, err := Acquire(context.Background(), p, fastOpts)
	require.NoError(t, err)
	assert.Equal(t, 900.0, fix.AccuracyMeters)
	require.Len(t, requests, 2)
	assert.False(t, requests[1].HighAccuracy)
	assert.Negative(t, int64(requests[1].MaxAge))
}

func TestAcquire_FailsAfterSingleFallback(t *testing.T) {
	var calls int32
	p := ProviderFunc(func(ctx context.Context, req Request) (Fix, error) {
		atomic.AddInt32(&calls, 1)
		return Fix{}, errors.New("no satellites")
	})

	_, err := Acquire(context.Background(), p, fastOpts)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrLocationUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAcquire_PermissionDeniedSkipsFallback(t *testing.T) {
	var calls int32
	p := ProviderFunc(func(ctx context.Context, req Request) (Fix, error) {
		atomic.AddInt32(&calls, 1)
		return Fix{}, ErrPermissionDenied
	})

	_, err := Acquire(context.Background(), p, fastOpts)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAcquire_InvalidFixTriggersFallback(t *testing.T) {
	p := ProviderFunc(func(ctx context.Context, req Request) (Fix, error) {
		if req.HighAccuracy {
			return Fix{Latitude: 123}, nil
		}
		return Fix{Latitude: 12, Longitude: 77, AccuracyMeters: 50}, nil
	})

	fix, err := Acquire(context.Background(), p, fastOpts)
	require.NoError(t, err)
	assert.Equal(t, 12.0, fix.Latitude)
}

func TestReported(t *testing.T) {
	precise := &Fix{Latitude: 1, Longitude: 2, AccuracyMeters: 8}
	coarse := &Fix{Latitude: 1, Longitude: 2, AccuracyMeters: 1500}
	ctx := context.Background()

	fix, err := Acquire(ctx, Reported{Precise: precise, Coarse: coarse}, fastOpts)
	require.NoError(t, err)
	assert.Equal(t, 8.0, fix.AccuracyMeters)

	fix, err = Acquire(ctx, Reported{Coarse: coarse}, fastOpts)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, fix.AccuracyMeters)

	_, err = Acquire(ctx, Reported{}, fastOpts)
	assert.ErrorIs(t, err, apperr.ErrLocationUnavailable)

	_, err = Acquire(ctx, Reported{Precise: precise, Denied: true}, fastOpts)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFixValidate(t *testing.T) {
	assert.NoError(t, Fix{Latitude: -90, Longitude: 180}.Validate())
	assert.ErrorIs(t, Fix{Latitude: 91}.Validate(), apperr.ErrValidation)
	assert.ErrorIs(t, Fix{Longitude: -181}.Validate(), apperr.ErrValidation)
	assert.ErrorIs(t, Fix{AccuracyMeters: -1}.Validate(), apperr.ErrValidation)
}
