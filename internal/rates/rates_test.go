package rates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/roster"
)

func TestResolve(t *testing.T) {
	table := Defaults()

	tests := []struct {
		name   string
		table  Table
		role   roster.Role
		status roster.Status
		wantHQ int64
	}{
		{"exact ASM confirmed", table, roster.RoleASM, roster.StatusConfirmed, 300},
		{"missing status falls back to MR confirmed", table, roster.RoleASM, roster.StatusTrainee, 250},
		{"missing role falls back to MR confirmed", table, roster.RoleZM, roster.StatusConfirmed, 250},
		{"empty table yields zero", Table{}, roster.RoleMR, roster.StatusConfirmed, 0},
		{"nil table yields zero", nil, roster.RoleAdmin, roster.StatusTrainee, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.table, tt.role, tt.status)
			assert.True(t, got.HQAllowance.Equal(decimal.NewFromInt(tt.wantHQ)), "got %s", got.HQAllowance)
		})
	}
}

func TestDefaults(t *testing.T) {
	admin, ok := Defaults().Lookup(roster.RoleAdmin, roster.StatusConfirmed)
	require.True(t, ok)
	assert.Equal(t, "1200", admin.OutstationAllowance.String())
	assert.Equal(t, "8", admin.KmRate.String())

	mr, ok := Defaults().Lookup(roster.RoleMR, roster.StatusConfirmed)
	require.True(t, ok)
	assert.Equal(t, "3.5", mr.KmRate.String())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())

	bad := Defaults()
	bad.Set(roster.RoleRM, roster.StatusTrainee, Config{KmRate: decimal.NewFromInt(-1)})
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	unknown := Table{"CEO": {roster.StatusConfirmed: Config{}}}
	assert.ErrorIs(t, unknown.Validate(), apperr.ErrValidation)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheWithClient(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, Defaults()))
	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "450", Resolve(got, roster.RoleASM, roster.StatusConfirmed).ExHQAllowance.String())

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after TTL")

	require.NoError(t, cache.Set(ctx, Defaults()))
	require.NoError(t, cache.Invalidate(ctx))
	_, ok, _ = cache.Get(ctx)
	assert.False(t, ok)
}
