package service

import (
	"context"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
)

// Rates serves the global rate table from the cache, falling back to the
// store and then to the built-in defaults.
type Rates struct {
	env   Env
	cache rates.Cache
}

func NewRates(env Env, cache rates.Cache) *Rates {
	env.defaults()
	if cache == nil {
		cache = rates.NopCache{}
	}
	return &Rates{env: env, cache: cache}
}

// Table returns the current rate table. Cache failures are logged and
// bypassed.
func (s *Rates) Table(ctx context.Context) (rates.Table, error) {
	if t, ok, err := s.cache.Get(ctx); err != nil {
		s.env.Log.Warn("rates cache read failed", zap.Error(err))
	} else if ok {
		return t, nil
	}

	t, _, err := store.GetJSON[rates.Table](ctx, s.env.Store, store.Rates, store.RatesDocID)
	switch {
	case apperr.KindOf(err) == apperr.KindNotFound:
		t = rates.Defaults()
	case err != nil:
		return nil, err
	}

	if err := s.cache.Set(ctx, t); err != nil {
		s.env.Log.Warn("rates cache write failed", zap.Error(err))
	}
	return t, nil
}

// ConfigFor resolves the rates that apply to a profile.
func (s *Rates) ConfigFor(ctx context.Context, p roster.Profile) (rates.Config, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return rates.Config{}, err
	}
	return rates.Resolve(t, p.Role, p.Status), nil
}

// Update replaces the rate table. Admin only. Rows already priced keep
// their amounts until edited or repriced.
func (s *Rates) Update(ctx context.Context, actor roster.Actor, t rates.Table) (rates.Table, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := store.PutJSON(ctx, s.env.Store, store.Rates, store.RatesDocID, t, store.AnyVersion); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.env.Log.Warn("rates cache invalidate failed", zap.Error(err))
	}
	s.env.Log.Info("rates updated", zap.String("by", actor.UserID))
	return t, nil
}
