package service

import (
	"context"

	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/sales"
	"fieldforce-backend/internal/store"
)

// Targets stores monthly sales targets.
type Targets struct {
	env   Env
	users *Directory
}

func NewTargets(env Env, users *Directory) *Targets {
	env.defaults()
	return &Targets{env: env, users: users}
}

// Get returns a user's target for the month, or NotFound if none was set.
func (s *Targets) Get(ctx context.Context, actor roster.Actor, userID string, month, year int) (sales.Target, error) {
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return sales.Target{}, err
	}
	if !canView(actor, owner) {
		return sales.Target{}, forbidden("this sales target")
	}
	t, version, err := store.GetJSON[sales.Target](ctx, s.env.Store, store.Targets, sales.TargetID(userID, month, year))
	if err != nil {
		return sales.Target{}, err
	}
	t.Version = version
	return t, nil
}

// Set creates or replaces a target. Admins set anyone's, managers their
// direct reports'.
func (s *Targets) Set(ctx context.Context, actor roster.Actor, userID string, month, year int, target, achieved decimal.Decimal) (sales.Target, error) {
	if err := requireManager(actor); err != nil {
		return sales.Target{}, err
	}
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return sales.Target{}, err
	}
	if !actor.IsAdmin() && !owner.ReportsTo(actor.UserID) {
		return sales.Target{}, forbidden("this user's sales target")
	}
	t, err := sales.NewTarget(userID, month, year, target, achieved)
	if err != nil {
		return sales.Target{}, err
	}
	version, err := store.PutJSON(ctx, s.env.Store, store.Targets, t.ID, t, store.AnyVersion)
	if err != nil {
		return sales.Target{}, err
	}
	t.Version = version
	return t, nil
}
