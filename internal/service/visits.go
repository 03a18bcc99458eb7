package service

import (
	"context"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
	"fieldforce-backend/internal/visit"
)

// Visits manages the customer master and visit reports.
type Visits struct {
	env   Env
	users *Directory
	gps   GPSSettings
	stock *Inventory
}

func NewVisits(env Env, users *Directory, gps GPSSettings) *Visits {
	env.defaults()
	return &Visits{env: env, users: users, gps: gps}
}

// WithStock makes recorded visits deduct the items given from the user's
// stock.
func (s *Visits) WithStock(inv *Inventory) *Visits {
	s.stock = inv
	return s
}

// canUseTerritory reports whether actor may manage customers in territoryID:
// admins anywhere, managers in their own or a direct report's territory,
// everyone else in their own.
func (s *Visits) canUseTerritory(ctx context.Context, actor roster.Actor, territoryID string) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	me, err := s.users.Profile(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	if _, ok := me.Territory(territoryID); ok {
		return true, nil
	}
	if !actor.Role.IsManager() {
		return false, nil
	}
	team, err := s.users.Team(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, m := range team {
		if _, ok := m.Territory(territoryID); ok {
			return true, nil
		}
	}
	return false, nil
}

// CreateCustomer adds a tagged customer to a territory.
func (s *Visits) CreateCustomer(ctx context.Context, actor roster.Actor, c visit.Customer) (visit.Customer, error) {
	created, err := visit.NewCustomer(s.env.NewID(), c)
	if err != nil {
		return visit.Customer{}, err
	}
	ok, err := s.canUseTerritory(ctx, actor, created.TerritoryID)
	if err != nil {
		return visit.Customer{}, err
	}
	if !ok {
		return visit.Customer{}, forbidden("this territory")
	}
	version, err := store.PutJSON(ctx, s.env.Store, store.Customers, created.ID, created, 0)
	if err != nil {
		return visit.Customer{}, err
	}
	created.Version = version
	return created, nil
}

func (s *Visits) customer(ctx context.Context, actor roster.Actor, id string) (visit.Customer, error) {
	c, version, err := store.GetJSON[visit.Customer](ctx, s.env.Store, store.Customers, id)
	if err != nil {
		return visit.Customer{}, err
	}
	c.Version = version
	ok, err := s.canUseTerritory(ctx, actor, c.TerritoryID)
	if err != nil {
		return visit.Customer{}, err
	}
	if !ok {
		return visit.Customer{}, forbidden("this customer")
	}
	return c, nil
}

// TagCustomer moves a customer's location to the device's current fix. The
// fix must meet the visit accuracy ceiling.
func (s *Visits) TagCustomer(ctx context.Context, actor roster.Actor, id string, provider location.Provider) (visit.Customer, error) {
	c, err := s.customer(ctx, actor, id)
	if err != nil {
		return visit.Customer{}, err
	}
	fix, err := location.Acquire(ctx, provider, s.gps.Location)
	if err != nil {
		s.env.Metrics.ObserveGPSRejection("tag", string(apperr.KindOf(err)))
		return visit.Customer{}, err
	}
	if err := s.gps.Visit.AccuracyCheck().Check(fix); err != nil {
		s.env.Metrics.ObserveGPSRejection("tag", string(apperr.KindOf(err)))
		return visit.Customer{}, err
	}
	tagged, err := c.Tag(fix)
	if err != nil {
		return visit.Customer{}, err
	}
	version, err := store.PutJSON(ctx, s.env.Store, store.Customers, id, tagged, c.Version)
	if err != nil {
		return visit.Customer{}, err
	}
	tagged.Version = version
	return tagged, nil
}

// Customers lists the customers of a territory.
func (s *Visits) Customers(ctx context.Context, actor roster.Actor, territoryID string) ([]visit.Customer, error) {
	ok, err := s.canUseTerritory(ctx, actor, territoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, forbidden("this territory")
	}
	return store.QueryJSON[visit.Customer](ctx, s.env.Store, store.Customers, store.Eq("territoryId", territoryID))
}

// Record verifies the actor's position against the customer and stores the
// visit. Out-of-range and untagged visits are stored unverified.
func (s *Visits) Record(ctx context.Context, actor roster.Actor, customerID string, provider location.Provider, notes visit.Notes) (visit.Record, error) {
	c, err := s.customer(ctx, actor, customerID)
	if err != nil {
		return visit.Record{}, err
	}
	fix, err := location.Acquire(ctx, provider, s.gps.Location)
	if err != nil {
		s.env.Metrics.ObserveGPSRejection("visit", string(apperr.KindOf(err)))
		return visit.Record{}, err
	}
	r, err := visit.NewRecord(s.env.NewID(), actor.UserID, c, fix, s.gps.Visit, notes, s.env.Now())
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInaccurateFix {
			s.env.Metrics.ObserveGPSRejection("visit", string(apperr.KindInaccurateFix))
		}
		return visit.Record{}, err
	}
	if _, err := store.PutJSON(ctx, s.env.Store, store.Visits, r.ID, r, 0); err != nil {
		return visit.Record{}, err
	}
	s.env.Metrics.ObserveVisit(string(r.Verification))
	if s.stock != nil && len(r.ItemsGiven) > 0 {
		if err := s.stock.DistributeOnVisit(ctx, actor.UserID, c.ID, r.ItemsGiven); err != nil {
			s.env.Log.Warn("stock deduction failed", zap.String("visit", r.ID), zap.Error(err))
		}
	}
	return r, nil
}

// List returns a user's visits on a date.
func (s *Visits) List(ctx context.Context, actor roster.Actor, userID, date string) ([]visit.Record, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, owner) {
		return nil, forbidden("these visits")
	}
	return store.QueryJSON[visit.Record](ctx, s.env.Store, store.Visits, store.Eq("userId", userID), store.Eq("date", date))
}
