// Package service runs the field-force operations against the document
// store: it loads the acting user's context, calls the domain packages and
// persists the result with optimistic concurrency.
package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/expense"
	"fieldforce-backend/internal/metrics"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
)

// Env is shared by every service.
type Env struct {
	Store   store.Store
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
	NewID   func() string
}

func (e *Env) defaults() {
	if e.Log == nil {
		e.Log = zap.NewNop()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.NewID == nil {
		e.NewID = func() string { return uuid.NewString() }
	}
}

// canView reports whether actor may read data owned by owner: the owner
// themself, an admin, or the owner's reporting manager.
func canView(actor roster.Actor, owner roster.Profile) bool {
	return actor.UserID == owner.ID || actor.IsAdmin() || owner.ReportsTo(actor.UserID)
}

func requireAdmin(actor roster.Actor) error {
	if !actor.IsAdmin() {
		return apperr.New(apperr.KindPermissionDenied, "ADMIN_ONLY", "Only an admin can do this")
	}
	return nil
}

func requireManager(actor roster.Actor) error {
	if !actor.Role.IsManager() && !actor.IsAdmin() {
		return apperr.New(apperr.KindPermissionDenied, "MANAGER_ONLY", "Only managers can do this")
	}
	return nil
}

func forbidden(what string) error {
	return apperr.Newf(apperr.KindPermissionDenied, "FORBIDDEN", "You do not have access to %s", what)
}

func decodeDoc[T any](d store.Document) (T, error) {
	var v T
	if err := json.Unmarshal(d.Body, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return v, nil
}

func sortSheets(sheets []expense.Sheet) {
	sort.SliceStable(sheets, func(i, j int) bool {
		if sheets[i].Year != sheets[j].Year {
			return sheets[i].Year < sheets[j].Year
		}
		return sheets[i].Month < sheets[j].Month
	})
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperr.Newf(apperr.KindValidation, "INVALID_DATE", "Date %q must be YYYY-MM-DD", date)
	}
	return nil
}
