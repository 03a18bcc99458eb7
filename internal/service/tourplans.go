package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/notify"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
	"fieldforce-backend/internal/tourplan"
)

// TourPlans runs the monthly tour plan workflow.
type TourPlans struct {
	env    Env
	users  *Directory
	notify *Notifications
}

func NewTourPlans(env Env, users *Directory, notifications *Notifications) *TourPlans {
	env.defaults()
	return &TourPlans{env: env, users: users, notify: notifications}
}

func (s *TourPlans) load(ctx context.Context, id string) (tourplan.Plan, error) {
	p, version, err := store.GetJSON[tourplan.Plan](ctx, s.env.Store, store.TourPlans, id)
	if err != nil {
		return tourplan.Plan{}, err
	}
	p.Version = version
	return p, nil
}

func (s *TourPlans) save(ctx context.Context, p tourplan.Plan, expected int64) (tourplan.Plan, error) {
	version, err := store.PutJSON(ctx, s.env.Store, store.TourPlans, p.ID, p, expected)
	if err != nil {
		return tourplan.Plan{}, err
	}
	p.Version = version
	return p, nil
}

// Plan returns a user's tour plan for the month. As with expense sheets, the
// owner's first read creates the DRAFT plan.
func (s *TourPlans) Plan(ctx context.Context, actor roster.Actor, userID string, year, month int) (tourplan.Plan, error) {
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return tourplan.Plan{}, err
	}
	if !canView(actor, owner) {
		return tourplan.Plan{}, forbidden("this tour plan")
	}

	id := tourplan.PlanID(userID, year, month)
	p, err := s.load(ctx, id)
	if err == nil || apperr.KindOf(err) != apperr.KindNotFound || actor.UserID != userID {
		return p, err
	}

	fresh, err := tourplan.NewPlan(userID, year, month, s.env.NewID)
	if err != nil {
		return tourplan.Plan{}, err
	}
	created, err := s.save(ctx, fresh, 0)
	if apperr.KindOf(err) == apperr.KindConflict {
		created, err = s.load(ctx, id)
	}
	return created, err
}

// UpdateEntries edits planned days. version is the plan version the client
// edited; 0 skips the check.
func (s *TourPlans) UpdateEntries(ctx context.Context, actor roster.Actor, planID string, version int64, updates []tourplan.EntryUpdate) (tourplan.Plan, error) {
	p, owner, err := s.loadWithOwner(ctx, actor, planID)
	if err != nil {
		return tourplan.Plan{}, err
	}
	if version > 0 && version != p.Version {
		return tourplan.Plan{}, store.Conflict(store.TourPlans, planID)
	}
	for _, u := range updates {
		if u.JointWorkWithUID == "" {
			continue
		}
		if _, err := s.users.Profile(ctx, u.JointWorkWithUID); err != nil {
			return tourplan.Plan{}, apperr.Newf(apperr.KindValidation, "INVALID_JOINT_WORK", "Joint work partner %q does not exist", u.JointWorkWithUID)
		}
	}
	next, err := p.ApplyChanges(actor, updates, owner.Territories)
	if err != nil {
		return tourplan.Plan{}, err
	}
	return s.save(ctx, next, p.Version)
}

// Submit sends the owner's plan to their manager.
func (s *TourPlans) Submit(ctx context.Context, actor roster.Actor, planID string) (tourplan.Plan, error) {
	p, owner, err := s.loadWithOwner(ctx, actor, planID)
	if err != nil {
		return tourplan.Plan{}, err
	}
	next, err := p.Submit(actor, s.env.Now())
	if err != nil {
		return tourplan.Plan{}, err
	}
	saved, err := s.transition(ctx, p, next, tourplan.ActionSubmit)
	if err != nil {
		return tourplan.Plan{}, err
	}
	if owner.ReportingManagerID != "" {
		s.send(ctx, owner.ReportingManagerID, notify.TypeInfo, "Tour plan submitted",
			fmt.Sprintf("%s submitted a tour plan for %s", owner.DisplayName, planLabel(p)))
	}
	return saved, nil
}

// Approve finalizes a submitted plan.
func (s *TourPlans) Approve(ctx context.Context, actor roster.Actor, planID string) (tourplan.Plan, error) {
	p, owner, err := s.loadForReview(ctx, actor, planID)
	if err != nil {
		return tourplan.Plan{}, err
	}
	next, err := p.Approve(actor, owner, s.env.Now())
	if err != nil {
		return tourplan.Plan{}, err
	}
	saved, err := s.transition(ctx, p, next, tourplan.ActionApprove)
	if err != nil {
		return tourplan.Plan{}, err
	}
	s.send(ctx, owner.ID, notify.TypeSuccess, "Tour plan approved",
		fmt.Sprintf("Your tour plan for %s was approved", planLabel(p)))
	return saved, nil
}

// Reject returns a plan to its owner with a reason.
func (s *TourPlans) Reject(ctx context.Context, actor roster.Actor, planID, reason string) (tourplan.Plan, error) {
	p, owner, err := s.loadForReview(ctx, actor, planID)
	if err != nil {
		return tourplan.Plan{}, err
	}
	next, err := p.Reject(actor, owner, reason)
	if err != nil {
		return tourplan.Plan{}, err
	}
	saved, err := s.transition(ctx, p, next, tourplan.ActionReject)
	if err != nil {
		return tourplan.Plan{}, err
	}
	s.send(ctx, owner.ID, notify.TypeAlert, "Tour plan rejected",
		fmt.Sprintf("Your tour plan for %s was rejected: %s", planLabel(p), saved.RejectionReason))
	return saved, nil
}

// PlanSummary is one row of the pending review list.
type PlanSummary struct {
	PlanID      string          `json:"planId"`
	UserID      string          `json:"userId"`
	UserName    string          `json:"userName"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Status      tourplan.Status `json:"status"`
	SubmittedAt *time.Time      `json:"submittedAt,omitempty"`
	Version     int64           `json:"version"`
}

// Pending lists the plans waiting on the actor: every SUBMITTED plan for
// admins, SUBMITTED plans of direct reports for ASMs. Oldest submissions
// come first.
func (s *TourPlans) Pending(ctx context.Context, actor roster.Actor) ([]PlanSummary, error) {
	statuses := tourplan.ReviewableStatuses(actor.Role)
	if len(statuses) == 0 {
		return nil, apperr.Newf(apperr.KindPermissionDenied, "NO_APPROVAL_AUTHORITY", "Role %s cannot review tour plans", actor.Role)
	}
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	docs, err := s.env.Store.Query(ctx, store.TourPlans, store.In("status", values...))
	if err != nil {
		return nil, err
	}

	out := []PlanSummary{}
	for _, d := range docs {
		p, err := decodeDoc[tourplan.Plan](d)
		if err != nil {
			return nil, err
		}
		owner, err := s.users.Profile(ctx, p.UserID)
		if err != nil {
			s.env.Log.Warn("pending tour plan without owner", zap.String("plan", p.ID), zap.Error(err))
			continue
		}
		if !actor.IsAdmin() && !owner.ReportsTo(actor.UserID) {
			continue
		}
		out = append(out, PlanSummary{
			PlanID:      p.ID,
			UserID:      p.UserID,
			UserName:    owner.DisplayName,
			Year:        p.Year,
			Month:       p.Month,
			Status:      p.Status,
			SubmittedAt: p.SubmittedAt,
			Version:     d.Version,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SubmittedAt, out[j].SubmittedAt
		return a != nil && (b == nil || a.Before(*b))
	})
	return out, nil
}

func (s *TourPlans) transition(ctx context.Context, before, after tourplan.Plan, action tourplan.Action) (tourplan.Plan, error) {
	saved, err := s.save(ctx, after, before.Version)
	if err != nil {
		return tourplan.Plan{}, err
	}
	s.env.Metrics.ObservePlanTransition(string(action), string(saved.Status))
	s.env.Log.Info("tour plan transition",
		zap.String("plan", saved.ID),
		zap.String("action", string(action)),
		zap.String("from", string(before.Status)),
		zap.String("to", string(saved.Status)),
	)
	return saved, nil
}

func (s *TourPlans) loadWithOwner(ctx context.Context, actor roster.Actor, planID string) (tourplan.Plan, roster.Profile, error) {
	p, err := s.load(ctx, planID)
	if err != nil {
		return tourplan.Plan{}, roster.Profile{}, err
	}
	owner, err := s.users.Profile(ctx, p.UserID)
	if err != nil {
		return tourplan.Plan{}, roster.Profile{}, err
	}
	if !canView(actor, owner) {
		return tourplan.Plan{}, roster.Profile{}, forbidden("this tour plan")
	}
	return p, owner, nil
}

func (s *TourPlans) loadForReview(ctx context.Context, actor roster.Actor, planID string) (tourplan.Plan, roster.Profile, error) {
	if !tourplan.CanReview(actor.Role) {
		return tourplan.Plan{}, roster.Profile{}, apperr.Newf(apperr.KindPermissionDenied, "NO_APPROVAL_AUTHORITY", "Role %s cannot review tour plans", actor.Role)
	}
	p, err := s.load(ctx, planID)
	if err != nil {
		return tourplan.Plan{}, roster.Profile{}, err
	}
	owner, err := s.users.Profile(ctx, p.UserID)
	if err != nil {
		return tourplan.Plan{}, roster.Profile{}, err
	}
	return p, owner, nil
}

func (s *TourPlans) send(ctx context.Context, userID string, typ notify.Type, title, message string) {
	if s.notify == nil {
		return
	}
	if _, err := s.notify.Send(ctx, userID, typ, title, message); err != nil {
		s.env.Log.Warn("notification failed", zap.String("user", userID), zap.Error(err))
	}
}

func planLabel(p tourplan.Plan) string {
	return fmt.Sprintf("%s %d", time.Month(p.Month), p.Year)
}
