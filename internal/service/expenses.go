package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/compliance"
	"fieldforce-backend/internal/expense"
	"fieldforce-backend/internal/notify"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
)

// Expenses runs the monthly expense sheet workflow.
type Expenses struct {
	env    Env
	users  *Directory
	rates  *Rates
	notify *Notifications
}

func NewExpenses(env Env, users *Directory, rates *Rates, notifications *Notifications) *Expenses {
	env.defaults()
	return &Expenses{env: env, users: users, rates: rates, notify: notifications}
}

// SheetView is a sheet with its totals and HQ-day advisory.
type SheetView struct {
	Sheet      expense.Sheet       `json:"sheet"`
	Totals     expense.Totals      `json:"totals"`
	Compliance compliance.Advisory `json:"compliance"`
}

func (s *Expenses) view(sh expense.Sheet, owner roster.Profile) SheetView {
	t := sh.Totals()
	return SheetView{
		Sheet:      sh,
		Totals:     t,
		Compliance: compliance.Evaluate(t.HQDays, owner.Role, sh.Year, sh.Month, s.env.Now()),
	}
}

func (s *Expenses) load(ctx context.Context, id string) (expense.Sheet, error) {
	sh, version, err := store.GetJSON[expense.Sheet](ctx, s.env.Store, store.Sheets, id)
	if err != nil {
		return expense.Sheet{}, err
	}
	sh.Version = version
	return sh, nil
}

func (s *Expenses) save(ctx context.Context, sh expense.Sheet, expected int64) (expense.Sheet, error) {
	version, err := store.PutJSON(ctx, s.env.Store, store.Sheets, sh.ID, sh, expected)
	if err != nil {
		return expense.Sheet{}, err
	}
	sh.Version = version
	return sh, nil
}

// Sheet returns a user's sheet for the month. The owner's first read
// creates the DRAFT sheet; other viewers get NotFound until then.
func (s *Expenses) Sheet(ctx context.Context, actor roster.Actor, userID string, year, month int) (SheetView, error) {
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return SheetView{}, err
	}
	if !canView(actor, owner) {
		return SheetView{}, forbidden("this expense sheet")
	}

	id := expense.SheetID(userID, year, month)
	sh, err := s.load(ctx, id)
	if err == nil {
		return s.view(sh, owner), nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound || actor.UserID != userID {
		return SheetView{}, err
	}

	fresh, err := expense.NewSheet(userID, year, month, s.env.NewID)
	if err != nil {
		return SheetView{}, err
	}
	created, err := s.save(ctx, fresh, 0)
	if apperr.KindOf(err) == apperr.KindConflict {
		// Created concurrently; use the stored copy.
		created, err = s.load(ctx, id)
	}
	if err != nil {
		return SheetView{}, err
	}
	return s.view(created, owner), nil
}

// UpdateEntries edits rows of a sheet, pricing the edited rows with the
// owner's current rates. version is the sheet version the client edited; 0 skips
// the check.
func (s *Expenses) UpdateEntries(ctx context.Context, actor roster.Actor, sheetID string, version int64, updates []expense.EntryUpdate) (SheetView, error) {
	sh, owner, err := s.loadWithOwner(ctx, actor, sheetID)
	if err != nil {
		return SheetView{}, err
	}
	if version > 0 && version != sh.Version {
		return SheetView{}, store.Conflict(store.Sheets, sheetID)
	}
	cfg, err := s.rates.ConfigFor(ctx, owner)
	if err != nil {
		return SheetView{}, err
	}

	next, err := sh.ApplyChanges(actor, updates, owner.Territories, cfg)
	if err != nil {
		return SheetView{}, err
	}
	saved, err := s.save(ctx, next, sh.Version)
	if err != nil {
		return SheetView{}, err
	}
	return s.view(saved, owner), nil
}

// Reprice recalculates every row of an editable sheet with the owner's
// current rates, after an admin changed the rate table.
func (s *Expenses) Reprice(ctx context.Context, actor roster.Actor, sheetID string) (SheetView, error) {
	if err := requireAdmin(actor); err != nil {
		return SheetView{}, err
	}
	sh, owner, err := s.loadWithOwner(ctx, actor, sheetID)
	if err != nil {
		return SheetView{}, err
	}
	if !sh.Status.OwnerEditable() {
		return SheetView{}, apperr.Newf(apperr.KindInvalidTransition, "SHEET_LOCKED", "Sheet is %s and cannot be repriced", sh.Status)
	}
	cfg, err := s.rates.ConfigFor(ctx, owner)
	if err != nil {
		return SheetView{}, err
	}
	saved, err := s.save(ctx, sh.Reprice(cfg), sh.Version)
	if err != nil {
		return SheetView{}, err
	}
	return s.view(saved, owner), nil
}

// Submit sends the owner's sheet for approval.
func (s *Expenses) Submit(ctx context.Context, actor roster.Actor, sheetID string) (SheetView, error) {
	sh, owner, err := s.loadWithOwner(ctx, actor, sheetID)
	if err != nil {
		return SheetView{}, err
	}
	next, err := sh.Submit(actor, s.env.Now())
	if err != nil {
		return SheetView{}, err
	}
	saved, err := s.transition(ctx, sh, next, expense.ActionSubmit)
	if err != nil {
		return SheetView{}, err
	}
	if owner.ReportingManagerID != "" {
		s.send(ctx, owner.ReportingManagerID, notify.TypeInfo, "Expense sheet submitted",
			fmt.Sprintf("%s submitted expenses for %s", owner.DisplayName, monthLabel(sh)))
	}
	return s.view(saved, owner), nil
}

// Approve advances a sheet one approval step.
func (s *Expenses) Approve(ctx context.Context, actor roster.Actor, sheetID string) (SheetView, error) {
	sh, owner, err := s.loadForReview(ctx, actor, sheetID)
	if err != nil {
		return SheetView{}, err
	}
	next, err := sh.Approve(actor, owner, s.env.Now())
	if err != nil {
		return SheetView{}, err
	}
	action := expense.ActionApproveASM
	if actor.IsAdmin() {
		action = expense.ActionApproveAdmin
	}
	saved, err := s.transition(ctx, sh, next, action)
	if err != nil {
		return SheetView{}, err
	}
	s.send(ctx, owner.ID, notify.TypeSuccess, "Expenses approved",
		fmt.Sprintf("Your expenses for %s were approved (%s)", monthLabel(sh), saved.Status))
	return s.view(saved, owner), nil
}

// Reject returns a sheet to its owner with a reason.
func (s *Expenses) Reject(ctx context.Context, actor roster.Actor, sheetID, reason string) (SheetView, error) {
	sh, owner, err := s.loadForReview(ctx, actor, sheetID)
	if err != nil {
		return SheetView{}, err
	}
	next, err := sh.Reject(actor, owner, reason)
	if err != nil {
		return SheetView{}, err
	}
	saved, err := s.transition(ctx, sh, next, expense.ActionReject)
	if err != nil {
		return SheetView{}, err
	}
	s.send(ctx, owner.ID, notify.TypeAlert, "Expenses rejected",
		fmt.Sprintf("Your expenses for %s were rejected: %s", monthLabel(sh), saved.RejectionReason))
	return s.view(saved, owner), nil
}

func (s *Expenses) transition(ctx context.Context, before, after expense.Sheet, action expense.Action) (expense.Sheet, error) {
	saved, err := s.save(ctx, after, before.Version)
	if err != nil {
		return expense.Sheet{}, err
	}
	s.env.Metrics.ObserveTransition(string(action), string(saved.Status))
	s.env.Log.Info("expense sheet transition",
		zap.String("sheet", saved.ID),
		zap.String("action", string(action)),
		zap.String("from", string(before.Status)),
		zap.String("to", string(saved.Status)),
	)
	return saved, nil
}

// loadWithOwner loads a sheet the actor may see along with its owner.
func (s *Expenses) loadWithOwner(ctx context.Context, actor roster.Actor, sheetID string) (expense.Sheet, roster.Profile, error) {
	sh, err := s.load(ctx, sheetID)
	if err != nil {
		return expense.Sheet{}, roster.Profile{}, err
	}
	owner, err := s.users.Profile(ctx, sh.UserID)
	if err != nil {
		return expense.Sheet{}, roster.Profile{}, err
	}
	if !canView(actor, owner) {
		return expense.Sheet{}, roster.Profile{}, forbidden("this expense sheet")
	}
	return sh, owner, nil
}

// loadForReview loads a sheet without a visibility check, so the domain
// rules report the precise reason a reviewer is refused.
func (s *Expenses) loadForReview(ctx context.Context, actor roster.Actor, sheetID string) (expense.Sheet, roster.Profile, error) {
	if !expense.CanReview(actor.Role) {
		return expense.Sheet{}, roster.Profile{}, apperr.Newf(apperr.KindPermissionDenied, "NO_APPROVAL_AUTHORITY", "Role %s cannot review expense sheets", actor.Role)
	}
	sh, err := s.load(ctx, sheetID)
	if err != nil {
		return expense.Sheet{}, roster.Profile{}, err
	}
	owner, err := s.users.Profile(ctx, sh.UserID)
	if err != nil {
		return expense.Sheet{}, roster.Profile{}, err
	}
	return sh, owner, nil
}

// SheetSummary is one row of a list of sheets.
type SheetSummary struct {
	SheetID     string         `json:"sheetId"`
	UserID      string         `json:"userId"`
	UserName    string         `json:"userName"`
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	Status      expense.Status `json:"status"`
	SubmittedAt *time.Time     `json:"submittedAt,omitempty"`
	Totals      expense.Totals `json:"totals"`
	Version     int64          `json:"version"`
}

func summarize(sh expense.Sheet, owner roster.Profile) SheetSummary {
	return SheetSummary{
		SheetID:     sh.ID,
		UserID:      sh.UserID,
		UserName:    owner.DisplayName,
		Year:        sh.Year,
		Month:       sh.Month,
		Status:      sh.Status,
		SubmittedAt: sh.SubmittedAt,
		Totals:      sh.Totals(),
		Version:     sh.Version,
	}
}

// Pending lists the sheets waiting on the actor: SUBMITTED and
// APPROVED_ASM for admins, SUBMITTED sheets of direct reports for ASMs.
func (s *Expenses) Pending(ctx context.Context, actor roster.Actor) ([]SheetSummary, error) {
	statuses := expense.ReviewableStatuses(actor.Role)
	if len(statuses) == 0 {
		return nil, apperr.Newf(apperr.KindPermissionDenied, "NO_APPROVAL_AUTHORITY", "Role %s cannot review expense sheets", actor.Role)
	}
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}

	docs, err := s.env.Store.Query(ctx, store.Sheets, store.In("status", values...))
	if err != nil {
		return nil, err
	}
	sheets, err := decodeSheets(docs)
	if err != nil {
		return nil, err
	}

	owners := map[string]roster.Profile{}
	out := []SheetSummary{}
	for _, sh := range sheets {
		owner, ok := owners[sh.UserID]
		if !ok {
			owner, err = s.users.Profile(ctx, sh.UserID)
			if err != nil {
				s.env.Log.Warn("pending sheet without owner", zap.String("sheet", sh.ID), zap.Error(err))
				continue
			}
			owners[sh.UserID] = owner
		}
		if !actor.IsAdmin() && !owner.ReportsTo(actor.UserID) {
			continue
		}
		out = append(out, summarize(sh, owner))
	}
	return out, nil
}

// History lists every sheet of a user, oldest first.
func (s *Expenses) History(ctx context.Context, actor roster.Actor, userID string) ([]SheetSummary, error) {
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, owner) {
		return nil, forbidden("these expense sheets")
	}
	docs, err := s.env.Store.Query(ctx, store.Sheets, store.Eq("userId", userID))
	if err != nil {
		return nil, err
	}
	sheets, err := decodeSheets(docs)
	if err != nil {
		return nil, err
	}
	sortSheets(sheets)
	out := make([]SheetSummary, 0, len(sheets))
	for _, sh := range sheets {
		out = append(out, summarize(sh, owner))
	}
	return out, nil
}

// RemindApprovers notifies whoever a pending sheet is waiting on: the
// owner's ASM for SUBMITTED sheets of ASM reports, every admin otherwise.
// Each approver is reminded about a sheet at most once a day. It returns
// the number of reminders created.
func (s *Expenses) RemindApprovers(ctx context.Context) (int, error) {
	docs, err := s.env.Store.Query(ctx, store.Sheets,
		store.In("status", string(expense.StatusSubmitted), string(expense.StatusApprovedASM)))
	if err != nil {
		return 0, err
	}
	sheets, err := decodeSheets(docs)
	if err != nil {
		return 0, err
	}
	if len(sheets) == 0 {
		return 0, nil
	}

	admins, err := store.QueryJSON[roster.Profile](ctx, s.env.Store, store.Users, store.Eq("role", string(roster.RoleAdmin)))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sh := range sheets {
		owner, err := s.users.Profile(ctx, sh.UserID)
		if err != nil {
			s.env.Log.Warn("pending sheet without owner", zap.String("sheet", sh.ID), zap.Error(err))
			continue
		}
		msg := fmt.Sprintf("%s's expenses for %s are waiting for your approval", owner.DisplayName, monthLabel(sh))

		var approvers []string
		if sh.Status == expense.StatusSubmitted && s.reportsToASM(ctx, owner) {
			approvers = []string{owner.ReportingManagerID}
		} else {
			for _, a := range admins {
				approvers = append(approvers, a.ID)
			}
		}
		for _, id := range approvers {
			created, err := s.notify.Remind(ctx, id, sh.ID, msg)
			if err != nil {
				return sent, err
			}
			if created {
				sent++
			}
		}
	}
	s.env.Metrics.AddReminders(sent)
	return sent, nil
}

func (s *Expenses) reportsToASM(ctx context.Context, owner roster.Profile) bool {
	if owner.ReportingManagerID == "" {
		return false
	}
	mgr, err := s.users.Profile(ctx, owner.ReportingManagerID)
	return err == nil && mgr.Role == roster.RoleASM
}

func (s *Expenses) send(ctx context.Context, userID string, typ notify.Type, title, message string) {
	if s.notify == nil {
		return
	}
	if _, err := s.notify.Send(ctx, userID, typ, title, message); err != nil {
		s.env.Log.Warn("notification failed", zap.String("user", userID), zap.Error(err))
	}
}

func decodeSheets(docs []store.Document) ([]expense.Sheet, error) {
	out := make([]expense.Sheet, 0, len(docs))
	for _, d := range docs {
		sh, err := decodeDoc[expense.Sheet](d)
		if err != nil {
			return nil, err
		}
		sh.Version = d.Version
		out = append(out, sh)
	}
	return out, nil
}

func monthLabel(sh expense.Sheet) string {
	return fmt.Sprintf("%s %d", time.Month(sh.Month), sh.Year)
}
