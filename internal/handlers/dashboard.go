package handlers

import (
	"context"
	"net/http"
	"time"

	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/expense"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/notify"
	"fieldforce-backend/internal/service"
)

// DashboardHandler assembles the home screens from the services.
type DashboardHandler struct {
	users      *service.Directory
	expenses   *service.Expenses
	attendance *service.Attendance
	visits     *service.Visits
	notify     *service.Notifications
	now        func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(users *service.Directory, expenses *service.Expenses, att *service.Attendance, visits *service.Visits, notifications *service.Notifications) *DashboardHandler {
	return &DashboardHandler{users: users, expenses: expenses, attendance: att, visits: visits, notify: notifications, now: time.Now}
}

// ── Field ──────────────────────────────────────────────────────

// Field handles GET /api/dashboard/me
func (h *DashboardHandler) Field(w http.ResponseWriter, r *http.Request) {
	actor := ctxkeys.Actor(r.Context())
	now := h.now()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	me, err := h.users.View(ctx, actor, actor.UserID)
	if err != nil {
		Fail(w, r, err)
		return
	}
	today, err := h.attendance.Today(ctx, actor)
	if err != nil {
		Fail(w, r, err)
		return
	}
	visits, err := h.visits.List(ctx, actor, actor.UserID, now.Format(attendance.DateLayout))
	if err != nil {
		Fail(w, r, err)
		return
	}
	sheet, err := h.expenses.Sheet(ctx, actor, actor.UserID, now.Year(), int(now.Month()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	inbox, err := h.notify.List(ctx, actor)
	if err != nil {
		Fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, models.FieldDashboard{
		User:          me,
		Today:         today,
		VisitsToday:   len(visits),
		SheetStatus:   sheet.Sheet.Status,
		MonthTotals:   &sheet.Totals,
		Compliance:    sheet.Compliance,
		UnreadNotices: notify.Unread(inbox),
	})
}

// ── Manager ────────────────────────────────────────────────────

// Manager handles GET /api/dashboard/team
func (h *DashboardHandler) Manager(w http.ResponseWriter, r *http.Request) {
	actor := ctxkeys.Actor(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	team, err := h.attendance.TeamStatus(ctx, actor)
	if err != nil {
		Fail(w, r, err)
		return
	}
	d := models.ManagerDashboard{Team: team}
	d.Count()

	if expense.CanReview(actor.Role) {
		pending, err := h.expenses.Pending(ctx, actor)
		if err != nil {
			Fail(w, r, err)
			return
		}
		d.PendingApprovals = len(pending)
	}
	JSON(w, http.StatusOK, d)
}
