package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/service"
)

// ExpenseHandler serves the monthly expense sheets.
type ExpenseHandler struct {
	svc *service.Expenses
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc *service.Expenses) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// userParam resolves the {userId} URL parameter, where "me" is the caller.
func userParam(r *http.Request) string {
	id := chi.URLParam(r, "userId")
	if id == "me" {
		return ctxkeys.Actor(r.Context()).UserID
	}
	return id
}

// Get handles GET /api/expenses/sheets/{userId}/{year}/{month}
// The owner's first read creates the month's DRAFT sheet.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		Fail(w, r, apperr.New(apperr.KindValidation, "INVALID_PERIOD", "Year and month must be numbers"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.svc.Sheet(ctx, ctxkeys.Actor(r.Context()), userParam(r), year, month)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, v)
}

// History handles GET /api/expenses/history/{userId}
func (h *ExpenseHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.History(ctx, ctxkeys.Actor(r.Context()), userParam(r))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

// Pending handles GET /api/expenses/pending
func (h *ExpenseHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.Pending(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

// UpdateEntries handles PATCH /api/expenses/{sheetId}/entries
func (h *ExpenseHandler) UpdateEntries(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEntriesRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.svc.UpdateEntries(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "sheetId"), req.Version, req.Updates)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, v)
}

// Submit handles POST /api/expenses/{sheetId}/submit
func (h *ExpenseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Submit)
}

// Approve handles POST /api/expenses/{sheetId}/approve
func (h *ExpenseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Approve)
}

// Reprice handles POST /api/expenses/{sheetId}/reprice (admin)
func (h *ExpenseHandler) Reprice(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reprice)
}

// Reject handles POST /api/expenses/{sheetId}/reject
func (h *ExpenseHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req models.RejectRequest
	if !decode(w, r, &req) {
		return
	}
	h.transition(w, r, func(ctx context.Context, actor roster.Actor, id string) (service.SheetView, error) {
		return h.svc.Reject(ctx, actor, id, req.Reason)
	})
}

func (h *ExpenseHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, roster.Actor, string) (service.SheetView, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := op(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "sheetId"))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, v)
}
