package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/service"
	"fieldforce-backend/internal/tourplan"
)

// TourPlanHandler serves the monthly tour plans.
type TourPlanHandler struct {
	svc *service.TourPlans
}

func NewTourPlanHandler(svc *service.TourPlans) *TourPlanHandler {
	return &TourPlanHandler{svc: svc}
}

// Get handles GET /api/tour-plans/monthly/{userId}/{year}/{month}
func (h *TourPlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	year, month, ok := period(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.svc.Plan(ctx, ctxkeys.Actor(r.Context()), userParam(r), year, month)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// Pending handles GET /api/tour-plans/pending
func (h *TourPlanHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.Pending(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

// UpdateEntries handles PATCH /api/tour-plans/{planId}/entries
func (h *TourPlanHandler) UpdateEntries(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePlanRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.svc.UpdateEntries(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "planId"), req.Version, req.Updates)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// Submit handles POST /api/tour-plans/{planId}/submit
func (h *TourPlanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Submit)
}

// Approve handles POST /api/tour-plans/{planId}/approve
func (h *TourPlanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Approve)
}

// Reject handles POST /api/tour-plans/{planId}/reject
func (h *TourPlanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req models.RejectRequest
	if !decode(w, r, &req) {
		return
	}
	h.transition(w, r, func(ctx context.Context, actor roster.Actor, id string) (tourplan.Plan, error) {
		return h.svc.Reject(ctx, actor, id, req.Reason)
	})
}

func (h *TourPlanHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, roster.Actor, string) (tourplan.Plan, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := op(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "planId"))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}
