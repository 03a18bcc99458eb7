package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/service"
)

// RatesHandler exposes the global allowance and per-km rate table.
type RatesHandler struct {
	svc *service.Rates
}

func NewRatesHandler(svc *service.Rates) *RatesHandler {
	return &RatesHandler{svc: svc}
}

// Get handles GET /api/rates
func (h *RatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.svc.Table(ctx)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, t)
}

// Put handles PUT /api/rates (admin). The body is the whole table keyed by
// role, then status.
func (h *RatesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var t rates.Table
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil || len(t) == 0 {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	saved, err := h.svc.Update(ctx, ctxkeys.Actor(r.Context()), t)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, saved)
}
