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
	"fieldforce-backend/internal/service"
)

// TargetHandler serves monthly sales targets.
type TargetHandler struct {
	svc *service.Targets
}

func NewTargetHandler(svc *service.Targets) *TargetHandler {
	return &TargetHandler{svc: svc}
}

func period(w http.ResponseWriter, r *http.Request) (year, month int, ok bool) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		Fail(w, r, apperr.New(apperr.KindValidation, "INVALID_PERIOD", "Year and month must be numbers"))
		return 0, 0, false
	}
	return year, month, true
}

// Get handles GET /api/targets/{userId}/{year}/{month}
func (h *TargetHandler) Get(w http.ResponseWriter, r *http.Request) {
	year, month, ok := period(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.svc.Get(ctx, ctxkeys.Actor(r.Context()), userParam(r), month, year)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"target": t, "percent": t.Percent()})
}

// Put handles PUT /api/targets/{userId}/{year}/{month} (managers)
func (h *TargetHandler) Put(w http.ResponseWriter, r *http.Request) {
	year, month, ok := period(w, r)
	if !ok {
		return
	}
	var req models.SetTargetRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.svc.Set(ctx, ctxkeys.Actor(r.Context()), userParam(r), month, year, req.TargetAmount, req.AchievedAmount)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"target": t, "percent": t.Percent()})
}
