package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/service"
)

// AttendanceHandler handles punches and the live team view.
type AttendanceHandler struct {
	svc *service.Attendance
}

func NewAttendanceHandler(svc *service.Attendance) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Today handles GET /api/attendance/today
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := h.svc.Today(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, d)
}

// Day handles GET /api/attendance/{userId}/{date}
func (h *AttendanceHandler) Day(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := h.svc.Day(ctx, ctxkeys.Actor(r.Context()), userParam(r), chi.URLParam(r, "date"))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, d)
}

// Punch handles POST /api/attendance/punch
// A fix too coarse to trust is refused with 422 and nothing is recorded.
func (h *AttendanceHandler) Punch(w http.ResponseWriter, r *http.Request) {
	var req models.PunchRequest
	if !decode(w, r, &req) {
		return
	}

	// Location acquisition may wait for the fallback reading.
	ctx, cancel := context.WithTimeout(r.Context(), 40*time.Second)
	defer cancel()

	res, err := h.svc.Punch(ctx, ctxkeys.Actor(r.Context()), attendance.PunchType(req.Type), req.Location.Provider())
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, res)
}

// TeamStatus handles GET /api/attendance/team
func (h *AttendanceHandler) TeamStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := h.svc.TeamStatus(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    rows,
		"working": attendance.WorkingCount(rows),
	})
}
