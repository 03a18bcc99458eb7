package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/notify"
	"fieldforce-backend/internal/service"
)

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	svc *service.Notifications
}

func NewNotificationHandler(svc *service.Notifications) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.List(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"data":   list,
		"unread": notify.Unread(list),
	})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := h.svc.MarkRead(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, n)
}
