package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/service"
)

// UserHandler provides user administration and team listing.
type UserHandler struct {
	users *service.Directory
}

func NewUserHandler(users *service.Directory) *UserHandler {
	return &UserHandler{users: users}
}

// Team handles GET /api/team: direct reports, or everyone for an admin.
func (h *UserHandler) Team(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := h.users.Team(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": team})
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.users.View(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// Create handles POST /api/users (admin)
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.users.Create(ctx, ctxkeys.Actor(r.Context()), service.NewUser{
		Email:              req.Email,
		Password:           req.Password,
		DisplayName:        req.DisplayName,
		Role:               req.Role,
		Status:             req.Status,
		HQLocation:         req.HQLocation,
		State:              req.State,
		ReportingManagerID: req.ReportingManagerID,
		Territories:        req.Territories,
		HQLat:              req.HQLat,
		HQLng:              req.HQLng,
	})
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, p)
}

// Update handles PATCH /api/users/{id} (admin)
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.users.Update(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "id"), req.Version, service.ProfilePatch{
		DisplayName:        req.DisplayName,
		Role:               req.Role,
		Status:             req.Status,
		HQLocation:         req.HQLocation,
		State:              req.State,
		ReportingManagerID: req.ReportingManagerID,
		Territories:        req.Territories,
		HQLat:              req.HQLat,
		HQLng:              req.HQLng,
		Password:           req.Password,
	})
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}
