package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/service"
)

// VisitHandler serves customers and field visits.
type VisitHandler struct {
	svc *service.Visits
}

func NewVisitHandler(svc *service.Visits) *VisitHandler {
	return &VisitHandler{svc: svc}
}

// ListCustomers handles GET /api/customers?territoryId=X
func (h *VisitHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	territoryID := r.URL.Query().Get("territoryId")
	if territoryID == "" {
		Fail(w, r, apperr.New(apperr.KindValidation, "MISSING_TERRITORY", "territoryId is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.Customers(ctx, ctxkeys.Actor(r.Context()), territoryID)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

// CreateCustomer handles POST /api/customers
func (h *VisitHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.svc.CreateCustomer(ctx, ctxkeys.Actor(r.Context()), req.Customer())
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, c)
}

// Tag handles POST /api/customers/{id}/tag
func (h *VisitHandler) Tag(w http.ResponseWriter, r *http.Request) {
	var req models.TagRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 40*time.Second)
	defer cancel()

	c, err := h.svc.TagCustomer(ctx, ctxkeys.Actor(r.Context()), chi.URLParam(r, "id"), req.Location.Provider())
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// Record handles POST /api/visits
func (h *VisitHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req models.RecordVisitRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 40*time.Second)
	defer cancel()

	v, err := h.svc.Record(ctx, ctxkeys.Actor(r.Context()), req.CustomerID, req.Location.Provider(), req.Notes())
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, v)
}

// List handles GET /api/visits/{userId}/{date}
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.List(ctx, ctxkeys.Actor(r.Context()), userParam(r), chi.URLParam(r, "date"))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": list})
}
