package handlers

import (
	"context"
	"net/http"
	"time"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/service"
)

// InventoryHandler serves item catalogues, holdings and stock movements.
type InventoryHandler struct {
	svc *service.Inventory
}

func NewInventoryHandler(svc *service.Inventory) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// Items handles GET /api/inventory/items
func (h *InventoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.svc.Items(ctx)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": items})
}

// Stock handles GET /api/inventory/stock/{userId}
func (h *InventoryHandler) Stock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	held, err := h.svc.Stock(ctx, ctxkeys.Actor(r.Context()), userParam(r))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": held})
}

// Transactions handles GET /api/inventory/transactions
func (h *InventoryHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	txs, err := h.svc.Transactions(ctx, ctxkeys.Actor(r.Context()))
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": txs})
}

// Issue handles POST /api/inventory/issue (managers)
func (h *InventoryHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req models.IssueStockRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.svc.Issue(ctx, ctxkeys.Actor(r.Context()), req.UserID, req.ItemID, req.Quantity)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, st)
}

// Return handles POST /api/inventory/return
func (h *InventoryHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req models.ReturnStockRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.svc.Return(ctx, ctxkeys.Actor(r.Context()), req.ItemID, req.Quantity)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, st)
}
