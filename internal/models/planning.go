package models

import (
	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/tourplan"
)

// UpdatePlanRequest edits planned days. Version is the plan version the
// client loaded; 0 skips the check.
type UpdatePlanRequest struct {
	Version int64                  `json:"version" validate:"gte=0"`
	Updates []tourplan.EntryUpdate `json:"updates" validate:"required,min=1,max=31,dive"`
}

func (r *UpdatePlanRequest) Validate() map[string]string {
	return Validate(r)
}

// IssueStockRequest hands items to a field user.
type IssueStockRequest struct {
	UserID   string `json:"userId" validate:"required"`
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=100000"`
}

func (r *IssueStockRequest) Validate() map[string]string {
	return Validate(r)
}

// ReturnStockRequest sends the caller's items back to their manager.
type ReturnStockRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=100000"`
}

func (r *ReturnStockRequest) Validate() map[string]string {
	return Validate(r)
}

// SetTargetRequest creates or replaces a monthly sales target.
type SetTargetRequest struct {
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	AchievedAmount decimal.Decimal `json:"achievedAmount"`
}

func (r *SetTargetRequest) Validate() map[string]string {
	errs := Validate(r)
	if r.TargetAmount.IsNegative() {
		errs["targetAmount"] = "Must be greater than or equal to 0"
	}
	if r.AchievedAmount.IsNegative() {
		errs["achievedAmount"] = "Must be greater than or equal to 0"
	}
	return errs
}
