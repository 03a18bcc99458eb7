// Package sales holds the monthly sales targets set for field users.
package sales

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/apperr"
)

// Target is a user's sales goal for one month and what they achieved.
type Target struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	AchievedAmount decimal.Decimal `json:"achievedAmount"`
	Version        int64           `json:"version"`
}

// TargetID returns the document id of a user's monthly target.
func TargetID(userID string, month, year int) string {
	return fmt.Sprintf("tgt_%s_%d_%d", userID, month, year)
}

// NewTarget validates and builds a target.
func NewTarget(userID string, month, year int, target, achieved decimal.Decimal) (Target, error) {
	if userID == "" {
		return Target{}, apperr.New(apperr.KindValidation, "MISSING_USER", "User id is required")
	}
	if month < 1 || month > 12 {
		return Target{}, apperr.Newf(apperr.KindValidation, "INVALID_MONTH", "Month must be between 1 and 12, got %d", month)
	}
	if year < 2000 || year > 2100 {
		return Target{}, apperr.Newf(apperr.KindValidation, "INVALID_YEAR", "Year %d is out of range", year)
	}
	if target.IsNegative() || achieved.IsNegative() {
		return Target{}, apperr.New(apperr.KindValidation, "NEGATIVE_AMOUNT", "Target amounts must not be negative")
	}
	return Target{
		ID:             TargetID(userID, month, year),
		UserID:         userID,
		Month:          month,
		Year:           year,
		TargetAmount:   target,
		AchievedAmount: achieved,
	}, nil
}

// Percent returns achievement as a percentage of the target, rounded to two
// places. A zero target yields zero.
func (t Target) Percent() decimal.Decimal {
	if t.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return t.AchievedAmount.Div(t.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2)
}
