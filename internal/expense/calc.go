// Package expense holds the monthly expense sheet: per-day row derivation,
// sheet totals and the approval workflow.
package expense

import (
	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/roster"
)

// Category classifies a working day for allowance purposes.
type Category string

const (
	CategoryHQ         Category = "HQ"
	CategoryExHQ       Category = "EX_HQ"
	CategoryOutstation Category = "OUTSTATION"
	CategoryHoliday    Category = "HOLIDAY"
	CategorySunday     Category = "SUNDAY"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryHQ, CategoryExHQ, CategoryOutstation, CategoryHoliday, CategorySunday:
		return true
	}
	return false
}

// Entry is one calendar day of a sheet. DailyAllowance, TravelAmount and
// TotalAmount are derived by Recalculate and never edited directly.
type Entry struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	TerritoryID    string          `json:"territoryId,omitempty"`
	Towns          string          `json:"towns"`
	Category       Category        `json:"category"`
	Km             decimal.Decimal `json:"km"`
	TrainFare      decimal.Decimal `json:"trainFare"`
	MiscAmount     decimal.Decimal `json:"miscAmount"`
	Remarks        string          `json:"remarks"`
	ReceiptURL     string          `json:"receiptUrl,omitempty"`
	DailyAllowance decimal.Decimal `json:"dailyAllowance"`
	TravelAmount   decimal.Decimal `json:"travelAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// Allowance returns the daily allowance a category earns under cfg.
// Holidays, Sundays and unknown categories earn nothing.
func Allowance(c Category, cfg rates.Config) decimal.Decimal {
	switch c {
	case CategoryHQ:
		return cfg.HQAllowance
	case CategoryExHQ:
		return cfg.ExHQAllowance
	case CategoryOutstation:
		return cfg.OutstationAllowance
	default:
		return decimal.Zero
	}
}

// Recalculate returns e with its derived amounts recomputed. Outstation days
// are paid the train fare, every other day km times the per-km rate. A
// negative fare pays nothing.
func Recalculate(e Entry, cfg rates.Config) Entry {
	allowance := Allowance(e.Category, cfg)

	var travel decimal.Decimal
	if e.Category == CategoryOutstation {
		travel = decimal.Max(e.TrainFare, decimal.Zero)
	} else {
		travel = e.Km.Mul(cfg.KmRate)
	}

	e.DailyAllowance = allowance
	e.TravelAmount = travel
	e.TotalAmount = allowance.Add(travel).Add(e.MiscAmount)
	return e
}

// ApplyTerritory selects t for the row, copying its name and category. A nil
// territory clears the selection but keeps category and km as they were.
func ApplyTerritory(e Entry, t *roster.Territory) Entry {
	if t == nil {
		e.TerritoryID = ""
		e.Towns = ""
		return e
	}

	e.TerritoryID = t.ID
	e.Towns = t.Name
	e.Category = Category(t.Category)
	if e.Category == CategoryOutstation {
		e.Km = decimal.Zero
	} else {
		e.Km = t.FixedKm
		e.TrainFare = decimal.Zero
	}
	return e
}

// ApplyCategory switches the row to c and clears the fields that do not
// apply to it.
func ApplyCategory(e Entry, c Category) Entry {
	e.Category = c
	switch c {
	case CategoryOutstation:
		e.Km = decimal.Zero
	case CategoryHQ, CategoryHoliday, CategorySunday:
		e.TrainFare = decimal.Zero
		e.Km = decimal.Zero
	default:
		e.TrainFare = decimal.Zero
	}
	return e
}

// Change is a partial edit of one row. Nil fields are left untouched.
// ClearTerritory removes the territory selection.
type Change struct {
	TerritoryID    *string          `json:"territoryId,omitempty"`
	ClearTerritory bool             `json:"clearTerritory,omitempty"`
	Category       *Category        `json:"category,omitempty"`
	Towns          *string          `json:"towns,omitempty"`
	Km             *decimal.Decimal `json:"km,omitempty"`
	TrainFare      *decimal.Decimal `json:"trainFare,omitempty"`
	MiscAmount     *decimal.Decimal `json:"miscAmount,omitempty"`
	Remarks        *string          `json:"remarks,omitempty"`
	ReceiptURL     *string          `json:"receiptUrl,omitempty"`
}

// Validate checks a change against the owner's territories.
func (c Change) Validate(territories []roster.Territory) error {
	if c.TerritoryID != nil && *c.TerritoryID != "" {
		if _, ok := roster.FindTerritory(territories, *c.TerritoryID); !ok {
			return apperr.Newf(apperr.KindValidation, "UNKNOWN_TERRITORY", "Territory %q is not assigned to this user", *c.TerritoryID)
		}
	}
	if c.Category != nil && !c.Category.IsValid() {
		return apperr.Newf(apperr.KindValidation, "INVALID_CATEGORY", "Unknown category %q", *c.Category)
	}
	amounts := []struct {
		field string
		value *decimal.Decimal
	}{{"km", c.Km}, {"trainFare", c.TrainFare}, {"miscAmount", c.MiscAmount}}
	for _, a := range amounts {
		if a.value != nil && a.value.IsNegative() {
			return apperr.Newf(apperr.KindValidation, "NEGATIVE_AMOUNT", "%s must not be negative", a.field)
		}
	}
	return nil
}

// ApplyChange applies a row edit in a fixed order: territory selection,
// category switch, explicit field edits, then the outstation km/train-fare
// rule, and finally recalculation. Validate the change first; unknown
// territories are ignored here.
func ApplyChange(e Entry, c Change, territories []roster.Territory, cfg rates.Config) Entry {
	switch {
	case c.ClearTerritory || (c.TerritoryID != nil && *c.TerritoryID == ""):
		e = ApplyTerritory(e, nil)
	case c.TerritoryID != nil:
		if t, ok := roster.FindTerritory(territories, *c.TerritoryID); ok {
			e = ApplyTerritory(e, &t)
		}
	}

	if c.Category != nil {
		e = ApplyCategory(e, *c.Category)
	}

	if c.Towns != nil {
		e.Towns = *c.Towns
	}
	if c.Km != nil {
		e.Km = *c.Km
	}
	if c.TrainFare != nil {
		e.TrainFare = *c.TrainFare
	}
	if c.MiscAmount != nil {
		e.MiscAmount = *c.MiscAmount
	}
	if c.Remarks != nil {
		e.Remarks = *c.Remarks
	}
	if c.ReceiptURL != nil {
		e.ReceiptURL = *c.ReceiptURL
	}

	if e.Category == CategoryOutstation {
		e.Km = decimal.Zero
	} else {
		e.TrainFare = decimal.Zero
	}

	return Recalculate(e, cfg)
}
