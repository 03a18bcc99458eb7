// Package visit holds the customer master (doctors, chemists, stockists)
// and the field visits recorded against it.
package visit

import (
	"strings"

	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/geo"
	"fieldforce-backend/internal/location"
)

type CustomerType string

const (
	TypeDoctor   CustomerType = "DOCTOR"
	TypeChemist  CustomerType = "CHEMIST"
	TypeStockist CustomerType = "STOCKIST"
)

func (t CustomerType) IsValid() bool {
	switch t {
	case TypeDoctor, TypeChemist, TypeStockist:
		return true
	}
	return false
}

type CustomerCategory string

const (
	CategoryA CustomerCategory = "A"
	CategoryB CustomerCategory = "B"
	CategoryC CustomerCategory = "C"
)

func (c CustomerCategory) IsValid() bool {
	return c == CategoryA || c == CategoryB || c == CategoryC
}

// Customer is a visitable account in a territory.
type Customer struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           CustomerType     `json:"type"`
	Category       CustomerCategory `json:"category"`
	TerritoryID    string           `json:"territoryId"`
	Specialty      string           `json:"specialty,omitempty"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	GeoLat         *float64         `json:"geoLat,omitempty"`
	GeoLng         *float64         `json:"geoLng,omitempty"`
	IsTagged       bool             `json:"isTagged"`
	LastMonthSales decimal.Decimal  `json:"lastMonthSales"`
	Version        int64            `json:"version"`
}

// Location returns the tagged point, or nil when the customer is untagged.
func (c Customer) Location() *geo.Point {
	if !c.IsTagged || c.GeoLat == nil || c.GeoLng == nil {
		return nil
	}
	return &geo.Point{Lat: *c.GeoLat, Lng: *c.GeoLng}
}

// Validate checks a new customer. Coordinates are mandatory on creation so
// every visit can be verified against them.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.New(apperr.KindValidation, "MISSING_NAME", "Customer name is required")
	}
	if !c.Type.IsValid() {
		return apperr.Newf(apperr.KindValidation, "INVALID_CUSTOMER_TYPE", "Unknown customer type %q", c.Type)
	}
	if !c.Category.IsValid() {
		return apperr.Newf(apperr.KindValidation, "INVALID_CUSTOMER_CATEGORY", "Unknown customer category %q", c.Category)
	}
	if c.TerritoryID == "" {
		return apperr.New(apperr.KindValidation, "MISSING_TERRITORY", "Customer territory is required")
	}
	if c.GeoLat == nil || c.GeoLng == nil {
		return apperr.New(apperr.KindValidation, "MISSING_COORDINATES", "Location coordinates are required")
	}
	if *c.GeoLat < -90 || *c.GeoLat > 90 || *c.GeoLng < -180 || *c.GeoLng > 180 {
		return apperr.New(apperr.KindValidation, "INVALID_COORDINATES", "Location coordinates are out of range")
	}
	if c.LastMonthSales.IsNegative() {
		return apperr.New(apperr.KindValidation, "NEGATIVE_AMOUNT", "Sales cannot be negative")
	}
	return nil
}

// NewCustomer validates c and marks it tagged at its coordinates.
func NewCustomer(id string, c Customer) (Customer, error) {
	if err := c.Validate(); err != nil {
		return Customer{}, err
	}
	c.ID = id
	c.Name = strings.TrimSpace(c.Name)
	c.IsTagged = true
	c.Version = 0
	return c, nil
}

// Tag moves the customer's location to fix.
func (c Customer) Tag(fix location.Fix) (Customer, error) {
	if err := fix.Validate(); err != nil {
		return Customer{}, err
	}
	lat, lng := fix.Latitude, fix.Longitude
	c.GeoLat = &lat
	c.GeoLng = &lng
	c.IsTagged = true
	return c, nil
}
