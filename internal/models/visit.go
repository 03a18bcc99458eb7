package models

import (
	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/visit"
)

// CreateCustomerRequest adds a customer. Coordinates are required.
type CreateCustomerRequest struct {
	Name           string           `json:"name" validate:"required,max=160"`
	Type           string           `json:"type" validate:"required,oneof=DOCTOR CHEMIST STOCKIST"`
	Category       string           `json:"category" validate:"required,oneof=A B C"`
	TerritoryID    string           `json:"territoryId" validate:"required"`
	Specialty      string           `json:"specialty" validate:"max=120"`
	Email          string           `json:"email" validate:"omitempty,email"`
	Phone          string           `json:"phone" validate:"max=20"`
	GeoLat         *float64         `json:"geoLat" validate:"required,gte=-90,lte=90"`
	GeoLng         *float64         `json:"geoLng" validate:"required,gte=-180,lte=180"`
	LastMonthSales *decimal.Decimal `json:"lastMonthSales"`
}

func (r *CreateCustomerRequest) Validate() map[string]string {
	return Validate(r)
}

// Customer converts the request into the domain type.
func (r *CreateCustomerRequest) Customer() visit.Customer {
	c := visit.Customer{
		Name:        r.Name,
		Type:        visit.CustomerType(r.Type),
		Category:    visit.CustomerCategory(r.Category),
		TerritoryID: r.TerritoryID,
		Specialty:   r.Specialty,
		Email:       r.Email,
		Phone:       r.Phone,
		GeoLat:      r.GeoLat,
		GeoLng:      r.GeoLng,
	}
	if r.LastMonthSales != nil {
		c.LastMonthSales = *r.LastMonthSales
	}
	return c
}

// RecordVisitRequest reports a customer visit.
type RecordVisitRequest struct {
	CustomerID        string          `json:"customerId" validate:"required"`
	Location          LocationPayload `json:"location"`
	JointWorkWithUID  string          `json:"jointWorkWithUid"`
	JointWorkName     string          `json:"jointWorkName" validate:"max=120"`
	ProductsDiscussed string          `json:"productsDiscussed" validate:"max=1000"`
	Feedback          string          `json:"feedback" validate:"max=1000"`
	ActionsTaken      string          `json:"actionsTaken" validate:"max=1000"`
	ItemsGiven        []visit.Item    `json:"itemsGiven" validate:"max=50"`
}

func (r *RecordVisitRequest) Validate() map[string]string {
	return Validate(r)
}

// Notes returns the free-form part of the report.
func (r *RecordVisitRequest) Notes() visit.Notes {
	return visit.Notes{
		JointWorkWithUID:  r.JointWorkWithUID,
		JointWorkName:     r.JointWorkName,
		ProductsDiscussed: r.ProductsDiscussed,
		Feedback:          r.Feedback,
		ActionsTaken:      r.ActionsTaken,
		ItemsGiven:        r.ItemsGiven,
	}
}
