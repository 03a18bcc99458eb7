package visit

import (
	"strings"
	"time"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/geofence"
	"fieldforce-backend/internal/location"
)

// Item is a sample or gift handed over during a visit.
type Item struct {
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
}

// Record is one customer visit with its location verification.
type Record struct {
	ID                 string                `json:"id"`
	Date               string                `json:"date"`
	Timestamp          time.Time             `json:"timestamp"`
	UserID             string                `json:"userId"`
	CustomerID         string                `json:"customerId"`
	CustomerName       string                `json:"customerName"`
	TerritoryID        string                `json:"territoryId"`
	GeoLat             float64               `json:"geoLat"`
	GeoLng             float64               `json:"geoLng"`
	Accuracy           float64               `json:"accuracy"`
	Verification       geofence.Verification `json:"verification"`
	IsVerifiedLocation bool                  `json:"isVerifiedLocation"`
	DistanceMeters     float64               `json:"distanceMeters"`
	JointWorkWithUID   string                `json:"jointWorkWithUid,omitempty"`
	JointWorkName      string                `json:"jointWorkName,omitempty"`
	ProductsDiscussed  string                `json:"productsDiscussed,omitempty"`
	Feedback           string                `json:"feedback,omitempty"`
	ActionsTaken       string                `json:"actionsTaken,omitempty"`
	ItemsGiven         []Item                `json:"itemsGiven,omitempty"`
}

// Notes is the free-form part of a visit report.
type Notes struct {
	JointWorkWithUID  string
	JointWorkName     string
	ProductsDiscussed string
	Feedback          string
	ActionsTaken      string
	ItemsGiven        []Item
}

// NewRecord verifies fix against the customer's tagged location and builds
// the visit. A fix too coarse to judge fails with InaccurateFix and nothing
// is recorded.
func NewRecord(id, userID string, c Customer, fix location.Fix, policy geofence.VisitPolicy, notes Notes, now time.Time) (Record, error) {
	for _, it := range notes.ItemsGiven {
		if it.Quantity < 0 {
			return Record{}, apperr.New(apperr.KindValidation, "NEGATIVE_QUANTITY", "Item quantity cannot be negative")
		}
	}
	res, err := policy.Verify(fix, c.Location())
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:                 id,
		Date:               now.Format("2006-01-02"),
		Timestamp:          now,
		UserID:             userID,
		CustomerID:         c.ID,
		CustomerName:       c.Name,
		TerritoryID:        c.TerritoryID,
		GeoLat:             fix.Latitude,
		GeoLng:             fix.Longitude,
		Accuracy:           fix.AccuracyMeters,
		Verification:       res.Verification,
		IsVerifiedLocation: res.Verified,
		DistanceMeters:     res.DistanceMeters,
		JointWorkWithUID:   notes.JointWorkWithUID,
		JointWorkName:      strings.TrimSpace(notes.JointWorkName),
		ProductsDiscussed:  strings.TrimSpace(notes.ProductsDiscussed),
		Feedback:           strings.TrimSpace(notes.Feedback),
		ActionsTaken:       strings.TrimSpace(notes.ActionsTaken),
		ItemsGiven:         notes.ItemsGiven,
	}, nil
}
