// Package inventory tracks the samples, gifts and promotional inputs held by
// each field user and the movements that change those holdings.
package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/apperr"
)

// ItemType classifies what an item is used for on a doctor call.
type ItemType string

const (
	ItemSample ItemType = "SAMPLE"
	ItemGift   ItemType = "GIFT"
	ItemInput  ItemType = "INPUT"
)

// Item is a catalogue entry.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      ItemType        `json:"type"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// DefaultItems is the catalogue seeded on an empty store.
func DefaultItems() []Item {
	return []Item{
		{ID: "p1", Name: "Tertius-D 10mg", Type: ItemSample, UnitPrice: decimal.Zero},
		{ID: "p2", Name: "Tertius-Cal 500mg", Type: ItemSample, UnitPrice: decimal.Zero},
		{ID: "g1", Name: "Pen", Type: ItemGift, UnitPrice: decimal.NewFromInt(50)},
		{ID: "g2", Name: "Notepad", Type: ItemGift, UnitPrice: decimal.NewFromInt(30)},
		{ID: "l1", Name: "Visual Aid", Type: ItemInput, UnitPrice: decimal.NewFromInt(500)},
	}
}

// Stock is how many units of one item a user currently holds.
type Stock struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
	Version  int64  `json:"version"`
}

// StockID returns the document id of a user's holding of an item.
func StockID(userID, itemID string) string {
	return fmt.Sprintf("%s_%s", userID, itemID)
}

// TransactionType is the kind of stock movement.
type TransactionType string

const (
	TxIssue              TransactionType = "ISSUE"
	TxReturn             TransactionType = "RETURN"
	TxDistributeToDoctor TransactionType = "DISTRIBUTE_TO_DOCTOR"
)

// Transaction is an append-only record of a stock movement. FromUserID is
// empty for stock issued by head office, ToUserID is the customer id for
// distributions.
type Transaction struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	FromUserID string          `json:"fromUserId,omitempty"`
	ToUserID   string          `json:"toUserId"`
	ItemID     string          `json:"itemId"`
	ItemName   string          `json:"itemName"`
	Quantity   int             `json:"quantity"`
	Type       TransactionType `json:"type"`
}

// Involves reports whether userID sent or received the movement.
func (t Transaction) Involves(userID string) bool {
	return userID != "" && (t.FromUserID == userID || t.ToUserID == userID)
}

// Issue adds qty units to s. A zero Stock is initialized for userID and item.
func Issue(s Stock, userID string, item Item, qty int) (Stock, error) {
	if qty <= 0 {
		return Stock{}, apperr.Newf(apperr.KindValidation, "INVALID_QUANTITY", "Quantity must be positive, got %d", qty)
	}
	if s.ID == "" {
		s = Stock{ID: StockID(userID, item.ID), UserID: userID, ItemID: item.ID}
	}
	s.ItemName = item.Name
	s.Quantity += qty
	return s, nil
}

// Deduct removes up to qty units and never goes below zero. It returns the
// updated stock and the number of units actually removed.
func Deduct(s Stock, qty int) (Stock, int) {
	if qty <= 0 {
		return s, 0
	}
	if qty > s.Quantity {
		qty = s.Quantity
	}
	s.Quantity -= qty
	return s, qty
}
