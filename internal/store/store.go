// Package store is a versioned JSON document store addressed by
// (collection, id). Writes carry the version the caller read, and a write
// against a newer version fails with a Conflict.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fieldforce-backend/internal/apperr"
)

// Collections used by the service.
const (
	Users         = "users"
	Rates         = "rates"
	Sheets        = "expense_sheets"
	Attendance    = "attendance"
	Customers     = "customers"
	Visits        = "visits"
	Notifications = "notifications"
	TourPlans     = "tour_plans"
	Items         = "inventory_items"
	Stock         = "user_stock"
	StockTx       = "stock_transactions"
	Targets       = "sales_targets"
)

// RatesDocID is the id of the singleton rates document.
const RatesDocID = "global"

// AnyVersion skips the version check and always writes.
const AnyVersion int64 = -1

// Document is a stored JSON body with its version.
type Document struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	Body      json.RawMessage `json:"body"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type op int

const (
	opEq op = iota
	opIn
)

// Filter restricts a query on a top-level string field of the body.
type Filter struct {
	Field  string
	op     op
	Values []string
}

// Eq matches documents whose field equals value.
func Eq(field, value string) Filter {
	return Filter{Field: field, op: opEq, Values: []string{value}}
}

// In matches documents whose field equals one of values.
func In(field string, values ...string) Filter {
	return Filter{Field: field, op: opIn, Values: values}
}

// Store is the document persistence contract.
//
// Put with expectedVersion 0 creates the document and fails if it exists.
// A positive expectedVersion updates only if the stored version matches.
// AnyVersion upserts unconditionally. Put returns the new version.
// Query returns matching documents ordered by id.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Put(ctx context.Context, collection, id string, body []byte, expectedVersion int64) (int64, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

// NotFound builds the error returned for a missing document.
func NotFound(collection, id string) error {
	return apperr.Newf(apperr.KindNotFound, "DOCUMENT_NOT_FOUND", "%s/%s not found", collection, id)
}

// Conflict builds the error returned for a version mismatch.
func Conflict(collection, id string) error {
	return apperr.Newf(apperr.KindConflict, "VERSION_CONFLICT", "%s/%s was changed by someone else, reload and retry", collection, id)
}

// GetJSON loads and decodes a document.
func GetJSON[T any](ctx context.Context, s Store, collection, id string) (T, int64, error) {
	var v T
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return v, 0, err
	}
	if err := json.Unmarshal(doc.Body, &v); err != nil {
		return v, 0, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return v, doc.Version, nil
}

// PutJSON encodes and writes a document.
func PutJSON[T any](ctx context.Context, s Store, collection, id string, v T, expectedVersion int64) (int64, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return s.Put(ctx, collection, id, body, expectedVersion)
}

// QueryJSON runs a query and decodes every match.
func QueryJSON[T any](ctx context.Context, s Store, collection string, filters ...Filter) ([]T, error) {
	docs, err := s.Query(ctx, collection, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Body, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
