package models

import (
	"fieldforce-backend/internal/expense"
)

// UpdateEntriesRequest edits rows of a sheet. Version is the sheet version
// the client loaded; 0 skips the check.
type UpdateEntriesRequest struct {
	Version int64                 `json:"version" validate:"gte=0"`
	Updates []expense.EntryUpdate `json:"updates" validate:"required,min=1,max=31,dive"`
}

func (r *UpdateEntriesRequest) Validate() map[string]string {
	return Validate(r)
}

// RejectRequest carries the reason shown to the sheet owner.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (r *RejectRequest) Validate() map[string]string {
	return Validate(r)
}

// ReceiptResponse is returned after a receipt upload.
type ReceiptResponse struct {
	URL      string         `json:"url"`
	FileName string         `json:"fileName"`
	FileSize int64          `json:"fileSize"`
	FileType string         `json:"fileType"`
	Entry    *expense.Entry `json:"entry,omitempty"`
}
