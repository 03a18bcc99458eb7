package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fieldforce-backend/internal/storage"
)

// Exporter writes a copy of each saved attendance record to the file store,
// where the reporting spreadsheet import picks it up.
type Exporter struct {
	files storage.Store
}

// NewExporter creates an Exporter backed by files.
func NewExporter(files storage.Store) *Exporter {
	return &Exporter{files: files}
}

// ExportPath returns where a record is written.
func ExportPath(d Daily) string {
	return fmt.Sprintf("attendance/%s/%s.json", d.Date, d.UserID)
}

// Export writes d as JSON and returns the file URL.
func (e *Exporter) Export(ctx context.Context, d Daily) (string, error) {
	d.IsSyncedToSheets = true
	body, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode attendance %s: %w", d.ID, err)
	}
	info, err := e.files.Save(ctx, ExportPath(d), bytes.NewReader(body), "application/json")
	if err != nil {
		return "", fmt.Errorf("export attendance %s: %w", d.ID, err)
	}
	return info.URL, nil
}
