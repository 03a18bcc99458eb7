package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/expense"
	"fieldforce-backend/internal/logger"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/service"
	"fieldforce-backend/internal/storage"
)

// Allowed file types and size limit for receipts.
const maxUploadSize = 10 << 20 // 10 MB

// receiptPrefix is the only part of the file store served over HTTP.
const receiptPrefix = "receipts/"

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// ReceiptHandler stores receipt files and links them to expense entries.
// It depends on the storage.Store interface, not a specific implementation.
type ReceiptHandler struct {
	store    storage.Store
	expenses *service.Expenses
	localDir string
	now      func() time.Time
}

// NewReceiptHandler creates a ReceiptHandler. localDir is where a local
// store keeps files; it is empty when files live in R2.
func NewReceiptHandler(store storage.Store, expenses *service.Expenses, localDir string) *ReceiptHandler {
	return &ReceiptHandler{store: store, expenses: expenses, localDir: localDir, now: time.Now}
}

// Upload handles POST /api/expenses/{sheetId}/entries/{entryId}/receipt
// with multipart/form-data containing a "file" field and an optional
// "version". The stored file's URL becomes the entry's receiptUrl.
func (h *ReceiptHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sheetID := chi.URLParam(r, "sheetId")
	entryID := chi.URLParam(r, "entryId")

	// Enforce size limit before reading body
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	var version int64
	if v := r.FormValue("version"); v != "" {
		if version, err = strconv.ParseInt(v, 10, 64); err != nil || version < 0 {
			JSONError(w, http.StatusBadRequest, "Invalid version.")
			return
		}
	}

	// Validate file type by MIME sniffing the first 512 bytes
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		JSONError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	contentType := http.DetectContentType(buffer[:n])
	if !allowedTypes[contentType] {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"File type '%s' not allowed. Accepted: PDF, JPG, PNG.", contentType,
		))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to process file.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	storagePath := fmt.Sprintf(receiptPrefix+"%s/%s_%d_%s",
		sanitizeFilename(sheetID), sanitizeFilename(entryID), h.now().Unix(), sanitizeFilename(header.Filename))
	info, err := h.store.Save(ctx, storagePath, file, contentType)
	if err != nil {
		logger.FromContext(r.Context()).Error("receipt upload failed", zap.Error(err))
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	url := info.URL
	v, err := h.expenses.UpdateEntries(ctx, ctxkeys.Actor(r.Context()), sheetID, version, []expense.EntryUpdate{
		{EntryID: entryID, Change: expense.Change{ReceiptURL: &url}},
	})
	if err != nil {
		if derr := h.store.Delete(context.WithoutCancel(ctx), storagePath); derr != nil {
			logger.FromContext(r.Context()).Warn("orphaned receipt", zap.String("path", storagePath), zap.Error(derr))
		}
		Fail(w, r, err)
		return
	}

	resp := models.ReceiptResponse{URL: info.URL, FileName: info.FileName, FileSize: info.FileSize, FileType: info.FileType}
	for i := range v.Sheet.Entries {
		if v.Sheet.Entries[i].ID == entryID {
			resp.Entry = &v.Sheet.Entries[i]
			break
		}
	}
	JSON(w, http.StatusCreated, resp)
}

// ServeFile handles GET /api/files/*.
// Only receipts are served. R2 files redirect to the public URL; local files
// are served from disk.
func (h *ReceiptHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	if filePath == "" {
		JSONError(w, http.StatusBadRequest, "File path required.")
		return
	}
	filePath = path.Clean("/" + filePath)[1:]
	if !strings.HasPrefix(filePath, receiptPrefix) {
		JSONError(w, http.StatusNotFound, "File not found.")
		return
	}

	if url := h.store.URL(filePath); strings.HasPrefix(url, "https://") {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}
	if h.localDir == "" {
		JSONError(w, http.StatusNotFound, "File not found.")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.localDir, filepath.FromSlash(filePath)))
}

// sanitizeFilename removes path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
