// Package handlers implements the REST API on top of the services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/logger"
)

// maxJSONBody caps request bodies that are decoded as JSON.
const maxJSONBody = 1 << 20

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps error kinds to HTTP statuses.
var statusFor = map[apperr.Kind]int{
	apperr.KindPermissionDenied:    http.StatusForbidden,
	apperr.KindInvalidTransition:   http.StatusConflict,
	apperr.KindInaccurateFix:       http.StatusUnprocessableEntity,
	apperr.KindLocationUnavailable: http.StatusServiceUnavailable,
	apperr.KindValidation:          http.StatusBadRequest,
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindConflict:            http.StatusConflict,
}

// Fail writes err as {"error", "code"}. Unclassified errors are logged and
// reported as a generic 500.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status, ok := statusFor[ae.Kind]
		if ok {
			code := ae.Code
			if code == "" {
				code = string(ae.Kind)
			}
			JSON(w, status, map[string]string{"error": ae.Message, "code": code})
			return
		}
	}
	logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	JSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error", "code": "INTERNAL"})
}

// decode reads a JSON body into v and runs its validation. It writes the
// error response itself and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() map[string]string }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if errs := v.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"code":    "VALIDATION_FAILED",
			"details": errs,
		})
		return false
	}
	return true
}
