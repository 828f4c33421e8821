package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clientdesk/clientdesk/pkg/configuration"
)

// APIError is the uniform error envelope for the JSON surface.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		panic(err)
	}
}

func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(configuration.Use().RequestIDHeader)
	if header == "" {
		header = "X-Request-ID"
	}

	requestID := strings.TrimSpace(r.Header.Get(header))
	if requestID == "" {
		requestID = strings.TrimSpace(r.Header.Get("X-Request-Id"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
		w.Header().Set(header, requestID)
	}
	return requestID
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	meta := map[string]string{
		"request_id": ensureRequestID(w, r),
	}
	writeJSON(w, status, APIError{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// writeInternalError hides failure detail outside development mode.
func writeInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	message := "internal error"
	if configuration.Use().IsDevelopment() && err != nil {
		message = err.Error()
	}
	writeAPIError(w, r, http.StatusInternalServerError, code, message)
}

// decodeJSONBody decodes into dst and writes the error response itself on
// failure; a non-nil return means the handler should stop.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CLIENT_INVALID_JSON", "invalid json")
		return err
	}
	return nil
}

func firstValidationMessage(errs map[string]string, preferred ...string) string {
	for _, key := range preferred {
		if v := strings.TrimSpace(errs[key]); v != "" {
			return v
		}
	}
	for _, v := range errs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "validation failed"
}
