// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"
)

// envelope is the response shape shared by every endpoint:
// {success, message, data?, error?, errors?}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Handler serves the endpoints that need no dependencies.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Resource not found", "")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
}

// respondSuccess writes a success envelope.
func respondSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError writes a failure envelope with an optional error detail.
func respondError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, envelope{
		Success: false,
		Message: message,
		Error:   detail,
	})
}

// respondValidation writes a 400 envelope carrying per-field errors.
func respondValidation(w http.ResponseWriter, message string, fieldErrors map[string]string) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: message,
		Errors:  fieldErrors,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing useful left to do.
		_ = err
	}
}
