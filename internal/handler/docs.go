package handler

import "net/http"

// apiSchema is the machine-readable description of the public surface,
// served on the unauthenticated documentation endpoints.
var apiSchema = map[string]any{
	"openapi": "3.0.3",
	"info": map[string]any{
		"title":   "Bookery API",
		"version": "1.0.0",
	},
	"paths": map[string]any{
		"/user/register/":           map[string]any{"post": map[string]any{"summary": "Register a new user"}},
		"/user/login/":              map[string]any{"post": map[string]any{"summary": "Log in and receive a bearer token"}},
		"/user/logout/":             map[string]any{"post": map[string]any{"summary": "Log out (stateless no-op)"}},
		"/book/":                    map[string]any{"get": map[string]any{"summary": "List books"}, "post": map[string]any{"summary": "Create a book"}},
		"/book/{id}/":               map[string]any{"get": map[string]any{"summary": "Get a book"}, "patch": map[string]any{"summary": "Update a book (author only)"}, "delete": map[string]any{"summary": "Delete a book (author only)"}},
		"/book/{id}/page/":          map[string]any{"get": map[string]any{"summary": "List pages"}, "post": map[string]any{"summary": "Add a page (author only)"}},
		"/book/{id}/page/{number}/": map[string]any{"get": map[string]any{"summary": "Get a page"}, "patch": map[string]any{"summary": "Update a page (author only)"}, "delete": map[string]any{"summary": "Delete a page (author only)"}},
	},
}

// Schema handles GET /api/schema/.
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiSchema)
}

// Docs handles GET /api/docs/ with a short human-oriented pointer.
func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Authenticate with 'Authorization: Bearer <token>' from /user/login/.",
		"schema":  "/api/schema/",
	})
}
