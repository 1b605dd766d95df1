//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type bookResponse struct {
	ID       int64   `json:"id"`
	AuthorID int64   `json:"author_id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
}

type pageResponse struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

// TestE2ESmoke walks the whole surface: register two users, log in, create
// a book with pages as the first, then verify the second can read but not
// mutate it.
func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("BOOKERY_BASE_URL", "http://localhost:8080")

	authorToken := registerAndLogin(t, baseURL, uniqueEmail("author"))
	readerToken := registerAndLogin(t, baseURL, uniqueEmail("reader"))

	book := createBook(t, baseURL, authorToken)
	createPage(t, baseURL, authorToken, book.ID, 1)

	// Reads are open to any authenticated user.
	var env envelope
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/book/%d/", baseURL, book.ID), readerToken, nil, &env); status != http.StatusOK {
		t.Fatalf("expected 200 reading a foreign book, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/book/%d/page/", baseURL, book.ID), readerToken, nil, &env); status != http.StatusOK {
		t.Fatalf("expected 200 listing foreign pages, got %d", status)
	}

	// Mutations are not.
	status := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/book/%d/", baseURL, book.ID), readerToken, map[string]any{
		"title": "hijacked",
	}, &env)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign book update, got %d", status)
	}
	if status := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/book/%d/page/1/", baseURL, book.ID), readerToken, nil, &env); status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign page delete, got %d", status)
	}

	// The owner can mutate freely.
	status = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/book/%d/", baseURL, book.ID), authorToken, map[string]any{
		"title": "revised",
	}, &env)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for owner update, got %d", status)
	}
	if status := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/book/%d/", baseURL, book.ID), authorToken, nil, &env); status != http.StatusOK {
		t.Fatalf("expected 200 for owner delete, got %d", status)
	}
}

// TestE2EAuthGate verifies the gate's status contract without any setup.
func TestE2EAuthGate(t *testing.T) {
	baseURL := envOrDefault("BOOKERY_BASE_URL", "http://localhost:8080")

	var env envelope
	if status := doJSON(t, http.MethodGet, baseURL+"/book/", "", nil, &env); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", status)
	}
	if env.Message != "Not Authenticated" {
		t.Fatalf("unexpected gate message %q", env.Message)
	}

	if status := doJSON(t, http.MethodGet, baseURL+"/book/", "not-a-real-token", nil, &env); status != http.StatusNotFound {
		t.Fatalf("expected 404 with a garbage token, got %d", status)
	}

	// Excluded paths never require a token.
	if status := doJSON(t, http.MethodGet, baseURL+"/api/schema/", "", nil, &env); status != http.StatusOK {
		t.Fatalf("expected 200 for schema without a token, got %d", status)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func registerAndLogin(t *testing.T, baseURL, email string) string {
	t.Helper()

	const password = "e2e-password-1"

	var env envelope
	status := doJSON(t, http.MethodPost, baseURL+"/user/register/", "", map[string]any{
		"email":    email,
		"password": password,
		"name":     "e2e",
	}, &env)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d (%s)", status, env.Message)
	}

	status = doJSON(t, http.MethodPost, baseURL+"/user/login/", "", map[string]any{
		"email":    email,
		"password": password,
	}, &env)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d (%s)", status, env.Message)
	}

	var token string
	if err := json.Unmarshal(env.Data, &token); err != nil || token == "" {
		t.Fatalf("login response missing token: %v", err)
	}
	return token
}

func createBook(t *testing.T, baseURL, token string) bookResponse {
	t.Helper()

	var env envelope
	status := doJSON(t, http.MethodPost, baseURL+"/book/", token, map[string]any{
		"title":       "e2e book",
		"description": "smoke test",
		"price":       4.5,
	}, &env)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from book create, got %d (%s)", status, env.Message)
	}

	var book bookResponse
	if err := json.Unmarshal(env.Data, &book); err != nil {
		t.Fatalf("decode book response: %v", err)
	}
	if book.ID == 0 {
		t.Fatal("book create response missing id")
	}
	return book
}

func createPage(t *testing.T, baseURL, token string, bookID int64, number int) pageResponse {
	t.Helper()

	var env envelope
	status := doJSON(t, http.MethodPost, fmt.Sprintf("%s/book/%d/page/", baseURL, bookID), token, map[string]any{
		"page_number": number,
		"content":     "once upon a time",
	}, &env)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from page create, got %d (%s)", status, env.Message)
	}

	var page pageResponse
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page response: %v", err)
	}
	return page
}

func doJSON(t *testing.T, method, url, token string, body any, out *envelope) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		*out = envelope{}
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
