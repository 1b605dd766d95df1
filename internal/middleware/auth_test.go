package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookery/bookery/internal/auth"
	"github.com/bookery/bookery/internal/model"
	"github.com/bookery/bookery/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingVerifier wraps a TokenService and records whether Verify ran.
type countingVerifier struct {
	svc   *auth.TokenService
	calls int
}

func (v *countingVerifier) Verify(raw string) (int64, error) {
	v.calls++
	return v.svc.Verify(raw)
}

// stubStore serves users from a map.
type stubStore struct {
	users map[int64]*model.User
	err   error
	calls int
}

func (s *stubStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

// stubCache is an in-memory IdentityCache.
type stubCache struct {
	users map[int64]*model.User
	sets  int
}

func (c *stubCache) GetIdentity(_ context.Context, userID int64) (*model.User, error) {
	return c.users[userID], nil
}

func (c *stubCache) SetIdentity(_ context.Context, user *model.User) error {
	c.sets++
	c.users[user.ID] = user
	return nil
}

type gateEnv struct {
	tokens  *auth.TokenService
	verify  *countingVerifier
	store   *stubStore
	handler http.Handler
	inner   *innerSpy
}

// innerSpy records whether the wrapped handler ran and what identity it saw.
type innerSpy struct {
	ran    bool
	userID int64
}

func newGateEnv(t *testing.T, cache IdentityCache) *gateEnv {
	t.Helper()

	env := &gateEnv{
		tokens: auth.NewTokenService("gate-test-secret", time.Hour),
		store: &stubStore{users: map[int64]*model.User{
			1: {ID: 1, Email: "a@example.com", Name: "A"},
		}},
		inner: &innerSpy{},
	}
	env.verify = &countingVerifier{svc: env.tokens}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.inner.ran = true
		env.inner.userID = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	env.handler = Authenticate(AuthConfig{
		Logger: discardLogger(),
		Tokens: env.verify,
		Store:  env.store,
		Cache:  cache,
	})(next)

	return env
}

func doRequest(handler http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func assertNotAuthenticatedBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	if body.Message != "Not Authenticated" {
		t.Errorf("expected message 'Not Authenticated', got %q", body.Message)
	}
}

func TestAuthenticate_ExcludedPathsSkipTokenInspection(t *testing.T) {
	for _, path := range DefaultExcludedPaths {
		t.Run(path, func(t *testing.T) {
			env := newGateEnv(t, nil)

			// Even a garbage credential must be ignored on excluded paths.
			rec := doRequest(env.handler, path, "Bearer garbage")

			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
			if !env.inner.ran {
				t.Error("expected inner handler to run")
			}
			if env.verify.calls != 0 {
				t.Errorf("expected no token verification, got %d calls", env.verify.calls)
			}
			if env.inner.userID != 0 {
				t.Errorf("expected no identity on excluded path, got %d", env.inner.userID)
			}
		})
	}
}

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	testCases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bare token", header: "some-token"},
		{name: "lowercase bearer", header: "bearer abc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newGateEnv(t, nil)

			rec := doRequest(env.handler, "/book/", tc.header)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			assertNotAuthenticatedBody(t, rec)
			if env.inner.ran {
				t.Error("inner handler must not run on rejection")
			}
		})
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	env := newGateEnv(t, nil)

	rec := doRequest(env.handler, "/book/5/", "Bearer garbage")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	assertNotAuthenticatedBody(t, rec)
	if env.inner.ran {
		t.Error("inner handler must not run on rejection")
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expiredSvc := auth.NewTokenService("gate-test-secret", time.Hour,
		auth.WithClock(func() time.Time { return issuedAt }))

	token, err := expiredSvc.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// The gate verifies against the real clock, far past expiry.
	env := newGateEnv(t, nil)
	rec := doRequest(env.handler, "/book/", "Bearer "+token)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for expired token, got %d", rec.Code)
	}
	assertNotAuthenticatedBody(t, rec)
}

func TestAuthenticate_ForeignSecret(t *testing.T) {
	foreign := auth.NewTokenService("some-other-secret", time.Hour)
	token, err := foreign.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	env := newGateEnv(t, nil)
	rec := doRequest(env.handler, "/book/", "Bearer "+token)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for foreign-signed token, got %d", rec.Code)
	}
}

func TestAuthenticate_VanishedUser(t *testing.T) {
	env := newGateEnv(t, nil)

	// Token is valid but subject 99 has no stored user.
	token, err := env.tokens.Issue(99)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec := doRequest(env.handler, "/book/", "Bearer "+token)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for vanished user, got %d", rec.Code)
	}
	assertNotAuthenticatedBody(t, rec)
}

func TestAuthenticate_Success(t *testing.T) {
	env := newGateEnv(t, nil)

	token, err := env.tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec := doRequest(env.handler, "/book/", "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !env.inner.ran {
		t.Fatal("expected inner handler to run")
	}
	if env.inner.userID != 1 {
		t.Errorf("expected identity 1 in context, got %d", env.inner.userID)
	}
}

func TestAuthenticate_CachePopulatedAndConsulted(t *testing.T) {
	cache := &stubCache{users: map[int64]*model.User{}}
	env := newGateEnv(t, cache)

	token, err := env.tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// First request misses the cache and hits the store.
	rec := doRequest(env.handler, "/book/", "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.store.calls != 1 {
		t.Errorf("expected 1 store lookup, got %d", env.store.calls)
	}
	if cache.sets != 1 {
		t.Errorf("expected identity to be cached once, got %d", cache.sets)
	}

	// Second request is served from cache.
	rec = doRequest(env.handler, "/book/", "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.store.calls != 1 {
		t.Errorf("expected store untouched on cache hit, got %d lookups", env.store.calls)
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	env := newGateEnv(t, nil)
	env.store.err = context.DeadlineExceeded

	token, err := env.tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec := doRequest(env.handler, "/book/", "Bearer "+token)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for store failure, got %d", rec.Code)
	}
	if env.inner.ran {
		t.Error("inner handler must not run on store failure")
	}
}
