package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookery/bookery/internal/auth"
	"github.com/bookery/bookery/internal/metrics"
	"github.com/bookery/bookery/internal/model"
	"github.com/bookery/bookery/internal/repository"
)

// DefaultExcludedPaths is the exact-match allow-list of routes reachable
// without authentication. No wildcards: "/user/login/" matches only itself.
var DefaultExcludedPaths = []string{
	"/user/register/",
	"/user/login/",
	"/user/logout/",
	"/api/schema/",
	"/api/docs/",
}

// TokenVerifier decodes a bearer token into its subject ID.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

// IdentityStore resolves a subject ID to a stored user.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// IdentityCache sits in front of the IdentityStore. Both methods tolerate
// cache misses; a nil user with nil error means "not cached".
type IdentityCache interface {
	GetIdentity(ctx context.Context, userID int64) (*model.User, error)
	SetIdentity(ctx context.Context, user *model.User) error
}

// AuthConfig holds configuration for the authentication middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens TokenVerifier
	Store  IdentityStore
	// Cache is optional; when nil every request hits the store.
	Cache IdentityCache
	// ExcludedPaths defaults to DefaultExcludedPaths when empty.
	ExcludedPaths []string
	// Metrics is optional; nil falls back to a no-op recorder.
	Metrics metrics.Recorder
}

// Authenticate returns the middleware gating every non-excluded request.
//
// Per request it moves through one of two branches: excluded paths pass
// straight through with the Authorization header never inspected; all other
// paths require a "Bearer <token>" header. A missing or non-Bearer header
// short-circuits with 401. A token that fails verification - bad structure,
// bad signature or past expiry - or a subject with no matching user
// short-circuits with 404. Both rejections carry the same
// {"success":false,"message":"Not Authenticated"} body, matching the
// behavior this service replaced.
//
// On success the resolved identity is attached to the request context and
// the next handler runs.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	excluded := make(map[string]struct{}, len(cfg.ExcludedPaths))
	paths := cfg.ExcludedPaths
	if len(paths) == 0 {
		paths = DefaultExcludedPaths
	}
	for _, p := range paths {
		excluded[p] = struct{}{}
	}

	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := excluded[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_bearer_header"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure("missing_bearer_header")
				writeNotAuthenticated(w, http.StatusUnauthorized)
				return
			}

			subjectID, err := cfg.Tokens.Verify(token)
			if err != nil {
				reason := "malformed_token"
				if errors.Is(err, auth.ErrExpiredToken) {
					reason = "expired_token"
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure(reason)
				// Invalid and expired tokens share the 404 path with
				// vanished users.
				writeNotAuthenticated(w, http.StatusNotFound)
				return
			}

			user, cacheHit := cachedIdentity(r.Context(), cfg.Cache, subjectID)
			if user == nil {
				user, err = cfg.Store.GetUserByID(r.Context(), subjectID)
				if err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						cfg.Logger.Warn("authentication failed",
							slog.String("reason", "user_not_found"),
							slog.Int64("subject_id", subjectID),
							slog.String("endpoint", r.Method+" "+r.URL.Path),
							slog.String("request_id", GetRequestID(r.Context())),
						)
						recorder.IncAuthFailure("user_not_found")
						writeNotAuthenticated(w, http.StatusNotFound)
						return
					}

					cfg.Logger.Error("identity lookup failed",
						slog.String("error", err.Error()),
						slog.Int64("subject_id", subjectID),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeGateError(w, http.StatusInternalServerError, "Something wrong happens")
					return
				}

				if cfg.Cache != nil {
					_ = cfg.Cache.SetIdentity(r.Context(), user)
				}
			}

			recorder.IncAuthSuccess()
			cfg.Logger.Info("authentication successful",
				slog.Int64("user_id", user.ID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), &model.AuthContext{User: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cachedIdentity consults the identity cache, treating every failure as a
// miss. The second return reports whether the identity came from cache.
func cachedIdentity(ctx context.Context, cache IdentityCache, subjectID int64) (*model.User, bool) {
	if cache == nil {
		return nil, false
	}
	user, err := cache.GetIdentity(ctx, subjectID)
	if err != nil || user == nil {
		return nil, false
	}
	return user, true
}

// writeNotAuthenticated writes the shared rejection body. The same message
// is used for every rejection to avoid leaking why a credential failed.
func writeNotAuthenticated(w http.ResponseWriter, status int) {
	writeGateError(w, status, "Not Authenticated")
}

func writeGateError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
