package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bookery/bookery/internal/auth"
	"github.com/bookery/bookery/internal/handler/dto"
	"github.com/bookery/bookery/internal/metrics"
	"github.com/bookery/bookery/internal/model"
	"github.com/bookery/bookery/internal/repository"
)

// UserStore is the slice of the repository the user handler needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// TokenIssuer signs a token for a verified subject.
type TokenIssuer interface {
	Issue(subjectID int64) (string, error)
}

// UserHandler handles registration, login and logout.
type UserHandler struct {
	store   UserStore
	tokens  TokenIssuer
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, tokens TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *UserHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserHandler{
		store:   store,
		tokens:  tokens,
		logger:  logger,
		metrics: recorder,
	}
}

// Register handles POST /user/register/.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "data is not valid", map[string]string{"body": "invalid JSON"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, "data is not valid", errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create User", err.Error())
		return
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			respondValidation(w, "data is not valid", map[string]string{
				"email": "a user with this email already exists",
			})
			return
		}
		h.logger.Error("user creation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create User", err.Error())
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)
	respondSuccess(w, http.StatusCreated, "User created successfully", dto.ToUserResponse(user))
}

// Login handles POST /user/login/.
// On success the response data is the signed token string.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.IncLogin("failure")
		respondError(w, http.StatusBadRequest, "Invalid Credentials", "invalid JSON body")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.metrics.IncLogin("failure")
			respondError(w, http.StatusBadRequest, "Invalid Credentials", "no account for this email")
			return
		}
		h.logger.Error("login lookup failed", "error", err)
		h.metrics.IncLogin("failure")
		respondError(w, http.StatusInternalServerError, "Something wrong happens", err.Error())
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		h.logger.Error("password verification failed", "error", err, "user_id", user.ID)
		h.metrics.IncLogin("failure")
		respondError(w, http.StatusInternalServerError, "Something wrong happens", err.Error())
		return
	}
	if !match {
		h.metrics.IncLogin("failure")
		respondError(w, http.StatusBadRequest, "Invalid Credentials", "wrong password")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issuance failed", "error", err, "user_id", user.ID)
		h.metrics.IncLogin("failure")
		respondError(w, http.StatusInternalServerError, "Something wrong happens", err.Error())
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)
	h.metrics.IncLogin("success")
	respondSuccess(w, http.StatusOK, "Login Successfully", token)
}

// Logout handles POST /user/logout/.
// Tokens are stateless and carry their own expiry, so there is nothing to
// revoke server-side; the endpoint exists so clients have a uniform flow.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "Logout Successfully", nil)
}
