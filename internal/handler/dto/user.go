// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"regexp"
	"time"

	"github.com/bookery/bookery/internal/model"
)

// emailPattern is a permissive shape check; real validation happens when
// mail is actually delivered.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minPasswordLength = 8
	maxNameLength     = 30
)

// RegisterRequest is the body of POST /user/register/.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate returns per-field errors, or an empty map when valid.
func (r *RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Email == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(r.Email) {
		errs["email"] = "email is not a valid address"
	}

	if len(r.Password) < minPasswordLength {
		errs["password"] = "the password must be at least 8 characters long"
	}

	if r.Name == "" {
		errs["name"] = "name is required"
	} else if len(r.Name) > maxNameLength {
		errs["name"] = "name must be at most 30 characters"
	}

	return errs
}

// LoginRequest is the body of POST /user/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses.
// The password hash never appears here.
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
