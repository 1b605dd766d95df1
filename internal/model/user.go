// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account. Email is globally unique.
// PasswordHash holds the argon2id PHC string and is never serialized
// into API responses.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthContext is the authenticated identity attached to a request by the
// authentication middleware. It is created per request and never shared
// across requests.
type AuthContext struct {
	User *User
}
