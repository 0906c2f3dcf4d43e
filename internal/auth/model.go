// Package auth implements the Gatehouse credential and session lifecycle:
// registration, login validation, opaque session issuance and destruction,
// and single-use password-reset tokens. The package follows a store /
// service / handler split: the store owns persistence, the service owns the
// state machine, and handlers are thin HTTP glue.
package auth

import (
	"time"
)

// User is the identity record. IDs are assigned by the store on creation
// and immutable. SessionID is present while the user is logged in;
// ResetToken is present only between a reset request and its completion.
// HashedPassword is the opaque bcrypt hash -- never the plaintext.
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	HashedPassword []byte     `json:"-"` // Never expose in JSON responses.
	SessionID      *string    `json:"-"` // Never expose.
	ResetToken     *string    `json:"-"` // Never expose.
	CreatedAt      time.Time  `json:"created_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the payload for POST /users.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest holds the payload for POST /sessions.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ResetTokenRequest holds the payload for POST /reset_password.
type ResetTokenRequest struct {
	Email string `json:"email" form:"email"`
}

// UpdatePasswordRequest holds the payload for PUT /reset_password.
type UpdatePasswordRequest struct {
	Email       string `json:"email" form:"email"`
	ResetToken  string `json:"reset_token" form:"reset_token"`
	NewPassword string `json:"new_password" form:"new_password"`
}
