package models

import (
	"strings"
	"time"
)

// User is a local account. Only the salted password hash is ever stored;
// the password itself never leaves the registration or login call.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCredentials pairs an account with its stored hash material. It stays
// inside the store/service boundary and is never serialized.
type UserCredentials struct {
	User
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}

// RegisterUserRequest is the payload for creating a new account. Actor is
// the username performing the registration; it is required only when
// registering an admin account into a non-empty user table.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
	Actor    string `json:"actor,omitempty"`
}

// Validate checks RegisterUserRequest fields.
func (r *RegisterUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Actor = strings.TrimSpace(r.Actor)

	if r.Username == "" {
		return ErrMissingUsername
	}

	if len(r.Username) > 100 {
		return ErrFieldTooLong("username", 100)
	}

	if r.Password == "" {
		return ErrMissingPassword
	}

	if len(r.Password) > 255 {
		return ErrFieldTooLong("password", 255)
	}

	return nil
}
