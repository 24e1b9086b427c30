// Package auth handles user authentication, session management, and password
// security for the Best Lab API. It provides registration, login, logout,
// profile read/update, and bearer-token validation. Sessions are opaque
// random tokens persisted in MariaDB or Redis.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"time"
)

// DefaultRoleID is the standard role assigned to newly registered users.
// Matches the seed row in db/migrations/000002_seed_roles.up.sql.
const DefaultRoleID = 1

// User represents a registered user. This is the domain model used by the
// credential store. It is never serialized directly; handlers send the
// PublicUser projection instead.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	RoleID       int
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns the projection of u that is safe to send to clients. It
// never includes the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PublicUser is the only representation of a user that crosses the API
// boundary.
type PublicUser struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	RoleID    int       `json:"roleId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// --- Session ---

// Session is a time-bounded proof of authentication owned by one user.
// Stores persist only a hash of the token; Token is populated on the value
// returned from Create and empty on values read back from a store.
type Session struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the session is still valid at instant now.
// A session is valid iff now is strictly before ExpiresAt.
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Identity is the authenticated caller attached to the request context by
// the auth middleware. Token is kept so logout can delete the session.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	RoleID    int
	FirstName string
	LastName  string
	Token     string
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the JSON body of POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// LoginRequest holds the JSON body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest holds the JSON body of PUT /api/auth/profile.
type UpdateProfileRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Username  string `json:"username"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the input for creating a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput is the input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// ProfileUpdate holds the only user fields a profile update may change.
// Email and password are deliberately absent.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Username  string
}

// NewUser is the input to CredentialStore.Create. Password is plaintext and
// is hashed before it reaches the repository.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// --- Responses ---

// AuthResult is returned by register and login.
type AuthResult struct {
	User      PublicUser `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}
