package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "smpserver/pkg/domain-errors"
)

// User is an SMP account that can own service groups.
//
// Invariants:
//   - Username is non-empty, at most 64 characters, stored lower-cased
//   - PasswordHash is a bcrypt hash and is never serialized
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeUsername returns the lookup form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func NewUser(userID uuid.UUID, username, passwordHash string, now time.Time) (*User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if len(username) > 64 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username must be 64 characters or less")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	return &User{
		ID:           userID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// Credentials are the HTTP Basic credentials presented with a mutating request.
type Credentials struct {
	Username string
	Password string
}

// String never includes the password.
func (c Credentials) String() string {
	return c.Username
}

// Principal is the identity established by a successful credential check.
// Callers outside auth treat it as an opaque token handed back to the ownership guard.
type Principal struct {
	UserID   uuid.UUID
	Username string
}
