// Package domain defines the core user domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/errors"
)

// CanaryPlaintext is sealed with the user's field key at registration. Opening it at
// login proves the supplied master key derives the key the user's fields were written with.
const CanaryPlaintext = "signmeup:canary"

// User represents a SignMeUp account holder.
//
// PasswordHash and MasterKeyHash are Argon2id hashes. The master key itself is never stored.
type User struct {
	ID                  uuid.UUID
	Username            string
	Email               string
	PasswordHash        string
	MasterKeyHash       string
	MasterKeyCanary     string
	FirstName           string
	LastName            string
	IsActive            bool
	IsVerified          bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether the user is locked out at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email or username already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrMasterKeyChanged indicates the session's field cipher no longer matches the
	// user's master key, because the key was rotated after the session was opened.
	ErrMasterKeyChanged = errors.Wrap(errors.ErrUnauthorized, "master key changed, log in again")
)
