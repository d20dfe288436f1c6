package domain

import (
	"github.com/signmeup/signmeup/internal/errors"
)

// Authentication errors.
var (
	// ErrInvalidCredentials covers an unknown email, a wrong password and an unusable token alike.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidMasterKey indicates the master key does not match the stored hash or canary.
	ErrInvalidMasterKey = errors.Wrap(errors.ErrUnauthorized, "invalid master key")

	// ErrUserLocked indicates too many failed login attempts.
	ErrUserLocked = errors.Wrap(errors.ErrLocked, "user is locked")

	// ErrUserInactive indicates a deactivated user.
	ErrUserInactive = errors.Wrap(errors.ErrForbidden, "user is inactive")

	// ErrTokenNotFound indicates a token with the specified hash was not found.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")
)
