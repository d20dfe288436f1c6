// Package domain defines the authentication domain: persisted session tokens,
// in-memory sessions and login errors.
package domain

// TokenTypeBearer is the token type returned at login.
const TokenTypeBearer = "bearer"

// Security log event names emitted by the auth module.
const (
	EventFailedLogin     = "failed_login_attempt"
	EventSuccessfulLogin = "successful_login"
	EventLogout          = "logout"
	EventUserLocked      = "account_locked"
)
