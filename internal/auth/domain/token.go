package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	userDomain "github.com/signmeup/signmeup/internal/user/domain"
)

// Token is the persisted record of a session token. Only the SHA-256 hash is stored.
type Token struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsUsable reports whether the token is neither revoked nor expired at now.
func (t *Token) IsUsable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Session is an authenticated user together with the field cipher derived from the
// master key supplied at login. It lives only in memory.
type Session struct {
	TokenHash string
	User      *userDomain.User
	Cipher    cryptoService.FieldCipher
	ExpiresAt time.Time
}

// LoginInput carries the credentials for Login.
type LoginInput struct {
	Email     string
	Password  string
	MasterKey string
}

// LoginOutput is returned once per login. PlainToken is never stored.
type LoginOutput struct {
	PlainToken string
	TokenType  string
	ExpiresAt  time.Time
	User       *userDomain.User
}
