// Package http provides HTTP middleware and handlers for login, logout and session binding.
package http

import (
	"context"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
)

// sessionKey is a context key type for storing the authenticated session.
type sessionKey struct{}

// WithSession stores an authenticated session in the context and binds its field
// cipher, so usecases downstream can encrypt and decrypt without seeing the session.
func WithSession(ctx context.Context, session *authDomain.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, session)
	if session != nil && session.Cipher != nil {
		ctx = cryptoService.WithFieldCipher(ctx, session.Cipher)
	}
	return ctx
}

// GetSession retrieves the authenticated session from the context.
// Returns (session, true) if a session is present, or (nil, false) otherwise.
func GetSession(ctx context.Context) (*authDomain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*authDomain.Session)
	return session, ok && session != nil
}
