package usecase

import (
	"context"

	"github.com/google/uuid"
)

// UserSessions drops the in-memory sessions of a user.
type UserSessions interface {
	RemoveUser(userID uuid.UUID) int
}

// SessionRevoker revokes every stored token of a user and forgets the live sessions
// bound to them, so field ciphers derived from an old master key leave memory.
type SessionRevoker struct {
	tokens   TokenRepository
	sessions UserSessions
}

// NewSessionRevoker creates a SessionRevoker.
func NewSessionRevoker(tokens TokenRepository, sessions UserSessions) *SessionRevoker {
	return &SessionRevoker{tokens: tokens, sessions: sessions}
}

// RevokeAllByUserID revokes the tokens first. Sessions are kept when that fails.
func (r *SessionRevoker) RevokeAllByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := r.tokens.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	r.sessions.RemoveUser(userID)
	return nil
}
