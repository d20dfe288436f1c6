package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	apperrors "github.com/signmeup/signmeup/internal/errors"
)

// SessionStore keeps the field cipher of every live session in memory, keyed by token hash.
//
// Master keys are never persisted, so a session that is not in the store cannot decrypt
// anything and must log in again. Entries expire with their token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*authDomain.Session
	now      func() time.Time
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*authDomain.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Bind stores session, replacing any previous session with the same token hash.
func (s *SessionStore) Bind(session *authDomain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TokenHash] = session
}

// Get returns the live session for tokenHash. An expired entry is evicted and reported as missing.
func (s *SessionStore) Get(tokenHash string) (*authDomain.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[tokenHash]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !s.now().Before(session.ExpiresAt) {
		s.Remove(tokenHash)
		return nil, false
	}
	return session, true
}

// Remove drops the session for tokenHash, if any.
func (s *SessionStore) Remove(tokenHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
}

// RemoveUser drops every session of userID and returns how many were removed.
func (s *SessionStore) RemoveUser(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, session := range s.sessions {
		if session.User != nil && session.User.ID == userID {
			delete(s.sessions, hash)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included until the next purge.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Purge evicts expired sessions and returns how many were removed.
func (s *SessionStore) Purge() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, hash)
			removed++
		}
	}
	return removed
}

// Run purges expired sessions every interval until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "session cleanup interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.Purge(); removed > 0 && logger != nil {
				logger.Debug("purged expired sessions",
					slog.Int("removed", removed),
					slog.Int("remaining", s.Len()))
			}
		}
	}
}
