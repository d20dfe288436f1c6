package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/httputil"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = time.Hour
)

// limiterStore holds one token bucket per key (user ID or client IP).
type limiterStore struct {
	limiters sync.Map // map[string]*limiterEntry
	rps      float64
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// newLimiterStore creates a store whose stale entries are swept until ctx is done.
func newLimiterStore(ctx context.Context, rps float64, burst int) *limiterStore {
	store := &limiterStore{
		rps:   rps,
		burst: burst,
		now:   time.Now,
	}
	go store.cleanupStale(ctx, limiterCleanupInterval)
	return store
}

// getLimiter retrieves or creates the limiter for key.
func (s *limiterStore) getLimiter(key string) *rate.Limiter {
	now := s.now()
	if val, ok := s.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	}
	actual, _ := s.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// removeIdle drops limiters not accessed since before threshold.
func (s *limiterStore) removeIdle(threshold time.Time) int {
	removed := 0
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		idle := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if idle {
			s.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (s *limiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeIdle(s.now().Add(-limiterIdleTimeout))
		}
	}
}

// allow consumes one token for key or writes a 429 with a Retry-After header.
func (s *limiterStore) allow(c *gin.Context, key, message string, logger *slog.Logger, attrs ...any) bool {
	limiter := s.getLimiter(key)
	if limiter.Allow() {
		return true
	}

	reservation := limiter.Reserve()
	retryAfter := int(reservation.Delay().Seconds())
	reservation.Cancel()
	if retryAfter < 1 {
		retryAfter = 1
	}

	logger.Debug("rate limit exceeded", append(attrs, slog.Int("retry_after", retryAfter))...)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "rate_limit_exceeded",
		"message": message,
	})
	c.Abort()
	return false
}

// RateLimitMiddleware enforces per-user rate limiting on authenticated requests.
//
// MUST be used after AuthenticationMiddleware. Each user gets an independent token bucket
// (golang.org/x/time/rate). Idle buckets are swept until ctx is done.
//
// Returns 429 Too Many Requests with a Retry-After header when the bucket is empty.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore(ctx, rps, burst)

	return func(c *gin.Context) {
		session, ok := GetSession(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no authenticated session in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		userID := session.User.ID.String()
		if !store.allow(c, userID, "Too many requests. Please retry after the specified delay.",
			logger, slog.String("user_id", userID)) {
			return
		}

		c.Next()
	}
}

// LoginRateLimitMiddleware enforces per-IP rate limiting on the unauthenticated login
// and registration endpoints to slow down credential stuffing.
//
// Uses c.ClientIP(), which honours X-Forwarded-For and X-Real-IP only when the peer
// is one of the engine's trusted proxies.
func LoginRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore(ctx, rps, burst)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !store.allow(c, clientIP, "Too many login attempts from this IP. Please retry after the specified delay.",
			logger, slog.String("client_ip", clientIP)) {
			return
		}

		c.Next()
	}
}
