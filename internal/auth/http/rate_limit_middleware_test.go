package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
)

func newRateLimitedRouter(t *testing.T, rps float64, burst int, session *authDomain.Session) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if session != nil {
			c.Request = c.Request.WithContext(WithSession(c.Request.Context(), session))
		}
		c.Next()
	})
	router.Use(RateLimitMiddleware(ctx, rps, burst, createTestLogger()))
	router.GET("/v1/identities", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func newLoginRouter(t *testing.T, rps float64, burst int, trustedProxies ...string) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		t.Fatalf("set trusted proxies: %v", err)
	}
	router.Use(LoginRateLimitMiddleware(ctx, rps, burst, createTestLogger()))
	router.POST("/v1/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doRequest(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	router := newRateLimitedRouter(t, 10.0, 20, newTestSession())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/v1/identities", "").Code)
	}
}

func TestRateLimitMiddleware_BlocksRequestsExceedingLimit(t *testing.T) {
	router := newRateLimitedRouter(t, 1.0, 2, newTestSession())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/v1/identities", "").Code)
	}

	w := doRequest(router, http.MethodGet, "/v1/identities", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimitMiddleware_IndependentLimitsPerUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alex := newTestSession()
	sam := newTestSession()
	current := alex

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), current))
		c.Next()
	})
	router.Use(RateLimitMiddleware(ctx, 1.0, 1, createTestLogger()))
	router.GET("/v1/accounts", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/v1/accounts", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, http.MethodGet, "/v1/accounts", "").Code)

	current = sam
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/v1/accounts", "").Code)
}

func TestRateLimitMiddleware_RequiresSession(t *testing.T) {
	router := newRateLimitedRouter(t, 10.0, 20, nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, http.MethodGet, "/v1/identities", "").Code)
}

func TestLoginRateLimitMiddleware_BlocksPerIP(t *testing.T) {
	router := newLoginRouter(t, 1.0, 1)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/v1/auth/login", "192.168.1.100:12345").Code)

	// Different port, same IP
	w := doRequest(router, http.MethodPost, "/v1/auth/login", "192.168.1.100:12346")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many login attempts from this IP")

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/v1/auth/login", "192.168.1.101:12345").Code)
}

func doForwardedRequest(router *gin.Engine, remoteAddr, forwardedFor string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.Header.Set("X-Real-IP", forwardedFor)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestLoginRateLimitMiddleware_ForwardedHeaders(t *testing.T) {
	t.Run("spoofed headers from an untrusted peer share one bucket", func(t *testing.T) {
		router := newLoginRouter(t, 0.001, 1)

		codes := []int{
			doForwardedRequest(router, "203.0.113.7:40000", "10.0.0.1"),
			doForwardedRequest(router, "203.0.113.7:40001", "10.0.0.2"),
			doForwardedRequest(router, "203.0.113.7:40002", "10.0.0.3"),
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	})

	t.Run("trusted proxy forwards distinct clients", func(t *testing.T) {
		router := newLoginRouter(t, 0.001, 1, "203.0.113.0/24")

		assert.Equal(t, http.StatusOK, doForwardedRequest(router, "203.0.113.7:40000", "198.51.100.1"))
		assert.Equal(t, http.StatusOK, doForwardedRequest(router, "203.0.113.7:40001", "198.51.100.2"))
		assert.Equal(t, http.StatusTooManyRequests, doForwardedRequest(router, "203.0.113.7:40002", "198.51.100.1"))
	})
}

func TestLoginRateLimitMiddleware_BurstCapacity(t *testing.T) {
	tests := []struct {
		name              string
		rps               float64
		burst             int
		requestsToSend    int
		expectedSuccesses int
	}{
		{name: "conservative", rps: 3.0, burst: 5, requestsToSend: 10, expectedSuccesses: 5},
		{name: "permissive", rps: 10.0, burst: 20, requestsToSend: 25, expectedSuccesses: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newLoginRouter(t, tt.rps, tt.burst)

			successes := 0
			for i := 0; i < tt.requestsToSend; i++ {
				if doRequest(router, http.MethodPost, "/v1/auth/login", "192.168.1.50:12345").Code == http.StatusOK {
					successes++
				}
			}
			assert.Equal(t, tt.expectedSuccesses, successes)
		})
	}
}

func TestLimiterStore_RemoveIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newLimiterStore(ctx, 10.0, 20)
	now := time.Now()
	store.now = func() time.Time { return now }

	first := store.getLimiter("192.168.1.100")
	assert.Same(t, first, store.getLimiter("192.168.1.100"))

	store.now = func() time.Time { return now.Add(2 * time.Hour) }
	store.getLimiter("192.168.1.101")

	removed := store.removeIdle(now.Add(time.Hour))
	assert.Equal(t, 1, removed)

	_, ok := store.limiters.Load("192.168.1.100")
	assert.False(t, ok)
	_, ok = store.limiters.Load("192.168.1.101")
	assert.True(t, ok)
}

func TestLimiterStore_CleanupStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	newLimiterStore(ctx, 1.0, 1)
	cancel()

	// Give the sweeper a moment to observe cancellation.
	time.Sleep(50 * time.Millisecond)
}
