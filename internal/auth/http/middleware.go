package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/signmeup/signmeup/internal/auth/service"
	authUseCase "github.com/signmeup/signmeup/internal/auth/usecase"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/httputil"
)

// AuthenticationMiddleware resolves a Bearer token to a live session.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Hashes the token using tokenService.HashToken()
// 3. Resolves the session using tokenUseCase.Authenticate()
// 4. Stores the session and its field cipher in the request context
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Unknown, expired or revoked token → 401 Unauthorized
//   - Token whose session was dropped (process restart, master key rotation) → 401 Unauthorized
//   - Inactive user → 403 Forbidden
//   - Other errors → 500 Internal Server Error
//
// Usage:
//
//	router.Use(AuthenticationMiddleware(tokenUseCase, tokenService, logger))
//	router.GET("/protected", func(c *gin.Context) {
//	    session, _ := GetSession(c.Request.Context())
//	    // session.User, and cryptoService.FieldCipherFromContext works
//	})
func AuthenticationMiddleware(
	tokenUseCase authUseCase.TokenUseCase,
	tokenService authService.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive). The header value is never logged.
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		tokenHash := tokenService.HashToken(plainToken)

		session, err := tokenUseCase.Authenticate(c.Request.Context(), tokenHash)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithSession(c.Request.Context(), session)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful", slog.String("user_id", session.User.ID.String()))

		c.Next()
	}
}
