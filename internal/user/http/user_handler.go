// Package http provides HTTP handlers for user registration and profile lookup.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/httputil"
	"github.com/signmeup/signmeup/internal/user/domain"
	"github.com/signmeup/signmeup/internal/user/http/dto"
	"github.com/signmeup/signmeup/internal/user/usecase"
)

// Registrar is the subset of the user use case the handler needs.
type Registrar interface {
	RegisterUser(ctx context.Context, input usecase.RegisterUserInput) (*domain.User, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userUseCase Registrar
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userUseCase Registrar, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// RegisterHandler creates a new user.
// POST /v1/auth/register - Returns 201 Created with the user.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.RegisterUser(c.Request.Context(), dto.ToRegisterUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("user registered", slog.String("user_id", user.ID.String()))

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// MeHandler returns the authenticated user.
// GET /v1/auth/me - Requires authentication.
func (h *UserHandler) MeHandler(c *gin.Context) {
	session, ok := authHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(session.User))
}
