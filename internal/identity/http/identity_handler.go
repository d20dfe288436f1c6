// Package http provides HTTP handlers for identity management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/httputil"
	"github.com/signmeup/signmeup/internal/identity/http/dto"
	identityUseCase "github.com/signmeup/signmeup/internal/identity/usecase"
	customValidation "github.com/signmeup/signmeup/internal/validation"
)

// IdentityHandler handles identity HTTP requests. Every route requires an authenticated session.
type IdentityHandler struct {
	identityUseCase identityUseCase.IdentityUseCase
	logger          *slog.Logger
}

// NewIdentityHandler creates a new IdentityHandler.
func NewIdentityHandler(identityUseCase identityUseCase.IdentityUseCase, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		identityUseCase: identityUseCase,
		logger:          logger,
	}
}

// CreateHandler creates an identity.
// POST /v1/identities - Returns 201 Created with the decrypted identity.
func (h *IdentityHandler) CreateHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.CreateIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	identity, err := h.identityUseCase.Create(c.Request.Context(), userID, req.ToCreateIdentityInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIdentityToResponse(identity))
}

// ListHandler lists identity summaries.
// GET /v1/identities?offset=0&limit=50
func (h *IdentityHandler) ListHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	identities, err := h.identityUseCase.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIdentitiesToListResponse(identities))
}

// GetHandler returns a decrypted identity.
// GET /v1/identities/:id
func (h *IdentityHandler) GetHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	identityID, ok := h.identityID(c)
	if !ok {
		return
	}

	identity, err := h.identityUseCase.Get(c.Request.Context(), userID, identityID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIdentityToResponse(identity))
}

// UpdateHandler applies a partial update.
// PUT /v1/identities/:id - Returns 200 OK with the decrypted identity.
func (h *IdentityHandler) UpdateHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	identityID, ok := h.identityID(c)
	if !ok {
		return
	}

	var req dto.UpdateIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	identity, err := h.identityUseCase.Update(c.Request.Context(), userID, identityID, req.ToUpdateIdentityInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIdentityToResponse(identity))
}

// DeleteHandler deletes an identity and its accounts.
// DELETE /v1/identities/:id - Returns 204 No Content.
func (h *IdentityHandler) DeleteHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	identityID, ok := h.identityID(c)
	if !ok {
		return
	}

	if err := h.identityUseCase.Delete(c.Request.Context(), userID, identityID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

func (h *IdentityHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	session, ok := authHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return session.User.ID, true
}

func (h *IdentityHandler) identityID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid identity ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return id, true
}
