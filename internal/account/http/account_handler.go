// Package http provides HTTP handlers for account management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	"github.com/signmeup/signmeup/internal/account/http/dto"
	accountUseCase "github.com/signmeup/signmeup/internal/account/usecase"
	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/httputil"
	customValidation "github.com/signmeup/signmeup/internal/validation"
)

// AccountHandler handles account HTTP requests. Every route requires an authenticated session.
type AccountHandler struct {
	accountUseCase accountUseCase.AccountUseCase
	logger         *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUseCase accountUseCase.AccountUseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		logger:         logger,
	}
}

// CreateHandler creates an account under one of the user's identities.
// POST /v1/accounts - Returns 201 Created with the decrypted account.
func (h *AccountHandler) CreateHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	account, err := h.accountUseCase.Create(c.Request.Context(), userID, req.ToCreateAccountInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAccountToResponse(account))
}

// ListHandler lists account summaries.
// GET /v1/accounts?identity_id=&domain=&offset=0&limit=50
func (h *AccountHandler) ListHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := accountDomain.ListAccountsFilter{
		Domain: c.Query("domain"),
		Offset: offset,
		Limit:  limit,
	}
	if raw := c.Query("identity_id"); raw != "" {
		identityID, err := uuid.Parse(raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid identity_id parameter: must be a valid UUID"),
				h.logger)
			return
		}
		filter.IdentityID = &identityID
	}

	accounts, err := h.accountUseCase.List(c.Request.Context(), userID, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountsToListResponse(accounts))
}

// GetHandler returns a decrypted account.
// GET /v1/accounts/:id
func (h *AccountHandler) GetHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	account, err := h.accountUseCase.Get(c.Request.Context(), userID, accountID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToResponse(account))
}

// UpdateHandler applies a partial update.
// PUT /v1/accounts/:id
func (h *AccountHandler) UpdateHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	account, err := h.accountUseCase.Update(c.Request.Context(), userID, accountID, req.ToUpdateAccountInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToResponse(account))
}

// DeleteHandler deletes an account.
// DELETE /v1/accounts/:id - Returns 204 No Content.
func (h *AccountHandler) DeleteHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	if err := h.accountUseCase.Delete(c.Request.Context(), userID, accountID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

func (h *AccountHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	session, ok := authHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return session.User.ID, true
}

func (h *AccountHandler) accountID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid account ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return id, true
}
