package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	"github.com/signmeup/signmeup/internal/user/domain"
	"github.com/signmeup/signmeup/internal/user/http/dto"
	"github.com/signmeup/signmeup/internal/user/usecase"
	apperrors "github.com/signmeup/signmeup/internal/errors"
)

type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) RegisterUser(ctx context.Context, input usecase.RegisterUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestHandler() (*UserHandler, *mockRegistrar) {
	gin.SetMode(gin.TestMode)
	registrar := &mockRegistrar{}
	return NewUserHandler(registrar, slog.New(slog.NewTextHandler(io.Discard, nil))), registrar
}

func newJSONContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	payload, _ := json.Marshal(body)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func newUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:              uuid.Must(uuid.NewV7()),
		Username:        "alex",
		Email:           "alex@example.com",
		PasswordHash:    "$argon2id$password",
		MasterKeyHash:   "$argon2id$master",
		MasterKeyCanary: "AQEA-canary",
		FirstName:       "Alex",
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestUserHandler_RegisterHandler(t *testing.T) {
	request := dto.RegisterUserRequest{
		Username:  "alex",
		Email:     "alex@example.com",
		Password:  "Str0ng!Passw0rd",
		MasterKey: "demo_master_key_123",
		FirstName: "Alex",
	}

	t.Run("created", func(t *testing.T) {
		handler, registrar := newTestHandler()
		user := newUser()
		registrar.On("RegisterUser", mock.Anything, dto.ToRegisterUserInput(request)).Return(user, nil).Once()

		c, w := newJSONContext(http.MethodPost, "/v1/auth/register", request)
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, user.ID, response.ID)
		assert.Equal(t, "alex", response.Username)

		body := w.Body.String()
		assert.NotContains(t, body, "argon2id")
		assert.NotContains(t, body, "canary")
		assert.NotContains(t, body, "demo_master_key_123")
		registrar.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		handler, registrar := newTestHandler()
		registrar.On("RegisterUser", mock.Anything, mock.Anything).Return(nil, domain.ErrUserAlreadyExists).Once()

		c, w := newJSONContext(http.MethodPost, "/v1/auth/register", request)
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid input", func(t *testing.T) {
		handler, registrar := newTestHandler()
		registrar.On("RegisterUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidInput, "master_key: too short")).Once()

		c, w := newJSONContext(http.MethodPost, "/v1/auth/register", request)
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUserHandler_MeHandler(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		handler, _ := newTestHandler()
		user := newUser()

		c, w := newJSONContext(http.MethodGet, "/v1/auth/me", nil)
		ctx := authHTTP.WithSession(c.Request.Context(), &authDomain.Session{TokenHash: "hash", User: user})
		c.Request = c.Request.WithContext(ctx)
		handler.MeHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.ID.String())
	})

	t.Run("no session", func(t *testing.T) {
		handler, _ := newTestHandler()

		c, w := newJSONContext(http.MethodGet, "/v1/auth/me", nil)
		handler.MeHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
