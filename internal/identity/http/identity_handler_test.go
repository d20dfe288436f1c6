package http

import (
	"bytes"
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
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
	"github.com/signmeup/signmeup/internal/identity/http/dto"
	"github.com/signmeup/signmeup/internal/identity/usecase/mocks"
	userDomain "github.com/signmeup/signmeup/internal/user/domain"
)

func setupIdentityHandler(t *testing.T) (*IdentityHandler, *mocks.MockIdentityUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockIdentityUseCase{}
	return NewIdentityHandler(mockUseCase, slog.New(slog.NewTextHandler(io.Discard, nil))), mockUseCase
}

// newAuthedContext builds a gin context for an authenticated user.
func newAuthedContext(method, path string, body any, user *userDomain.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	if user != nil {
		ctx := authHTTP.WithSession(c.Request.Context(), &authDomain.Session{TokenHash: "hash", User: user})
		c.Request = c.Request.WithContext(ctx)
	}
	return c, w
}

func newUser() *userDomain.User {
	return &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "alex", IsActive: true}
}

func strPtr(s string) *string { return &s }

func newDecryptedIdentity(userID uuid.UUID) *identityDomain.DecryptedIdentity {
	now := time.Now().UTC()
	return &identityDomain.DecryptedIdentity{
		Identity: &identityDomain.Identity{
			ID:                 uuid.Must(uuid.NewV7()),
			UserID:             userID,
			Name:               "Personal",
			EncryptedFirstName: "AQEA-first",
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		Profile: identityDomain.Profile{
			FirstName: "Alex",
			LastName:  "Smith",
			Email:     "alex.smith@example.com",
			City:      strPtr("San Francisco"),
		},
	}
}

func TestIdentityHandler_CreateHandler(t *testing.T) {
	request := dto.CreateIdentityRequest{
		Name:      "Personal",
		FirstName: "Alex",
		LastName:  "Smith",
		Email:     "alex.smith@example.com",
		City:      strPtr("San Francisco"),
	}

	t.Run("created", func(t *testing.T) {
		handler, mockUseCase := setupIdentityHandler(t)
		user := newUser()
		created := newDecryptedIdentity(user.ID)

		mockUseCase.On("Create", mock.Anything, user.ID, request.ToCreateIdentityInput()).Return(created, nil).Once()

		c, w := newAuthedContext(http.MethodPost, "/v1/identities", request, user)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.IdentityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, created.ID.String(), response.ID)
		assert.Equal(t, "Alex", response.FirstName)
		assert.Equal(t, "San Francisco", *response.City)
		assert.NotContains(t, w.Body.String(), "AQEA-first")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("missing email", func(t *testing.T) {
		handler, mockUseCase := setupIdentityHandler(t)
		invalid := request
		invalid.Email = ""

		c, w := newAuthedContext(http.MethodPost, "/v1/identities", invalid, newUser())
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler, _ := setupIdentityHandler(t)

		c, w := newAuthedContext(http.MethodPost, "/v1/identities", request, nil)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIdentityHandler_ListHandler(t *testing.T) {
	t.Run("summaries only", func(t *testing.T) {
		handler, mockUseCase := setupIdentityHandler(t)
		user := newUser()
		stored := newDecryptedIdentity(user.ID).Identity

		mockUseCase.On("List", mock.Anything, user.ID, 0, 10).Return([]*identityDomain.Identity{stored}, nil).Once()

		c, w := newAuthedContext(http.MethodGet, "/v1/identities?limit=10", nil, user)
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListIdentitiesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, "Personal", response.Data[0].Name)
		assert.NotContains(t, w.Body.String(), "first_name")
	})

	t.Run("bad pagination", func(t *testing.T) {
		handler, _ := setupIdentityHandler(t)

		c, w := newAuthedContext(http.MethodGet, "/v1/identities?limit=500", nil, newUser())
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestIdentityHandler_GetHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		handler, mockUseCase := setupIdentityHandler(t)
		user := newUser()
		identity := newDecryptedIdentity(user.ID)

		mockUseCase.On("Get", mock.Anything, user.ID, identity.ID).Return(identity, nil).Once()

		c, w := newAuthedContext(http.MethodGet, "/v1/identities/"+identity.ID.String(), nil, user)
		c.Params = gin.Params{{Key: "id", Value: identity.ID.String()}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"alex.smith@example.com"`)
	})

	t.Run("another user's identity", func(t *testing.T) {
		handler, mockUseCase := setupIdentityHandler(t)
		user := newUser()
		id := uuid.Must(uuid.NewV7())

		mockUseCase.On("Get", mock.Anything, user.ID, id).Return(nil, identityDomain.ErrIdentityNotFound).Once()

		c, w := newAuthedContext(http.MethodGet, "/v1/identities/"+id.String(), nil, user)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		handler, _ := setupIdentityHandler(t)

		c, w := newAuthedContext(http.MethodGet, "/v1/identities/abc", nil, newUser())
		c.Params = gin.Params{{Key: "id", Value: "abc"}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestIdentityHandler_UpdateHandler(t *testing.T) {
	handler, mockUseCase := setupIdentityHandler(t)
	user := newUser()
	identity := newDecryptedIdentity(user.ID)
	request := dto.UpdateIdentityRequest{City: strPtr("")}

	mockUseCase.On("Update", mock.Anything, user.ID, identity.ID, request.ToUpdateIdentityInput()).
		Return(identity, nil).Once()

	c, w := newAuthedContext(http.MethodPut, "/v1/identities/"+identity.ID.String(), request, user)
	c.Params = gin.Params{{Key: "id", Value: identity.ID.String()}}
	handler.UpdateHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestIdentityHandler_DeleteHandler(t *testing.T) {
	handler, mockUseCase := setupIdentityHandler(t)
	user := newUser()
	id := uuid.Must(uuid.NewV7())

	mockUseCase.On("Delete", mock.Anything, user.ID, id).Return(nil).Once()

	c, w := newAuthedContext(http.MethodDelete, "/v1/identities/"+id.String(), nil, user)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	handler.DeleteHandler(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockUseCase.AssertExpectations(t)
}
