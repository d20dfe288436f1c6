package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signmeup/signmeup/internal/user/domain"
)

func TestToUserResponse_HidesSecrets(t *testing.T) {
	user := &domain.User{
		ID:              uuid.Must(uuid.NewV7()),
		Username:        "alex",
		Email:           "alex@example.com",
		PasswordHash:    "password-hash",
		MasterKeyHash:   "master-hash",
		MasterKeyCanary: "canary-token",
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}

	body, err := json.Marshal(ToUserResponse(user))
	require.NoError(t, err)

	assert.Contains(t, string(body), `"username":"alex"`)
	assert.NotContains(t, string(body), "password-hash")
	assert.NotContains(t, string(body), "master-hash")
	assert.NotContains(t, string(body), "canary-token")
	assert.NotContains(t, string(body), "last_login_at")
}

func TestToRegisterUserInput(t *testing.T) {
	input := ToRegisterUserInput(RegisterUserRequest{
		Username:  "alex",
		Email:     "alex@example.com",
		Password:  "SecurePass123!",
		MasterKey: "demo_master_key_123",
	})

	assert.Equal(t, "alex", input.Username)
	assert.Equal(t, "demo_master_key_123", input.MasterKey)
}
