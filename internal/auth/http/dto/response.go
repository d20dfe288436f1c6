package dto

import (
	"time"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
)

// LoginResponse is returned once per login.
// SECURITY: the access token is never stored in plain form and cannot be recovered later.
type LoginResponse struct {
	AccessToken string    `json:"access_token"` //nolint:gosec // returned once on login
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MapLoginOutputToResponse converts the login output to an API response.
func MapLoginOutputToResponse(output *authDomain.LoginOutput) LoginResponse {
	return LoginResponse{
		AccessToken: output.PlainToken,
		TokenType:   output.TokenType,
		ExpiresAt:   output.ExpiresAt,
	}
}
