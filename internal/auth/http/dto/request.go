// Package dto provides data transfer objects for the auth HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	customValidation "github.com/signmeup/signmeup/internal/validation"
)

// LoginRequest contains the credentials for POST /v1/auth/login.
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`   //nolint:gosec // request field
	MasterKey string `json:"master_key"` //nolint:gosec // request field
}

// Validate checks that all credentials are present. Credential correctness is
// checked by the use case so that every failure looks the same.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Email,
		),
		validation.Field(&r.Password,
			validation.Required,
		),
		validation.Field(&r.MasterKey,
			validation.Required,
		),
	)
}

// ToLoginInput converts the request to the use case input.
func (r *LoginRequest) ToLoginInput() *authDomain.LoginInput {
	return &authDomain.LoginInput{
		Email:     r.Email,
		Password:  r.Password,
		MasterKey: r.MasterKey,
	}
}
