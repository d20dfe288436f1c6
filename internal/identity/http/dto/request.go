// Package dto provides data transfer objects for the identity HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
	customValidation "github.com/signmeup/signmeup/internal/validation"
)

// Plaintext caps for sealed profile fields. Tokens grow by roughly a third once
// encrypted and encoded, so these keep every column well inside a MySQL TEXT.
const (
	maxNameLength        = 100
	maxEmailLength       = 254
	maxPhoneLength       = 50
	maxDateLength        = 32
	maxAddressLength     = 200
	maxPlaceLength       = 100
	maxZipCodeLength     = 20
	maxDescriptionLength = 2000
	maxBioLength         = 5000
	maxJSONFieldBytes    = 16 * 1024
)

// CreateIdentityRequest is the body of POST /v1/identities.
type CreateIdentityRequest struct {
	Name                     string         `json:"name"`
	Description              string         `json:"description"`
	FirstName                string         `json:"first_name"`
	LastName                 string         `json:"last_name"`
	Email                    string         `json:"email"`
	Phone                    *string        `json:"phone"`
	DateOfBirth              *string        `json:"date_of_birth"`
	AddressLine1             *string        `json:"address_line1"`
	AddressLine2             *string        `json:"address_line2"`
	City                     *string        `json:"city"`
	State                    *string        `json:"state"`
	ZipCode                  *string        `json:"zip_code"`
	Country                  *string        `json:"country"`
	Profession               *string        `json:"profession"`
	Company                  *string        `json:"company"`
	Bio                      *string        `json:"bio"`
	CustomFields             map[string]any `json:"custom_fields"`
	PreferredUsernamePattern string         `json:"preferred_username_pattern"`
	PasswordPreferences      map[string]any `json:"password_preferences"`
}

// Validate checks the create request.
func (r *CreateIdentityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 200),
		),
		validation.Field(&r.Description, validation.Length(0, maxDescriptionLength)),
		validation.Field(&r.FirstName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, maxNameLength),
		),
		validation.Field(&r.LastName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, maxNameLength),
		),
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, maxEmailLength),
			customValidation.Email,
		),
		validation.Field(&r.Phone, validation.Length(0, maxPhoneLength)),
		validation.Field(&r.DateOfBirth, validation.Length(0, maxDateLength)),
		validation.Field(&r.AddressLine1, validation.Length(0, maxAddressLength)),
		validation.Field(&r.AddressLine2, validation.Length(0, maxAddressLength)),
		validation.Field(&r.City, validation.Length(0, maxPlaceLength)),
		validation.Field(&r.State, validation.Length(0, maxPlaceLength)),
		validation.Field(&r.ZipCode, validation.Length(0, maxZipCodeLength)),
		validation.Field(&r.Country, validation.Length(0, maxPlaceLength)),
		validation.Field(&r.Profession, validation.Length(0, maxAddressLength)),
		validation.Field(&r.Company, validation.Length(0, maxAddressLength)),
		validation.Field(&r.Bio, validation.Length(0, maxBioLength)),
		validation.Field(&r.CustomFields, customValidation.MaxJSONSize(maxJSONFieldBytes)),
		validation.Field(&r.PreferredUsernamePattern, validation.Length(0, 100)),
		validation.Field(&r.PasswordPreferences, customValidation.MaxJSONSize(maxJSONFieldBytes)),
	)
}

// ToCreateIdentityInput converts the request to the use case input.
func (r *CreateIdentityRequest) ToCreateIdentityInput() *identityDomain.CreateIdentityInput {
	return &identityDomain.CreateIdentityInput{
		Name:        r.Name,
		Description: r.Description,
		Profile: identityDomain.Profile{
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			Email:        r.Email,
			Phone:        r.Phone,
			DateOfBirth:  r.DateOfBirth,
			AddressLine1: r.AddressLine1,
			AddressLine2: r.AddressLine2,
			City:         r.City,
			State:        r.State,
			ZipCode:      r.ZipCode,
			Country:      r.Country,
			Profession:   r.Profession,
			Company:      r.Company,
			Bio:          r.Bio,
			CustomFields: r.CustomFields,
		},
		PreferredUsernamePattern: r.PreferredUsernamePattern,
		PasswordPreferences:      r.PasswordPreferences,
	}
}

// UpdateIdentityRequest is the body of PUT /v1/identities/:id. Omitted fields are left
// untouched; an empty string clears an optional field.
type UpdateIdentityRequest struct {
	Name                     *string        `json:"name"`
	Description              *string        `json:"description"`
	FirstName                *string        `json:"first_name"`
	LastName                 *string        `json:"last_name"`
	Email                    *string        `json:"email"`
	Phone                    *string        `json:"phone"`
	DateOfBirth              *string        `json:"date_of_birth"`
	AddressLine1             *string        `json:"address_line1"`
	AddressLine2             *string        `json:"address_line2"`
	City                     *string        `json:"city"`
	State                    *string        `json:"state"`
	ZipCode                  *string        `json:"zip_code"`
	Country                  *string        `json:"country"`
	Profession               *string        `json:"profession"`
	Company                  *string        `json:"company"`
	Bio                      *string        `json:"bio"`
	CustomFields             map[string]any `json:"custom_fields"`
	PreferredUsernamePattern *string        `json:"preferred_username_pattern"`
	PasswordPreferences      map[string]any `json:"password_preferences"`
}

// Validate checks the update request. Required fields may be omitted but not cleared.
func (r *UpdateIdentityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.NilOrNotEmpty,
			customValidation.NotBlank,
			validation.Length(1, 200),
		),
		validation.Field(&r.Description, validation.Length(0, maxDescriptionLength)),
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, maxNameLength)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(1, maxNameLength)),
		validation.Field(&r.Email,
			validation.NilOrNotEmpty,
			validation.Length(1, maxEmailLength),
			customValidation.Email,
		),
		validation.Field(&r.Phone, validation.Length(0, maxPhoneLength)),
		validation.Field(&r.DateOfBirth, validation.Length(0, maxDateLength)),
		validation.Field(&r.AddressLine1, validation.Length(0, maxAddressLength)),
		validation.Field(&r.AddressLine2, validation.Length(0, maxAddressLength)),
		validation.Field(&r.City, validation.Length(0, maxPlaceLength)),
		validation.Field(&r.State, validation.Length(0, maxPlaceLength)),
		validation.Field(&r.ZipCode, validation.Length(0, maxZipCodeLength)),
		validation.Field(&r.Country, validation.Length(0, maxPlaceLength)),
		validation.Field(&r.Profession, validation.Length(0, maxAddressLength)),
		validation.Field(&r.Company, validation.Length(0, maxAddressLength)),
		validation.Field(&r.Bio, validation.Length(0, maxBioLength)),
		validation.Field(&r.CustomFields, customValidation.MaxJSONSize(maxJSONFieldBytes)),
		validation.Field(&r.PreferredUsernamePattern, validation.Length(0, 100)),
		validation.Field(&r.PasswordPreferences, customValidation.MaxJSONSize(maxJSONFieldBytes)),
	)
}

// ToUpdateIdentityInput converts the request to the use case input.
func (r *UpdateIdentityRequest) ToUpdateIdentityInput() *identityDomain.UpdateIdentityInput {
	return &identityDomain.UpdateIdentityInput{
		Name:                     r.Name,
		Description:              r.Description,
		FirstName:                r.FirstName,
		LastName:                 r.LastName,
		Email:                    r.Email,
		Phone:                    r.Phone,
		DateOfBirth:              r.DateOfBirth,
		AddressLine1:             r.AddressLine1,
		AddressLine2:             r.AddressLine2,
		City:                     r.City,
		State:                    r.State,
		ZipCode:                  r.ZipCode,
		Country:                  r.Country,
		Profession:               r.Profession,
		Company:                  r.Company,
		Bio:                      r.Bio,
		CustomFields:             r.CustomFields,
		PreferredUsernamePattern: r.PreferredUsernamePattern,
		PasswordPreferences:      r.PasswordPreferences,
	}
}
