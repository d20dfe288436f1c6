package dto

import (
	"time"

	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
)

// IdentitySummaryResponse is a list entry. It carries no decrypted data.
type IdentitySummaryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListIdentitiesResponse is a page of identity summaries.
type ListIdentitiesResponse struct {
	Data []IdentitySummaryResponse `json:"data"`
}

// IdentityResponse is a single decrypted identity.
type IdentityResponse struct {
	ID                       string         `json:"id"`
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
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

// MapIdentityToResponse converts a decrypted identity to an API response.
func MapIdentityToResponse(identity *identityDomain.DecryptedIdentity) IdentityResponse {
	p := identity.Profile
	return IdentityResponse{
		ID:                       identity.ID.String(),
		Name:                     identity.Name,
		Description:              identity.Description,
		FirstName:                p.FirstName,
		LastName:                 p.LastName,
		Email:                    p.Email,
		Phone:                    p.Phone,
		DateOfBirth:              p.DateOfBirth,
		AddressLine1:             p.AddressLine1,
		AddressLine2:             p.AddressLine2,
		City:                     p.City,
		State:                    p.State,
		ZipCode:                  p.ZipCode,
		Country:                  p.Country,
		Profession:               p.Profession,
		Company:                  p.Company,
		Bio:                      p.Bio,
		CustomFields:             p.CustomFields,
		PreferredUsernamePattern: identity.PreferredUsernamePattern,
		PasswordPreferences:      identity.PasswordPreferences,
		CreatedAt:                identity.CreatedAt,
		UpdatedAt:                identity.UpdatedAt,
	}
}

// MapIdentitiesToListResponse converts stored identities to summaries.
func MapIdentitiesToListResponse(identities []*identityDomain.Identity) ListIdentitiesResponse {
	data := make([]IdentitySummaryResponse, 0, len(identities))
	for _, identity := range identities {
		data = append(data, IdentitySummaryResponse{
			ID:          identity.ID.String(),
			Name:        identity.Name,
			Description: identity.Description,
			CreatedAt:   identity.CreatedAt,
		})
	}
	return ListIdentitiesResponse{Data: data}
}
