// Package domain defines identities: personal-data profiles a user fills signup forms with.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/errors"
)

// Identity is an identity as stored. Encrypted* fields hold field tokens; an empty
// string means the value was never set. Name, Description and the preferences are
// plaintext so identities can be listed without a master key.
type Identity struct {
	ID                       uuid.UUID
	UserID                   uuid.UUID
	Name                     string
	Description              string
	EncryptedFirstName       string
	EncryptedLastName        string
	EncryptedEmail           string
	EncryptedPhone           string
	EncryptedDateOfBirth     string
	EncryptedAddressLine1    string
	EncryptedAddressLine2    string
	EncryptedCity            string
	EncryptedState           string
	EncryptedZipCode         string
	EncryptedCountry         string
	EncryptedProfession      string
	EncryptedCompany         string
	EncryptedBio             string
	EncryptedCustomFields    string
	PreferredUsernamePattern string
	PasswordPreferences      map[string]any
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// EncryptedFields returns pointers to every encrypted column keyed by field name.
// Key rotation walks this map so a new column cannot be forgotten.
func (i *Identity) EncryptedFields() map[string]*string {
	return map[string]*string{
		"first_name":    &i.EncryptedFirstName,
		"last_name":     &i.EncryptedLastName,
		"email":         &i.EncryptedEmail,
		"phone":         &i.EncryptedPhone,
		"date_of_birth": &i.EncryptedDateOfBirth,
		"address_line1": &i.EncryptedAddressLine1,
		"address_line2": &i.EncryptedAddressLine2,
		"city":          &i.EncryptedCity,
		"state":         &i.EncryptedState,
		"zip_code":      &i.EncryptedZipCode,
		"country":       &i.EncryptedCountry,
		"profession":    &i.EncryptedProfession,
		"company":       &i.EncryptedCompany,
		"bio":           &i.EncryptedBio,
		"custom_fields": &i.EncryptedCustomFields,
	}
}

// Profile is the decrypted personal data of an identity. Required fields decrypt to ""
// when unreadable; optional ones to nil.
type Profile struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	DateOfBirth  *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	ZipCode      *string
	Country      *string
	Profession   *string
	Company      *string
	Bio          *string
	CustomFields map[string]any
}

// DecryptedIdentity pairs the stored identity with its decrypted profile.
type DecryptedIdentity struct {
	*Identity
	Profile Profile
}

// CreateIdentityInput carries the plaintext of a new identity.
type CreateIdentityInput struct {
	Name                     string
	Description              string
	Profile                  Profile
	PreferredUsernamePattern string
	PasswordPreferences      map[string]any
}

// UpdateIdentityInput is a partial update: nil fields are left untouched and an empty
// string clears an optional field.
type UpdateIdentityInput struct {
	Name                     *string
	Description              *string
	FirstName                *string
	LastName                 *string
	Email                    *string
	Phone                    *string
	DateOfBirth              *string
	AddressLine1             *string
	AddressLine2             *string
	City                     *string
	State                    *string
	ZipCode                  *string
	Country                  *string
	Profession               *string
	Company                  *string
	Bio                      *string
	CustomFields             map[string]any
	PreferredUsernamePattern *string
	PasswordPreferences      map[string]any
}

// ErrIdentityNotFound is returned for missing identities and for identities owned by another user.
var ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "identity not found")
