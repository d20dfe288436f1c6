// Package domain defines accounts: per-website credentials that belong to an identity.
package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/errors"
)

// Signup methods.
const (
	SignupMethodManual    = "manual"
	SignupMethodAutomated = "automated"
)

// Account is an account as stored. Encrypted* fields hold field tokens, "" when unset.
// Website fields stay plaintext so accounts can be searched by domain.
type Account struct {
	ID                         uuid.UUID
	UserID                     uuid.UUID
	IdentityID                 uuid.UUID
	WebsiteName                string
	WebsiteURL                 string
	WebsiteDomain              string
	EncryptedUsername          string
	EncryptedEmail             string
	EncryptedPassword          string
	EncryptedSecurityQuestions string
	EncryptedNotes             string
	IsActive                   bool
	IsVerified                 bool
	SignupCompleted            bool
	AccountType                string
	SignupMethod               string
	SignupAttempts             int
	LastSignupAttempt          *time.Time
	LastAccessed               *time.Time
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// EncryptedFields returns pointers to every encrypted column keyed by field name.
func (a *Account) EncryptedFields() map[string]*string {
	return map[string]*string{
		"username":           &a.EncryptedUsername,
		"email":              &a.EncryptedEmail,
		"password":           &a.EncryptedPassword,
		"security_questions": &a.EncryptedSecurityQuestions,
		"notes":              &a.EncryptedNotes,
	}
}

// SecurityQuestion is one question and answer pair. The list is sealed as a single JSON value.
type SecurityQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Credentials is the decrypted part of an account. Unreadable fields are nil.
type Credentials struct {
	Username          *string
	Email             *string
	Password          *string
	SecurityQuestions []SecurityQuestion
	Notes             *string
}

// DecryptedAccount pairs the stored account with its decrypted credentials.
type DecryptedAccount struct {
	*Account
	Credentials Credentials
}

// CreateAccountInput carries a new account. WebsiteDomain is derived from WebsiteURL when empty.
type CreateAccountInput struct {
	IdentityID    uuid.UUID
	WebsiteName   string
	WebsiteURL    string
	WebsiteDomain string
	AccountType   string
	SignupMethod  string
	IsVerified    bool
	Credentials   Credentials
}

// UpdateAccountInput is a partial update. A nil SecurityQuestions leaves them untouched
// and an empty slice clears them.
type UpdateAccountInput struct {
	WebsiteName       *string
	WebsiteURL        *string
	WebsiteDomain     *string
	Username          *string
	Email             *string
	Password          *string
	SecurityQuestions *[]SecurityQuestion
	Notes             *string
	IsActive          *bool
	IsVerified        *bool
	SignupCompleted   *bool
	AccountType       *string
	SignupMethod      *string
}

// ListAccountsFilter narrows an account listing.
type ListAccountsFilter struct {
	IdentityID *uuid.UUID
	Domain     string
	Offset     int
	Limit      int
}

// DomainFromURL returns the lowercased host of rawURL without a leading "www.".
func DomainFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return "", ErrInvalidWebsiteURL
	}
	return NormalizeDomain(u.Hostname()), nil
}

// NormalizeDomain lowercases a domain and strips a leading "www.".
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(domain, "www.")
}

var (
	// ErrAccountNotFound is returned for missing accounts and for accounts owned by another user.
	ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "account not found")

	// ErrInvalidWebsiteURL indicates a website URL without a host.
	ErrInvalidWebsiteURL = errors.Wrap(errors.ErrInvalidInput, "invalid website url")
)
