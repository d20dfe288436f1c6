package dto

import (
	"time"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
)

// AccountSummaryResponse is a list entry. It carries no decrypted data.
type AccountSummaryResponse struct {
	ID              string     `json:"id"`
	IdentityID      string     `json:"identity_id"`
	WebsiteName     string     `json:"website_name"`
	WebsiteURL      string     `json:"website_url"`
	WebsiteDomain   string     `json:"website_domain"`
	IsActive        bool       `json:"is_active"`
	SignupCompleted bool       `json:"signup_completed"`
	LastAccessed    *time.Time `json:"last_accessed"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListAccountsResponse is a page of account summaries.
type ListAccountsResponse struct {
	Data []AccountSummaryResponse `json:"data"`
}

// AccountResponse is a single decrypted account.
type AccountResponse struct {
	ID                string             `json:"id"`
	IdentityID        string             `json:"identity_id"`
	WebsiteName       string             `json:"website_name"`
	WebsiteURL        string             `json:"website_url"`
	WebsiteDomain     string             `json:"website_domain"`
	Username          *string            `json:"username"`
	Email             *string            `json:"email"`
	Password          *string            `json:"password"` //nolint:gosec // decrypted for the owner
	SecurityQuestions []SecurityQuestion `json:"security_questions"`
	Notes             *string            `json:"notes"`
	IsActive          bool               `json:"is_active"`
	IsVerified        bool               `json:"is_verified"`
	SignupCompleted   bool               `json:"signup_completed"`
	AccountType       string             `json:"account_type"`
	SignupMethod      string             `json:"signup_method"`
	SignupAttempts    int                `json:"signup_attempts"`
	LastSignupAttempt *time.Time         `json:"last_signup_attempt"`
	LastAccessed      *time.Time         `json:"last_accessed"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// MapAccountToResponse converts a decrypted account to an API response.
func MapAccountToResponse(account *accountDomain.DecryptedAccount) AccountResponse {
	questions := make([]SecurityQuestion, 0, len(account.Credentials.SecurityQuestions))
	for _, q := range account.Credentials.SecurityQuestions {
		questions = append(questions, SecurityQuestion{Question: q.Question, Answer: q.Answer})
	}

	return AccountResponse{
		ID:                account.ID.String(),
		IdentityID:        account.IdentityID.String(),
		WebsiteName:       account.WebsiteName,
		WebsiteURL:        account.WebsiteURL,
		WebsiteDomain:     account.WebsiteDomain,
		Username:          account.Credentials.Username,
		Email:             account.Credentials.Email,
		Password:          account.Credentials.Password,
		SecurityQuestions: questions,
		Notes:             account.Credentials.Notes,
		IsActive:          account.IsActive,
		IsVerified:        account.IsVerified,
		SignupCompleted:   account.SignupCompleted,
		AccountType:       account.AccountType,
		SignupMethod:      account.SignupMethod,
		SignupAttempts:    account.SignupAttempts,
		LastSignupAttempt: account.LastSignupAttempt,
		LastAccessed:      account.LastAccessed,
		CreatedAt:         account.CreatedAt,
		UpdatedAt:         account.UpdatedAt,
	}
}

// MapAccountsToListResponse converts stored accounts to summaries.
func MapAccountsToListResponse(accounts []*accountDomain.Account) ListAccountsResponse {
	data := make([]AccountSummaryResponse, 0, len(accounts))
	for _, a := range accounts {
		data = append(data, AccountSummaryResponse{
			ID:              a.ID.String(),
			IdentityID:      a.IdentityID.String(),
			WebsiteName:     a.WebsiteName,
			WebsiteURL:      a.WebsiteURL,
			WebsiteDomain:   a.WebsiteDomain,
			IsActive:        a.IsActive,
			SignupCompleted: a.SignupCompleted,
			LastAccessed:    a.LastAccessed,
			CreatedAt:       a.CreatedAt,
		})
	}
	return ListAccountsResponse{Data: data}
}
