// Package dto provides data transfer objects for the account HTTP layer.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	customValidation "github.com/signmeup/signmeup/internal/validation"
)

// Plaintext caps for sealed credential fields.
const (
	maxUsernameLength = 200
	maxEmailLength    = 254
	maxPasswordLength = 1000
	maxNotesLength    = 10000
	maxQuestionLength = 500
	maxQuestions      = 20
)

var signupMethods = []any{accountDomain.SignupMethodManual, accountDomain.SignupMethodAutomated}

// requiredUUID rejects the nil UUID, which Required alone accepts.
var requiredUUID = validation.By(func(value any) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
})

// SecurityQuestion is one question and answer pair.
type SecurityQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"` //nolint:gosec // request field
}

// Validate checks a security question.
func (q SecurityQuestion) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Question,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, maxQuestionLength),
		),
		validation.Field(&q.Answer, validation.Required, validation.Length(1, maxQuestionLength)),
	)
}

// CreateAccountRequest is the body of POST /v1/accounts.
type CreateAccountRequest struct {
	IdentityID        uuid.UUID          `json:"identity_id"`
	WebsiteName       string             `json:"website_name"`
	WebsiteURL        string             `json:"website_url"`
	WebsiteDomain     string             `json:"website_domain"`
	Username          *string            `json:"username"`
	Email             *string            `json:"email"`
	Password          *string            `json:"password"` //nolint:gosec // request field
	SecurityQuestions []SecurityQuestion `json:"security_questions"`
	Notes             *string            `json:"notes"`
	IsVerified        bool               `json:"is_verified"`
	AccountType       string             `json:"account_type"`
	SignupMethod      string             `json:"signup_method"`
}

// Validate checks the create request.
func (r *CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IdentityID, requiredUUID),
		validation.Field(&r.WebsiteName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 200),
		),
		validation.Field(&r.WebsiteURL,
			validation.Required,
			validation.Length(1, 500),
			customValidation.WebsiteURL,
		),
		validation.Field(&r.WebsiteDomain, validation.Length(0, 200), customValidation.Hostname),
		validation.Field(&r.Username, validation.Length(0, maxUsernameLength)),
		validation.Field(&r.Email, validation.Length(0, maxEmailLength), customValidation.Email),
		validation.Field(&r.Password, validation.Length(0, maxPasswordLength)),
		validation.Field(&r.SecurityQuestions, validation.Length(0, maxQuestions)),
		validation.Field(&r.Notes, validation.Length(0, maxNotesLength)),
		validation.Field(&r.AccountType, validation.Length(0, 100)),
		validation.Field(&r.SignupMethod, validation.In(signupMethods...)),
	)
}

// ToCreateAccountInput converts the request to the use case input.
func (r *CreateAccountRequest) ToCreateAccountInput() *accountDomain.CreateAccountInput {
	return &accountDomain.CreateAccountInput{
		IdentityID:    r.IdentityID,
		WebsiteName:   r.WebsiteName,
		WebsiteURL:    r.WebsiteURL,
		WebsiteDomain: r.WebsiteDomain,
		AccountType:   r.AccountType,
		SignupMethod:  r.SignupMethod,
		IsVerified:    r.IsVerified,
		Credentials: accountDomain.Credentials{
			Username:          r.Username,
			Email:             r.Email,
			Password:          r.Password,
			SecurityQuestions: toDomainQuestions(r.SecurityQuestions),
			Notes:             r.Notes,
		},
	}
}

// UpdateAccountRequest is the body of PUT /v1/accounts/:id. Omitted fields are left untouched.
type UpdateAccountRequest struct {
	WebsiteName       *string             `json:"website_name"`
	WebsiteURL        *string             `json:"website_url"`
	WebsiteDomain     *string             `json:"website_domain"`
	Username          *string             `json:"username"`
	Email             *string             `json:"email"`
	Password          *string             `json:"password"` //nolint:gosec // request field
	SecurityQuestions *[]SecurityQuestion `json:"security_questions"`
	Notes             *string             `json:"notes"`
	IsActive          *bool               `json:"is_active"`
	IsVerified        *bool               `json:"is_verified"`
	SignupCompleted   *bool               `json:"signup_completed"`
	AccountType       *string             `json:"account_type"`
	SignupMethod      *string             `json:"signup_method"`
}

// Validate checks the update request.
func (r *UpdateAccountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.WebsiteName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.WebsiteURL,
			validation.NilOrNotEmpty,
			validation.Length(1, 500),
			customValidation.WebsiteURL,
		),
		validation.Field(&r.WebsiteDomain,
			validation.NilOrNotEmpty,
			validation.Length(1, 200),
			customValidation.Hostname,
		),
		validation.Field(&r.Username, validation.Length(0, maxUsernameLength)),
		validation.Field(&r.Email, validation.Length(0, maxEmailLength), customValidation.Email),
		validation.Field(&r.Password, validation.Length(0, maxPasswordLength)),
		validation.Field(&r.SecurityQuestions, validation.Length(0, maxQuestions)),
		validation.Field(&r.Notes, validation.Length(0, maxNotesLength)),
		validation.Field(&r.AccountType, validation.Length(0, 100)),
		validation.Field(&r.SignupMethod, validation.NilOrNotEmpty, validation.In(signupMethods...)),
	)
}

// ToUpdateAccountInput converts the request to the use case input.
func (r *UpdateAccountRequest) ToUpdateAccountInput() *accountDomain.UpdateAccountInput {
	input := &accountDomain.UpdateAccountInput{
		WebsiteName:     r.WebsiteName,
		WebsiteURL:      r.WebsiteURL,
		WebsiteDomain:   r.WebsiteDomain,
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		Notes:           r.Notes,
		IsActive:        r.IsActive,
		IsVerified:      r.IsVerified,
		SignupCompleted: r.SignupCompleted,
		AccountType:     r.AccountType,
		SignupMethod:    r.SignupMethod,
	}
	if r.SecurityQuestions != nil {
		questions := toDomainQuestions(*r.SecurityQuestions)
		if questions == nil {
			questions = []accountDomain.SecurityQuestion{}
		}
		input.SecurityQuestions = &questions
	}
	return input
}

func toDomainQuestions(in []SecurityQuestion) []accountDomain.SecurityQuestion {
	if len(in) == 0 {
		return nil
	}
	out := make([]accountDomain.SecurityQuestion, 0, len(in))
	for _, q := range in {
		out = append(out, accountDomain.SecurityQuestion{Question: q.Question, Answer: q.Answer})
	}
	return out
}
