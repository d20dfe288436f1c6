package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/metrics"
)

// accountUseCase implements AccountUseCase.
type accountUseCase struct {
	accountRepo AccountRepository
	identities  IdentityGetter
	guard       WriteGuard
	metrics     metrics.BusinessMetrics
	logger      *slog.Logger
}

// NewAccountUseCase creates a new account use case.
func NewAccountUseCase(
	accountRepo AccountRepository,
	identities IdentityGetter,
	guard WriteGuard,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) AccountUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &accountUseCase{
		accountRepo: accountRepo,
		identities:  identities,
		guard:       guard,
		metrics:     businessMetrics,
		logger:      logger,
	}
}

func (a *accountUseCase) codec(ctx context.Context, accountID uuid.UUID) (*cryptoService.FieldCodec, error) {
	cipher, err := cryptoService.FieldCipherFromContext(ctx)
	if err != nil {
		return nil, err
	}
	logger := a.logger.With(slog.String("account_id", accountID.String()))
	return cryptoService.NewFieldCodec(cipher, logger).WithFailureHook(func(field, _ string) {
		a.metrics.RecordSecurityEvent(ctx, "field_decryption_failed", "account."+field)
	}), nil
}

// Create stores a new account under one of the user's identities.
func (a *accountUseCase) Create(
	ctx context.Context,
	userID uuid.UUID,
	input *accountDomain.CreateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	if _, err := a.identities.Get(ctx, userID, input.IdentityID); err != nil {
		return nil, err
	}

	var created *accountDomain.DecryptedAccount
	err := a.guard.Guard(ctx, userID, func(ctx context.Context) error {
		var err error
		created, err = a.create(ctx, userID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (a *accountUseCase) create(
	ctx context.Context,
	userID uuid.UUID,
	input *accountDomain.CreateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	domain := accountDomain.NormalizeDomain(input.WebsiteDomain)
	if domain == "" {
		var err error
		if domain, err = accountDomain.DomainFromURL(input.WebsiteURL); err != nil {
			return nil, err
		}
	}

	signupMethod := input.SignupMethod
	if signupMethod == "" {
		signupMethod = accountDomain.SignupMethodManual
	}

	now := time.Now().UTC()
	account := &accountDomain.Account{
		ID:            uuid.Must(uuid.NewV7()),
		UserID:        userID,
		IdentityID:    input.IdentityID,
		WebsiteName:   input.WebsiteName,
		WebsiteURL:    input.WebsiteURL,
		WebsiteDomain: domain,
		IsActive:      true,
		IsVerified:    input.IsVerified,
		AccountType:   input.AccountType,
		SignupMethod:  signupMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	codec, err := a.codec(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if err := sealCredentials(codec, account, &input.Credentials); err != nil {
		return nil, err
	}

	if err := a.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	a.logger.Info("account created",
		slog.String("account_id", account.ID.String()),
		slog.String("identity_id", account.IdentityID.String()),
		slog.String("website_domain", account.WebsiteDomain))

	return &accountDomain.DecryptedAccount{Account: account, Credentials: openCredentials(codec, account)}, nil
}

// List returns accounts without decrypting them.
func (a *accountUseCase) List(
	ctx context.Context,
	userID uuid.UUID,
	filter accountDomain.ListAccountsFilter,
) ([]*accountDomain.Account, error) {
	filter.Domain = accountDomain.NormalizeDomain(filter.Domain)
	return a.accountRepo.List(ctx, userID, filter)
}

// Get loads and decrypts an account and records the access time.
func (a *accountUseCase) Get(ctx context.Context, userID, accountID uuid.UUID) (*accountDomain.DecryptedAccount, error) {
	codec, err := a.codec(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account, err := a.accountRepo.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := a.accountRepo.TouchLastAccessed(ctx, userID, accountID, now); err != nil {
		return nil, err
	}
	account.LastAccessed = &now

	return &accountDomain.DecryptedAccount{Account: account, Credentials: openCredentials(codec, account)}, nil
}

// Update applies a partial update.
func (a *accountUseCase) Update(
	ctx context.Context,
	userID, accountID uuid.UUID,
	input *accountDomain.UpdateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	var updated *accountDomain.DecryptedAccount
	err := a.guard.Guard(ctx, userID, func(ctx context.Context) error {
		var err error
		updated, err = a.update(ctx, userID, accountID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (a *accountUseCase) update(
	ctx context.Context,
	userID, accountID uuid.UUID,
	input *accountDomain.UpdateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	codec, err := a.codec(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account, err := a.accountRepo.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if input.WebsiteName != nil {
		account.WebsiteName = *input.WebsiteName
	}
	if input.WebsiteURL != nil {
		account.WebsiteURL = *input.WebsiteURL
		if input.WebsiteDomain == nil {
			if account.WebsiteDomain, err = accountDomain.DomainFromURL(account.WebsiteURL); err != nil {
				return nil, err
			}
		}
	}
	if input.WebsiteDomain != nil {
		account.WebsiteDomain = accountDomain.NormalizeDomain(*input.WebsiteDomain)
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	if input.IsVerified != nil {
		account.IsVerified = *input.IsVerified
	}
	if input.SignupCompleted != nil {
		account.SignupCompleted = *input.SignupCompleted
	}
	if input.AccountType != nil {
		account.AccountType = *input.AccountType
	}
	if input.SignupMethod != nil {
		account.SignupMethod = *input.SignupMethod
	}

	texts := []struct {
		value *string
		dst   *string
	}{
		{input.Username, &account.EncryptedUsername},
		{input.Email, &account.EncryptedEmail},
		{input.Password, &account.EncryptedPassword},
		{input.Notes, &account.EncryptedNotes},
	}
	for _, t := range texts {
		if t.value == nil {
			continue
		}
		if *t.dst, err = sealText(codec, *t.value); err != nil {
			return nil, err
		}
	}
	if input.SecurityQuestions != nil {
		if account.EncryptedSecurityQuestions, err = sealQuestions(codec, *input.SecurityQuestions); err != nil {
			return nil, err
		}
	}

	account.UpdatedAt = time.Now().UTC()

	if err := a.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	a.logger.Info("account updated", slog.String("account_id", account.ID.String()))

	return &accountDomain.DecryptedAccount{Account: account, Credentials: openCredentials(codec, account)}, nil
}

// Delete removes an account.
func (a *accountUseCase) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	if err := a.accountRepo.Delete(ctx, userID, accountID); err != nil {
		return err
	}

	a.logger.Info("account deleted", slog.String("account_id", accountID.String()))
	return nil
}

// ReencryptAll rewrites every encrypted column of every account of userID from one
// cipher to the other. A token that does not open with from aborts the rotation.
// Must run inside the caller's transaction, after the owner's row lock is taken.
func (a *accountUseCase) ReencryptAll(
	ctx context.Context,
	userID uuid.UUID,
	from, to cryptoService.FieldCipher,
) (int, error) {
	accounts, err := a.accountRepo.ListAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, account := range accounts {
		for field, token := range account.EncryptedFields() {
			rewritten, err := cryptoService.Reencrypt(*token, from, to)
			if err != nil {
				return 0, apperrors.Wrapf(err, "failed to re-encrypt account %s field %s", account.ID, field)
			}
			*token = rewritten
		}
		account.UpdatedAt = time.Now().UTC()

		if err := a.accountRepo.Update(ctx, account); err != nil {
			return 0, err
		}
	}

	return len(accounts), nil
}

func sealText(codec *cryptoService.FieldCodec, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return codec.Seal(value)
}

func sealQuestions(codec *cryptoService.FieldCodec, questions []accountDomain.SecurityQuestion) (string, error) {
	if len(questions) == 0 {
		return "", nil
	}
	return codec.Seal(questions)
}

func sealCredentials(codec *cryptoService.FieldCodec, account *accountDomain.Account, c *accountDomain.Credentials) error {
	var err error
	texts := []struct {
		value *string
		dst   *string
	}{
		{c.Username, &account.EncryptedUsername},
		{c.Email, &account.EncryptedEmail},
		{c.Password, &account.EncryptedPassword},
		{c.Notes, &account.EncryptedNotes},
	}
	for _, t := range texts {
		if t.value == nil {
			continue
		}
		if *t.dst, err = sealText(codec, *t.value); err != nil {
			return err
		}
	}

	account.EncryptedSecurityQuestions, err = sealQuestions(codec, c.SecurityQuestions)
	return err
}

func openCredentials(codec *cryptoService.FieldCodec, account *accountDomain.Account) accountDomain.Credentials {
	credentials := accountDomain.Credentials{
		Username: codec.Optional("username", account.EncryptedUsername),
		Email:    codec.Optional("email", account.EncryptedEmail),
		Password: codec.Optional("password", account.EncryptedPassword),
		Notes:    codec.Optional("notes", account.EncryptedNotes),
	}

	var questions []accountDomain.SecurityQuestion
	if codec.JSON("security_questions", account.EncryptedSecurityQuestions, &questions) {
		credentials.SecurityQuestions = questions
	}
	return credentials
}
