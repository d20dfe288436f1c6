package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	authService "github.com/signmeup/signmeup/internal/auth/service"
	"github.com/signmeup/signmeup/internal/database"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	outboxDomain "github.com/signmeup/signmeup/internal/outbox/domain"
	"github.com/signmeup/signmeup/internal/user/domain"
	appValidation "github.com/signmeup/signmeup/internal/validation"
)

// MinMasterKeyLength is the shortest master key accepted at registration and rotation.
const MinMasterKeyLength = 8

// RegisterUserInput contains the input data for user registration
type RegisterUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	MasterKey string `json:"master_key"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RotateMasterKeyInput identifies the user by credentials and carries both master keys.
type RotateMasterKeyInput struct {
	Email            string
	Password         string
	CurrentMasterKey string
	NewMasterKey     string
}

// RotateMasterKeyOutput reports how many rows were re-encrypted.
type RotateMasterKeyOutput struct {
	UserID        uuid.UUID
	RowsRewritten int
}

// UserUseCase handles user-related business logic
type UserUseCase struct {
	txManager     database.TxManager
	userRepo      UserRepository
	outboxRepo    OutboxEventRepository
	secretService authService.SecretService
	ciphers       CipherFactory
	reencrypters  []FieldReencrypter
	tokenRevoker  TokenRevoker
}

// NewUserUseCase creates a new UserUseCase. reencrypters and tokenRevoker are only
// needed by RotateMasterKey and may be empty otherwise.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	outboxRepo OutboxEventRepository,
	secretService authService.SecretService,
	ciphers CipherFactory,
	tokenRevoker TokenRevoker,
	reencrypters ...FieldReencrypter,
) *UserUseCase {
	return &UserUseCase{
		txManager:     txManager,
		userRepo:      userRepo,
		outboxRepo:    outboxRepo,
		secretService: secretService,
		ciphers:       ciphers,
		reencrypters:  reencrypters,
		tokenRevoker:  tokenRevoker,
	}
}

func masterKeyRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("master key is required"),
		validation.Length(MinMasterKeyLength, 256).Error("master key must be between 8 and 256 characters"),
	}
}

func (uc *UserUseCase) validateRegisterUserInput(input RegisterUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			validation.Length(3, 50).Error("username must be between 3 and 50 characters"),
			appValidation.Username,
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
		validation.Field(&input.MasterKey, masterKeyRules()...),
		validation.Field(&input.FirstName, validation.Length(0, 100)),
		validation.Field(&input.LastName, validation.Length(0, 100)),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser creates a user with hashed password and master key and a canary sealed
// under the user's field key, then records a user.registered event.
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := uc.validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := uc.secretService.HashSecret(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	masterKeyHash, err := uc.secretService.HashMasterKey(input.MasterKey, uc.ciphers.Salt())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash master key")
	}

	canary, err := uc.ciphers.New(input.MasterKey).Encrypt(domain.CanaryPlaintext)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal master key canary")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:              uuid.Must(uuid.NewV7()),
		Username:        strings.TrimSpace(input.Username),
		Email:           strings.TrimSpace(strings.ToLower(input.Email)),
		PasswordHash:    passwordHash,
		MasterKeyHash:   masterKeyHash,
		MasterKeyCanary: canary,
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		event, err := outboxDomain.NewOutboxEvent(outboxDomain.EventUserRegistered, map[string]any{
			"user_id":  user.ID,
			"username": user.Username,
		})
		if err != nil {
			return err
		}

		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// GetUserByID retrieves a user by ID
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// RotateMasterKey re-encrypts every field the user owns under a new master key.
//
// The password and the current master key are both verified first, the canary included.
// Re-encryption, the new hash and canary, token revocation and the outbox event are
// committed in one transaction holding the user's row lock, so a failure leaves all data
// under the old key and no guarded write can interleave.
func (uc *UserUseCase) RotateMasterKey(
	ctx context.Context,
	input RotateMasterKeyInput,
) (*RotateMasterKeyOutput, error) {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required, appValidation.Email),
		validation.Field(&input.Password, validation.Required),
		validation.Field(&input.CurrentMasterKey, validation.Required),
		validation.Field(&input.NewMasterKey, masterKeyRules()...),
	)
	if err := appValidation.WrapValidationError(err); err != nil {
		return nil, err
	}
	if input.CurrentMasterKey == input.NewMasterKey {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "new master key must differ from the current one")
	}

	user, err := uc.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !uc.secretService.CompareSecret(input.Password, user.PasswordHash) {
		return nil, authDomain.ErrInvalidCredentials
	}

	salt := uc.ciphers.Salt()
	if !uc.secretService.CompareMasterKey(input.CurrentMasterKey, salt, user.MasterKeyHash) {
		return nil, authDomain.ErrInvalidMasterKey
	}
	from := uc.ciphers.New(input.CurrentMasterKey)
	if value, ok := from.Decrypt(user.MasterKeyCanary); !ok || value != domain.CanaryPlaintext {
		return nil, authDomain.ErrInvalidMasterKey
	}
	to := uc.ciphers.New(input.NewMasterKey)

	newHash, err := uc.secretService.HashMasterKey(input.NewMasterKey, salt)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash master key")
	}
	newCanary, err := to.Encrypt(domain.CanaryPlaintext)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal master key canary")
	}

	output := &RotateMasterKeyOutput{UserID: user.ID}
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		// The row lock holds off guarded field writes until commit. A rotation that
		// committed while this one waited changed the canary.
		locked, err := uc.userRepo.LockByID(ctx, user.ID)
		if err != nil {
			return err
		}
		if locked.MasterKeyCanary != user.MasterKeyCanary {
			return authDomain.ErrInvalidMasterKey
		}

		for _, r := range uc.reencrypters {
			n, err := r.ReencryptAll(ctx, user.ID, from, to)
			if err != nil {
				return err
			}
			output.RowsRewritten += n
		}

		user.MasterKeyHash = newHash
		user.MasterKeyCanary = newCanary
		user.UpdatedAt = time.Now().UTC()
		if err := uc.userRepo.UpdateMasterKey(ctx, user); err != nil {
			return err
		}

		if uc.tokenRevoker != nil {
			if err := uc.tokenRevoker.RevokeAllByUserID(ctx, user.ID); err != nil {
				return err
			}
		}

		event, err := outboxDomain.NewOutboxEvent(outboxDomain.EventMasterKeyRotated, map[string]any{
			"user_id":        user.ID,
			"rows_rewritten": output.RowsRewritten,
		})
		if err != nil {
			return err
		}
		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}
