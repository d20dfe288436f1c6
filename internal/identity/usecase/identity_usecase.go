package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
	"github.com/signmeup/signmeup/internal/metrics"
)

// identityUseCase implements IdentityUseCase.
type identityUseCase struct {
	identityRepo IdentityRepository
	guard        WriteGuard
	metrics      metrics.BusinessMetrics
	logger       *slog.Logger
}

// NewIdentityUseCase creates a new identity use case. A nil businessMetrics disables
// decryption failure counting.
func NewIdentityUseCase(
	identityRepo IdentityRepository,
	guard WriteGuard,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) IdentityUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &identityUseCase{
		identityRepo: identityRepo,
		guard:        guard,
		metrics:      businessMetrics,
		logger:       logger,
	}
}

// codec returns a FieldCodec over the cipher bound to ctx.
func (i *identityUseCase) codec(ctx context.Context, identityID uuid.UUID) (*cryptoService.FieldCodec, error) {
	cipher, err := cryptoService.FieldCipherFromContext(ctx)
	if err != nil {
		return nil, err
	}
	logger := i.logger.With(slog.String("identity_id", identityID.String()))
	return cryptoService.NewFieldCodec(cipher, logger).WithFailureHook(func(field, _ string) {
		i.metrics.RecordSecurityEvent(ctx, "field_decryption_failed", "identity."+field)
	}), nil
}

// Create seals the profile and stores the identity.
func (i *identityUseCase) Create(
	ctx context.Context,
	userID uuid.UUID,
	input *identityDomain.CreateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	var created *identityDomain.DecryptedIdentity
	err := i.guard.Guard(ctx, userID, func(ctx context.Context) error {
		var err error
		created, err = i.create(ctx, userID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (i *identityUseCase) create(
	ctx context.Context,
	userID uuid.UUID,
	input *identityDomain.CreateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	now := time.Now().UTC()
	identity := &identityDomain.Identity{
		ID:                       uuid.Must(uuid.NewV7()),
		UserID:                   userID,
		Name:                     input.Name,
		Description:              input.Description,
		PreferredUsernamePattern: input.PreferredUsernamePattern,
		PasswordPreferences:      input.PasswordPreferences,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	codec, err := i.codec(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if err := sealProfile(codec, identity, &input.Profile); err != nil {
		return nil, err
	}

	if err := i.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}

	i.logger.Info("identity created",
		slog.String("identity_id", identity.ID.String()),
		slog.String("user_id", userID.String()))

	return &identityDomain.DecryptedIdentity{Identity: identity, Profile: input.Profile}, nil
}

// List returns a page of the user's identities.
func (i *identityUseCase) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*identityDomain.Identity, error) {
	return i.identityRepo.List(ctx, userID, offset, limit)
}

// Get loads and decrypts an identity. Unreadable fields come back blank.
func (i *identityUseCase) Get(
	ctx context.Context,
	userID, identityID uuid.UUID,
) (*identityDomain.DecryptedIdentity, error) {
	codec, err := i.codec(ctx, identityID)
	if err != nil {
		return nil, err
	}

	identity, err := i.identityRepo.Get(ctx, userID, identityID)
	if err != nil {
		return nil, err
	}

	return &identityDomain.DecryptedIdentity{Identity: identity, Profile: openProfile(codec, identity)}, nil
}

// Update applies a partial update. Only provided fields are re-sealed.
func (i *identityUseCase) Update(
	ctx context.Context,
	userID, identityID uuid.UUID,
	input *identityDomain.UpdateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	var updated *identityDomain.DecryptedIdentity
	err := i.guard.Guard(ctx, userID, func(ctx context.Context) error {
		var err error
		updated, err = i.update(ctx, userID, identityID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (i *identityUseCase) update(
	ctx context.Context,
	userID, identityID uuid.UUID,
	input *identityDomain.UpdateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	codec, err := i.codec(ctx, identityID)
	if err != nil {
		return nil, err
	}

	identity, err := i.identityRepo.Get(ctx, userID, identityID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		identity.Name = *input.Name
	}
	if input.Description != nil {
		identity.Description = *input.Description
	}
	if input.PreferredUsernamePattern != nil {
		identity.PreferredUsernamePattern = *input.PreferredUsernamePattern
	}
	if input.PasswordPreferences != nil {
		identity.PasswordPreferences = input.PasswordPreferences
	}

	updates := []struct {
		value *string
		dst   *string
	}{
		{input.FirstName, &identity.EncryptedFirstName},
		{input.LastName, &identity.EncryptedLastName},
		{input.Email, &identity.EncryptedEmail},
		{input.Phone, &identity.EncryptedPhone},
		{input.DateOfBirth, &identity.EncryptedDateOfBirth},
		{input.AddressLine1, &identity.EncryptedAddressLine1},
		{input.AddressLine2, &identity.EncryptedAddressLine2},
		{input.City, &identity.EncryptedCity},
		{input.State, &identity.EncryptedState},
		{input.ZipCode, &identity.EncryptedZipCode},
		{input.Country, &identity.EncryptedCountry},
		{input.Profession, &identity.EncryptedProfession},
		{input.Company, &identity.EncryptedCompany},
		{input.Bio, &identity.EncryptedBio},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if *u.dst, err = sealText(codec, *u.value); err != nil {
			return nil, err
		}
	}
	if input.CustomFields != nil {
		if identity.EncryptedCustomFields, err = sealCustomFields(codec, input.CustomFields); err != nil {
			return nil, err
		}
	}

	identity.UpdatedAt = time.Now().UTC()

	if err := i.identityRepo.Update(ctx, identity); err != nil {
		return nil, err
	}

	i.logger.Info("identity updated",
		slog.String("identity_id", identity.ID.String()),
		slog.String("user_id", userID.String()))

	return &identityDomain.DecryptedIdentity{Identity: identity, Profile: openProfile(codec, identity)}, nil
}

// Delete removes an identity and, through the foreign key, its accounts.
func (i *identityUseCase) Delete(ctx context.Context, userID, identityID uuid.UUID) error {
	if err := i.identityRepo.Delete(ctx, userID, identityID); err != nil {
		return err
	}

	i.logger.Info("identity deleted",
		slog.String("identity_id", identityID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// ReencryptAll rewrites every encrypted column of every identity of userID from one
// cipher to the other. A token that does not open with from aborts the rotation.
// Must run inside the caller's transaction, after the owner's row lock is taken.
func (i *identityUseCase) ReencryptAll(
	ctx context.Context,
	userID uuid.UUID,
	from, to cryptoService.FieldCipher,
) (int, error) {
	identities, err := i.identityRepo.ListAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, identity := range identities {
		for field, token := range identity.EncryptedFields() {
			rewritten, err := cryptoService.Reencrypt(*token, from, to)
			if err != nil {
				return 0, apperrors.Wrapf(err, "failed to re-encrypt identity %s field %s", identity.ID, field)
			}
			*token = rewritten
		}
		identity.UpdatedAt = time.Now().UTC()

		if err := i.identityRepo.Update(ctx, identity); err != nil {
			return 0, err
		}
	}

	return len(identities), nil
}

// sealText seals a plaintext field. An empty string is stored as no value.
func sealText(codec *cryptoService.FieldCodec, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return codec.Seal(value)
}

func sealOptional(codec *cryptoService.FieldCodec, value *string) (string, error) {
	if value == nil {
		return "", nil
	}
	return sealText(codec, *value)
}

func sealCustomFields(codec *cryptoService.FieldCodec, fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	return codec.Seal(fields)
}

func sealProfile(codec *cryptoService.FieldCodec, identity *identityDomain.Identity, profile *identityDomain.Profile) error {
	var err error
	required := []struct {
		value string
		dst   *string
	}{
		{profile.FirstName, &identity.EncryptedFirstName},
		{profile.LastName, &identity.EncryptedLastName},
		{profile.Email, &identity.EncryptedEmail},
	}
	for _, r := range required {
		if *r.dst, err = sealText(codec, r.value); err != nil {
			return err
		}
	}

	optional := []struct {
		value *string
		dst   *string
	}{
		{profile.Phone, &identity.EncryptedPhone},
		{profile.DateOfBirth, &identity.EncryptedDateOfBirth},
		{profile.AddressLine1, &identity.EncryptedAddressLine1},
		{profile.AddressLine2, &identity.EncryptedAddressLine2},
		{profile.City, &identity.EncryptedCity},
		{profile.State, &identity.EncryptedState},
		{profile.ZipCode, &identity.EncryptedZipCode},
		{profile.Country, &identity.EncryptedCountry},
		{profile.Profession, &identity.EncryptedProfession},
		{profile.Company, &identity.EncryptedCompany},
		{profile.Bio, &identity.EncryptedBio},
	}
	for _, o := range optional {
		if *o.dst, err = sealOptional(codec, o.value); err != nil {
			return err
		}
	}

	identity.EncryptedCustomFields, err = sealCustomFields(codec, profile.CustomFields)
	return err
}

func openProfile(codec *cryptoService.FieldCodec, identity *identityDomain.Identity) identityDomain.Profile {
	profile := identityDomain.Profile{
		FirstName:    codec.Text("first_name", identity.EncryptedFirstName),
		LastName:     codec.Text("last_name", identity.EncryptedLastName),
		Email:        codec.Text("email", identity.EncryptedEmail),
		Phone:        codec.Optional("phone", identity.EncryptedPhone),
		DateOfBirth:  codec.Optional("date_of_birth", identity.EncryptedDateOfBirth),
		AddressLine1: codec.Optional("address_line1", identity.EncryptedAddressLine1),
		AddressLine2: codec.Optional("address_line2", identity.EncryptedAddressLine2),
		City:         codec.Optional("city", identity.EncryptedCity),
		State:        codec.Optional("state", identity.EncryptedState),
		ZipCode:      codec.Optional("zip_code", identity.EncryptedZipCode),
		Country:      codec.Optional("country", identity.EncryptedCountry),
		Profession:   codec.Optional("profession", identity.EncryptedProfession),
		Company:      codec.Optional("company", identity.EncryptedCompany),
		Bio:          codec.Optional("bio", identity.EncryptedBio),
	}

	var custom map[string]any
	if codec.JSON("custom_fields", identity.EncryptedCustomFields, &custom) {
		profile.CustomFields = custom
	}
	return profile
}
