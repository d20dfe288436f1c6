package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/signmeup/signmeup/internal/errors"
)

// secretService implements SecretService using Argon2id.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// HashSecret hashes a plain text secret using Argon2id.
func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// CompareSecret performs a constant-time comparison between a plain secret and its hash.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// HashMasterKey hashes masterKey+salt. The hash only proves knowledge of the master key;
// the field key is derived separately, which is why login also opens the user's canary.
func (s *secretService) HashMasterKey(masterKey, salt string) (string, error) {
	hashed, err := s.HashSecret(masterKey + salt)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash master key")
	}
	return hashed, nil
}

// CompareMasterKey verifies masterKey+salt against the stored hash.
func (s *secretService) CompareMasterKey(masterKey, salt, hashedMasterKey string) bool {
	return s.CompareSecret(masterKey+salt, hashedMasterKey)
}

// NewSecretService creates a new SecretService instance using Argon2id hashing.
// Uses the Interactive policy: every login verifies two hashes on the request path.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyInteractive),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}
