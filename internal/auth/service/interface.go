// Package service provides technical services for authentication operations:
// Argon2id hashing of passwords and master keys, and opaque session token generation.
package service

// SecretService hashes and verifies user secrets.
type SecretService interface {
	// HashSecret hashes a plain text secret (a login password) with Argon2id.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret reports whether plainSecret matches hashedSecret.
	CompareSecret(plainSecret string, hashedSecret string) bool

	// HashMasterKey hashes masterKey concatenated with salt.
	HashMasterKey(masterKey, salt string) (hashedMasterKey string, err error)

	// CompareMasterKey reports whether masterKey and salt match hashedMasterKey.
	CompareMasterKey(masterKey, salt, hashedMasterKey string) bool
}

// TokenService defines operations for session token generation and hashing.
type TokenService interface {
	// GenerateToken creates a new random token. Only its hash is ever stored;
	// the plain token is returned to the user once at login.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes a plain text token using SHA-256.
	HashToken(plainToken string) string
}
