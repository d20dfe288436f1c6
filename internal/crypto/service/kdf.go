package service

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

// DeriveKey derives the 32-byte field key from a master secret with PBKDF2-HMAC-SHA256.
// The result depends only on its inputs, so a manager rebuilt from the same secret and
// salt opens every token written earlier. Callers own the returned slice and should
// Zero it once a cipher has been built from it.
func DeriveKey(masterSecret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(masterSecret), salt, cryptoDomain.KDFIterations, cryptoDomain.KeySize, sha256.New)
}
