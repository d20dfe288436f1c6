// Package service provides field-level encryption keyed off a user-supplied master key.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), the token format and
// the per-session EncryptionManager.
package service

import (
	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// FieldCipher encrypts and decrypts individual field values as URL-safe text tokens.
type FieldCipher interface {
	// Encrypt seals value. nil yields an empty token, strings are sealed verbatim and
	// anything else is sealed as its JSON encoding.
	Encrypt(value any) (string, error)

	// Open decrypts token and reports why it failed, if it did.
	Open(token string) DecryptResult

	// Decrypt returns the plaintext, or false when the token is empty or cannot be opened.
	Decrypt(token string) (string, bool)

	// DecryptStructured decrypts and parses the plaintext as JSON.
	DecryptStructured(token string) (any, bool)

	// DecryptJSON decrypts and unmarshals the plaintext into dst.
	DecryptJSON(token string, dst any) bool
}
