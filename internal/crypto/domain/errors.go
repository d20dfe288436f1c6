package domain

import (
	"github.com/signmeup/signmeup/internal/errors"
)

// Cryptographic operation error definitions.
//
// Decryption errors never leave the crypto package as errors: the manager folds them
// into an absent result. They exist so the consuming boundary can log why a token
// could not be opened.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key that is not 32 bytes.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates the tag did not verify: wrong key or tampered token.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrEmptyToken indicates there was nothing to decrypt.
	ErrEmptyToken = errors.New("empty token")

	// ErrMalformedToken indicates the token is not valid base64 or has a broken header.
	ErrMalformedToken = errors.Wrap(errors.ErrInvalidInput, "malformed token")

	// ErrSerializationFailed indicates a structured value could not be encoded as JSON.
	// This is a programming error in the caller and maps to HTTP 500.
	ErrSerializationFailed = errors.New("field serialization failed")

	// ErrManagerNotBound indicates a field helper ran without an encryption manager in context.
	// This is a configuration error and maps to HTTP 500.
	ErrManagerNotBound = errors.New("encryption manager not bound")
)
