package service

import (
	"context"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

type fieldCipherKey struct{}

// WithFieldCipher binds cipher to ctx for the lifetime of one request.
func WithFieldCipher(ctx context.Context, cipher FieldCipher) context.Context {
	return context.WithValue(ctx, fieldCipherKey{}, cipher)
}

// FieldCipherFromContext returns the cipher bound to ctx, or ErrManagerNotBound.
func FieldCipherFromContext(ctx context.Context) (FieldCipher, error) {
	cipher, ok := ctx.Value(fieldCipherKey{}).(FieldCipher)
	if !ok || cipher == nil {
		return nil, cryptoDomain.ErrManagerNotBound
	}
	return cipher, nil
}

// EncryptField seals value with the cipher bound to ctx.
func EncryptField(ctx context.Context, value any) (string, error) {
	cipher, err := FieldCipherFromContext(ctx)
	if err != nil {
		return "", err
	}
	return cipher.Encrypt(value)
}

// DecryptField opens token with the cipher bound to ctx. The bool is false when the
// token is empty or cannot be opened; the error is reserved for a missing cipher.
func DecryptField(ctx context.Context, token string) (string, bool, error) {
	cipher, err := FieldCipherFromContext(ctx)
	if err != nil {
		return "", false, err
	}
	value, ok := cipher.Decrypt(token)
	return value, ok, nil
}

// DecryptJSONField opens token with the cipher bound to ctx and parses it as JSON.
func DecryptJSONField(ctx context.Context, token string) (any, bool, error) {
	cipher, err := FieldCipherFromContext(ctx)
	if err != nil {
		return nil, false, err
	}
	value, ok := cipher.DecryptStructured(token)
	return value, ok, nil
}
