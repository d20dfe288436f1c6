package service

import (
	"encoding/json"
	"log/slog"
)

// FieldCodec is the boundary between usecases and a FieldCipher. It turns absent or
// unreadable tokens into blank values and logs tokens that failed to open as security
// events without exposing the token or the plaintext.
type FieldCodec struct {
	cipher    FieldCipher
	logger    *slog.Logger
	onFailure func(field, reason string)
}

// NewFieldCodec creates a FieldCodec.
func NewFieldCodec(cipher FieldCipher, logger *slog.Logger) *FieldCodec {
	return &FieldCodec{cipher: cipher, logger: logger}
}

// WithFailureHook registers fn to be called, after logging, for every token that fails to open.
func (f *FieldCodec) WithFailureHook(fn func(field, reason string)) *FieldCodec {
	f.onFailure = fn
	return f
}

// Seal encrypts value. See FieldCipher.Encrypt.
func (f *FieldCodec) Seal(value any) (string, error) {
	return f.cipher.Encrypt(value)
}

// Text returns the plaintext of token, or "" when it is absent or unreadable.
func (f *FieldCodec) Text(field, token string) string {
	if v := f.Optional(field, token); v != nil {
		return *v
	}
	return ""
}

// Optional returns the plaintext of token, or nil when it is absent or unreadable.
func (f *FieldCodec) Optional(field, token string) *string {
	result := f.cipher.Open(token)
	if !result.Ok() {
		f.logFailure(field, result)
		return nil
	}
	return &result.Value
}

// JSON unmarshals the plaintext of token into dst. It returns false when the token
// is absent or unreadable, or holds invalid JSON.
func (f *FieldCodec) JSON(field, token string, dst any) bool {
	result := f.cipher.Open(token)
	if !result.Ok() {
		f.logFailure(field, result)
		return false
	}
	if err := json.Unmarshal([]byte(result.Value), dst); err != nil {
		f.report(field, "invalid json")
		return false
	}
	return true
}

func (f *FieldCodec) logFailure(field string, result DecryptResult) {
	if result.Empty() {
		return
	}
	f.report(field, result.Err.Error())
}

func (f *FieldCodec) report(field, reason string) {
	if f.logger != nil {
		f.logger.Warn("security event",
			slog.String("event", "field_decryption_failed"),
			slog.String("field", field),
			slog.String("reason", reason),
		)
	}
	if f.onFailure != nil {
		f.onFailure(field, reason)
	}
}
