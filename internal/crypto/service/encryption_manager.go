package service

import (
	"encoding/json"
	"fmt"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

// DecryptResult is the outcome of opening one token.
// Err is one of ErrEmptyToken, ErrMalformedToken or ErrDecryptionFailed.
type DecryptResult struct {
	Value string
	Err   error
}

// Ok reports whether the token was opened.
func (r DecryptResult) Ok() bool {
	return r.Err == nil
}

// Empty reports whether there was no token at all, as opposed to one that failed to open.
func (r DecryptResult) Empty() bool {
	return r.Err == cryptoDomain.ErrEmptyToken
}

type managerOptions struct {
	salt                 []byte
	algorithm            cryptoDomain.Algorithm
	compressionThreshold int
}

// ManagerOption configures an EncryptionManager.
type ManagerOption func(*managerOptions)

// WithSalt overrides the default salt.
func WithSalt(salt []byte) ManagerOption {
	return func(o *managerOptions) {
		o.salt = salt
	}
}

// WithAlgorithm selects the AEAD used for new tokens. Tokens of either algorithm can be opened.
func WithAlgorithm(alg cryptoDomain.Algorithm) ManagerOption {
	return func(o *managerOptions) {
		o.algorithm = alg
	}
}

// WithCompressionThreshold sets the plaintext size above which zstd is attempted. Zero disables it.
func WithCompressionThreshold(n int) ManagerOption {
	return func(o *managerOptions) {
		o.compressionThreshold = n
	}
}

// EncryptionManager seals and opens field values under a key derived from one master secret.
//
// It is immutable after construction and safe for concurrent use. One manager is built
// per login session and discarded with it.
type EncryptionManager struct {
	algID     byte
	ciphers   map[byte]AEAD
	threshold int
}

// NewEncryptionManager derives the field key from masterSecret and builds the ciphers.
//
// Construction never fails on valid options. An unsupported algorithm or a cipher
// library error on a 32-byte key is a programming error and panics.
func NewEncryptionManager(masterSecret string, opts ...ManagerOption) *EncryptionManager {
	o := managerOptions{
		salt:                 []byte(cryptoDomain.DefaultSalt),
		algorithm:            cryptoDomain.AESGCM,
		compressionThreshold: cryptoDomain.DefaultCompressionThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	algID, err := cryptoDomain.AlgorithmID(o.algorithm)
	if err != nil {
		panic(fmt.Sprintf("encryption manager: %v", err))
	}

	key := DeriveKey(masterSecret, o.salt)
	defer cryptoDomain.Zero(key)

	aeadManager := NewAEADManager()
	ciphers := make(map[byte]AEAD, 2)
	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		aead, err := aeadManager.CreateCipher(key, alg)
		if err != nil {
			panic(fmt.Sprintf("encryption manager: failed to create %s cipher: %v", alg, err))
		}
		id, _ := cryptoDomain.AlgorithmID(alg)
		ciphers[id] = aead
	}

	return &EncryptionManager{
		algID:     algID,
		ciphers:   ciphers,
		threshold: o.compressionThreshold,
	}
}

// Encrypt seals value into a URL-safe token.
//
// nil (or a nil *string) yields "" with no error. A string is sealed verbatim.
// Any other value is sealed as its JSON encoding; a value that cannot be encoded
// returns ErrSerializationFailed.
func (m *EncryptionManager) Encrypt(value any) (string, error) {
	plaintext, present, err := encodePlainValue(value)
	if err != nil {
		return "", err
	}
	if !present {
		return "", nil
	}
	return m.seal(plaintext)
}

func (m *EncryptionManager) seal(plaintext []byte) (string, error) {
	body, compression := maybeCompress(plaintext, m.threshold)
	header := newHeader(m.algID, compression)

	ciphertext, nonce, err := m.ciphers[m.algID].Encrypt(body, header)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt field: %w", err)
	}

	return encodeToken(header, nonce, ciphertext), nil
}

// Open decrypts token and reports the failure reason, if any.
func (m *EncryptionManager) Open(token string) DecryptResult {
	if token == "" {
		return DecryptResult{Err: cryptoDomain.ErrEmptyToken}
	}

	sealed, err := decodeToken(token)
	if err != nil {
		return DecryptResult{Err: err}
	}

	aead, ok := m.ciphers[sealed.algorithmID()]
	if !ok {
		return DecryptResult{Err: cryptoDomain.ErrMalformedToken}
	}

	body, err := aead.Decrypt(sealed.ciphertext, sealed.nonce, sealed.header)
	if err != nil {
		return DecryptResult{Err: cryptoDomain.ErrDecryptionFailed}
	}

	plaintext, err := decompress(body, sealed.compression())
	if err != nil {
		return DecryptResult{Err: cryptoDomain.ErrMalformedToken}
	}

	return DecryptResult{Value: string(plaintext)}
}

// Decrypt returns the plaintext of token. It returns false for an empty token and for
// any token that cannot be opened; the two cases are deliberately indistinguishable.
func (m *EncryptionManager) Decrypt(token string) (string, bool) {
	result := m.Open(token)
	if !result.Ok() {
		return "", false
	}
	return result.Value, true
}

// DecryptStructured decrypts token and parses it as JSON.
func (m *EncryptionManager) DecryptStructured(token string) (any, bool) {
	var v any
	if !m.DecryptJSON(token, &v) {
		return nil, false
	}
	return v, true
}

// DecryptJSON decrypts token and unmarshals it into dst.
func (m *EncryptionManager) DecryptJSON(token string, dst any) bool {
	plaintext, ok := m.Decrypt(token)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(plaintext), dst) == nil
}

// encodePlainValue returns the bytes to seal and whether there is a value at all.
func encodePlainValue(value any) ([]byte, bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(v), true, nil
	case *string:
		if v == nil {
			return nil, false, nil
		}
		return []byte(*v), true, nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", cryptoDomain.ErrSerializationFailed, err)
	}
	// Typed nil pointers, maps and slices encode as null and count as no value.
	if string(encoded) == "null" {
		return nil, false, nil
	}
	return encoded, true, nil
}
