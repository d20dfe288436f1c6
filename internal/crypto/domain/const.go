package domain

// Algorithm represents the AEAD algorithm used to seal field tokens.
//
// Both algorithms take a 256-bit key, a 96-bit random nonce and produce a 128-bit tag.
// The algorithm is recorded in every token header, so switching the configured
// algorithm never breaks tokens written earlier.
type Algorithm string

const (
	// AESGCM represents AES-256-GCM. Preferred on CPUs with AES-NI.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents ChaCha20-Poly1305. Preferred where AES hardware acceleration is missing.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Key derivation parameters. Changing any of them makes every stored token unreadable.
const (
	// KDFIterations is the PBKDF2-HMAC-SHA256 iteration count.
	KDFIterations = 100_000

	// KeySize is the derived key length in bytes.
	KeySize = 32

	// DefaultSalt is used when no salt is configured. It is shared by every user,
	// so two users choosing the same master key derive the same field key.
	DefaultSalt = "default_salt"
)

// Token header layout: [version:1][algorithm:1][compression:1][nonce:12][ciphertext+tag].
const (
	TokenVersion byte = 0x01

	AlgorithmIDAESGCM   byte = 0x01
	AlgorithmIDChaCha20 byte = 0x02

	CompressionNone byte = 0x00
	CompressionZstd byte = 0x01

	HeaderSize = 3
	NonceSize  = 12
	TagSize    = 16
)

// DefaultCompressionThreshold is the plaintext size in bytes above which compression is attempted.
const DefaultCompressionThreshold = 1024

// AlgorithmID returns the header byte for alg.
func AlgorithmID(alg Algorithm) (byte, error) {
	switch alg {
	case AESGCM:
		return AlgorithmIDAESGCM, nil
	case ChaCha20:
		return AlgorithmIDChaCha20, nil
	default:
		return 0, ErrUnsupportedAlgorithm
	}
}

// AlgorithmFromID returns the algorithm for a header byte.
func AlgorithmFromID(id byte) (Algorithm, error) {
	switch id {
	case AlgorithmIDAESGCM:
		return AESGCM, nil
	case AlgorithmIDChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
