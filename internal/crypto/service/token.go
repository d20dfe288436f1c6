package service

import (
	"encoding/base64"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

// tokenEncoding is URL-safe and unpadded. Strict decoding rejects non-zero trailing
// bits, so no two distinct strings decode to the same token.
var tokenEncoding = base64.RawURLEncoding.Strict()

// sealedToken is the parsed form of an EncryptedToken:
// [version:1][algorithm:1][compression:1][nonce:12][ciphertext+tag].
type sealedToken struct {
	header     []byte
	nonce      []byte
	ciphertext []byte
}

func (t sealedToken) algorithmID() byte { return t.header[1] }
func (t sealedToken) compression() byte { return t.header[2] }

// newHeader builds the token header. It is bound to the ciphertext as AAD.
func newHeader(algID, compression byte) []byte {
	return []byte{cryptoDomain.TokenVersion, algID, compression}
}

// encodeToken assembles and text-encodes a token.
func encodeToken(header, nonce, ciphertext []byte) string {
	buf := make([]byte, 0, len(header)+len(nonce)+len(ciphertext))
	buf = append(buf, header...)
	buf = append(buf, nonce...)
	buf = append(buf, ciphertext...)
	return tokenEncoding.EncodeToString(buf)
}

// decodeToken parses a text token. It checks structure only; authenticity is
// established by the AEAD.
func decodeToken(token string) (sealedToken, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return sealedToken{}, cryptoDomain.ErrMalformedToken
	}

	minSize := cryptoDomain.HeaderSize + cryptoDomain.NonceSize + cryptoDomain.TagSize
	if len(raw) < minSize {
		return sealedToken{}, cryptoDomain.ErrMalformedToken
	}
	if raw[0] != cryptoDomain.TokenVersion {
		return sealedToken{}, cryptoDomain.ErrMalformedToken
	}

	nonceEnd := cryptoDomain.HeaderSize + cryptoDomain.NonceSize
	return sealedToken{
		header:     raw[:cryptoDomain.HeaderSize],
		nonce:      raw[cryptoDomain.HeaderSize:nonceEnd],
		ciphertext: raw[nonceEnd:],
	}, nil
}
