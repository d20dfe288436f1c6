package service

// Reencrypt opens token with from and seals the plaintext with to.
//
// An empty token stays empty. Unlike Decrypt, a token that cannot be opened is an
// error here: rotating must never silently turn stored data into blanks.
func Reencrypt(token string, from, to FieldCipher) (string, error) {
	result := from.Open(token)
	if result.Empty() {
		return "", nil
	}
	if !result.Ok() {
		return "", result.Err
	}
	return to.Encrypt(result.Value)
}
