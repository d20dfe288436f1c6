package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

func TestReencrypt(t *testing.T) {
	oldManager := NewEncryptionManager("demo_master_key_123")
	newManager := NewEncryptionManager("new_master_key_456")

	t.Run("string", func(t *testing.T) {
		token, err := oldManager.Encrypt("Alex")
		require.NoError(t, err)

		rotated, err := Reencrypt(token, oldManager, newManager)
		require.NoError(t, err)

		got, ok := newManager.Decrypt(rotated)
		require.True(t, ok)
		assert.Equal(t, "Alex", got)

		_, ok = oldManager.Decrypt(rotated)
		assert.False(t, ok)
	})

	t.Run("structured value keeps its json", func(t *testing.T) {
		token, err := oldManager.Encrypt(map[string]any{"q": "first pet"})
		require.NoError(t, err)

		rotated, err := Reencrypt(token, oldManager, newManager)
		require.NoError(t, err)

		got, ok := newManager.DecryptStructured(rotated)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"q": "first pet"}, got)
	})

	t.Run("empty stays empty", func(t *testing.T) {
		rotated, err := Reencrypt("", oldManager, newManager)
		require.NoError(t, err)
		assert.Equal(t, "", rotated)
	})

	t.Run("unreadable token is an error", func(t *testing.T) {
		token, err := newManager.Encrypt("Alex")
		require.NoError(t, err)

		_, err = Reencrypt(token, oldManager, newManager)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestManagerFactory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		factory, err := NewManagerFactory("tenant-salt", cryptoDomain.ChaCha20, 0)
		require.NoError(t, err)
		assert.Equal(t, "tenant-salt", factory.Salt())

		token, err := factory.New("demo_master_key_123").Encrypt("Alex")
		require.NoError(t, err)

		got, ok := factory.New("demo_master_key_123").Decrypt(token)
		require.True(t, ok)
		assert.Equal(t, "Alex", got)

		direct := NewEncryptionManager("demo_master_key_123", WithSalt([]byte("tenant-salt")))
		_, ok = direct.Decrypt(token)
		assert.True(t, ok)
	})

	t.Run("empty salt falls back to default", func(t *testing.T) {
		factory, err := NewManagerFactory("", cryptoDomain.AESGCM, 1024)
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.DefaultSalt, factory.Salt())
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := NewManagerFactory("salt", cryptoDomain.Algorithm("des"), 0)
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})
}
