package service

import (
	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
)

// ManagerFactory builds EncryptionManagers with the process-wide salt, algorithm and
// compression settings.
type ManagerFactory struct {
	salt      []byte
	algorithm cryptoDomain.Algorithm
	threshold int
}

// NewManagerFactory validates the settings once so that New never fails.
// An empty salt falls back to DefaultSalt.
func NewManagerFactory(salt string, alg cryptoDomain.Algorithm, compressionThreshold int) (*ManagerFactory, error) {
	if _, err := cryptoDomain.AlgorithmID(alg); err != nil {
		return nil, err
	}
	if salt == "" {
		salt = cryptoDomain.DefaultSalt
	}
	return &ManagerFactory{
		salt:      []byte(salt),
		algorithm: alg,
		threshold: compressionThreshold,
	}, nil
}

// New returns a manager for masterSecret.
func (f *ManagerFactory) New(masterSecret string) *EncryptionManager {
	return NewEncryptionManager(
		masterSecret,
		WithSalt(f.salt),
		WithAlgorithm(f.algorithm),
		WithCompressionThreshold(f.threshold),
	)
}

// Salt returns the configured salt. It is also mixed into the stored master key hash.
func (f *ManagerFactory) Salt() string {
	return string(f.salt)
}
