// Package cryptox implements the cryptography behind vault transfers:
// X25519 sealed boxes for key exchange with a peer, and an argon2id
// passphrase mode for transfers without one.
package cryptox

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// DerivePassphraseKey stretches a passphrase into an AES-256 key with
// argon2id. The same passphrase and salt always yield the same key.
func DerivePassphraseKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}

// SealWithPassphrase encrypts plaintext under a key derived from the
// passphrase and a fresh random salt. The ciphertext layout matches
// KeyPair.Seal (nonce || sealed data), so both modes share one file format.
func SealWithPassphrase(passphrase, plaintext []byte) (encrypted, salt []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("csprng: %w", err)
	}

	encrypted, err = aesGCMSeal(DerivePassphraseKey(passphrase, salt), plaintext)
	if err != nil {
		return nil, nil, err
	}
	return encrypted, salt, nil
}

// OpenWithPassphrase decrypts data sealed by SealWithPassphrase.
func OpenWithPassphrase(passphrase, salt, encrypted []byte) ([]byte, error) {
	return aesGCMOpen(DerivePassphraseKey(passphrase, salt), encrypted)
}
