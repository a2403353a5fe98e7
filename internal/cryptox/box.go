package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	saltSize  = 32
	nonceSize = 12
	keySize   = 32
)

// KeyPair is a single-use X25519 key pair for one vault transfer.
// The private scalar never leaves this package.
type KeyPair struct {
	private []byte
	public  []byte
}

// NewKeyPair generates an ephemeral X25519 key pair from crypto/rand.
func NewKeyPair() (*KeyPair, error) {
	private := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(private); err != nil {
		return nil, fmt.Errorf("csprng: %w", err)
	}

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("computing public key: %w", err)
	}

	return &KeyPair{private: private, public: public}, nil
}

// PublicKey returns the public half, suitable for publishing as an open box.
func (kp *KeyPair) PublicKey() []byte {
	return kp.public
}

// Seal encrypts plaintext to the peer's X25519 public key. The shared secret
// is expanded with HKDF-SHA256 under a fresh random salt into an AES-256-GCM
// key. The returned ciphertext is nonce || sealed data, so a sealed box needs
// only the sender public key, the ciphertext, and the salt to be opened.
func (kp *KeyPair) Seal(peerPublic, plaintext []byte) (encrypted, salt []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("csprng: %w", err)
	}

	key, err := kp.sharedKey(peerPublic, salt)
	if err != nil {
		return nil, nil, err
	}

	encrypted, err = aesGCMSeal(key, plaintext)
	if err != nil {
		return nil, nil, err
	}
	return encrypted, salt, nil
}

// Open decrypts a sealed box produced by a peer's Seal call with this key
// pair's public key.
func (kp *KeyPair) Open(peerPublic, salt, encrypted []byte) ([]byte, error) {
	key, err := kp.sharedKey(peerPublic, salt)
	if err != nil {
		return nil, err
	}
	return aesGCMOpen(key, encrypted)
}

// sharedKey runs X25519 agreement and expands the result into an AES key.
func (kp *KeyPair) sharedKey(peerPublic, salt []byte) ([]byte, error) {
	shared, err := curve25519.X25519(kp.private, peerPublic)
	if err != nil {
		return nil, fmt.Errorf("parsing peer public key: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, nil), key); err != nil {
		return nil, fmt.Errorf("key expansion: %w", err)
	}
	return key, nil
}

// aesGCMSeal encrypts plaintext under key with a random nonce and returns
// nonce || ciphertext+tag.
func aesGCMSeal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("csprng: %w", err)
	}

	return append(nonce, aesgcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// aesGCMOpen splits off the nonce prefix and decrypts the remainder.
func aesGCMOpen(key, encrypted []byte) ([]byte, error) {
	if len(encrypted) <= nonceSize {
		return nil, fmt.Errorf("sealed data too short")
	}
	nonce, ciphertext := encrypted[:nonceSize], encrypted[nonceSize:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed data: %w", err)
	}
	return plaintext, nil
}
