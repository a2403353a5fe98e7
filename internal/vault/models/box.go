package models

// OpenBox is the file an importing party publishes: the public half of an
// ephemeral X25519 key pair the exporter seals the vault to.
type OpenBox struct {
	PublicKey Blob `json:"publicKey"`
}

// SealedBox carries the encrypted vault back to the importer.
//
// EncryptedVault is nonce || AES-256-GCM ciphertext of the vault JSON.
// PublicKey is the exporter's ephemeral public key; it is empty in
// passphrase mode, where KeyDerivationSalt feeds argon2id instead of HKDF.
type SealedBox struct {
	PublicKey         Blob `json:"publicKey,omitempty"`
	EncryptedVault    Blob `json:"encryptedVault"`
	KeyDerivationSalt Blob `json:"keyDerivationSalt"`
}

// Passphrase reports whether the box was sealed with a passphrase rather
// than to a peer public key.
func (b *SealedBox) Passphrase() bool {
	return len(b.PublicKey) == 0
}
