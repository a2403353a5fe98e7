package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPair_SealOpenRoundTrip(t *testing.T) {
	importing, err := NewKeyPair()
	require.NoError(t, err)

	exporting, err := NewKeyPair()
	require.NoError(t, err)

	plaintext := []byte(`{"passkeys":[{"id":"cred-1"}]}`)

	encrypted, salt, err := exporting.Seal(importing.PublicKey(), plaintext)
	require.NoError(t, err)
	require.Len(t, salt, saltSize)
	require.False(t, bytes.Contains(encrypted, plaintext), "sealed data must not leak plaintext")

	decrypted, err := importing.Open(exporting.PublicKey(), salt, encrypted)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestKeyPair_OpenWithWrongKeyFails(t *testing.T) {
	importing, err := NewKeyPair()
	require.NoError(t, err)
	exporting, err := NewKeyPair()
	require.NoError(t, err)
	eavesdropper, err := NewKeyPair()
	require.NoError(t, err)

	encrypted, salt, err := exporting.Seal(importing.PublicKey(), []byte("vault"))
	require.NoError(t, err)

	_, err = eavesdropper.Open(exporting.PublicKey(), salt, encrypted)
	require.Error(t, err)
}

func TestKeyPair_OpenRejectsTruncatedData(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	_, err = kp.Open(kp.PublicKey(), make([]byte, saltSize), []byte("short"))
	require.Error(t, err)
}

func TestNewKeyPair_KeysAreUnique(t *testing.T) {
	a, err := NewKeyPair()
	require.NoError(t, err)
	b, err := NewKeyPair()
	require.NoError(t, err)
	require.NotEqual(t, a.PublicKey(), b.PublicKey())
}
