package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptCredentialRoundTrip(t *testing.T) {
	key, err := KeyFromString("01234567890123456789012345678901")
	require.NoError(t, err)

	ciphertext, err := EncryptCredential("super-secret-api-key", key)
	require.NoError(t, err)
	assert.NotEqual(t, "super-secret-api-key", ciphertext)

	plaintext, err := DecryptCredential(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "super-secret-api-key", plaintext)
}

func TestDecryptCredentialRejectsTamperedCiphertext(t *testing.T) {
	key, err := KeyFromString("01234567890123456789012345678901")
	require.NoError(t, err)

	ciphertext, err := EncryptCredential("super-secret-api-key", key)
	require.NoError(t, err)

	tampered := []byte(ciphertext)
	tampered[len(tampered)-1] ^= 0x01

	_, err = DecryptCredential(string(tampered), key)
	assert.Error(t, err)
}

func TestKeyFromStringRejectsWrongLength(t *testing.T) {
	_, err := KeyFromString("too-short")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
