package bridge

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrInvalidKey is returned when a credential encryption key is not
// exactly 32 bytes.
var ErrInvalidKey = errors.New("bridge: encryption key must be 32 bytes")

// ErrInvalidCiphertext is returned when a ciphertext cannot be opened,
// either malformed or authenticated against the wrong key.
var ErrInvalidCiphertext = errors.New("bridge: invalid or tampered ciphertext")

// EncryptCredential encrypts a bridge API key for storage at rest, using
// NaCl secretbox (XSalsa20-Poly1305).
func EncryptCredential(plaintext string, key [32]byte) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.Wrap(err, "bridge: generate nonce")
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptCredential reverses EncryptCredential.
func DecryptCredential(ciphertext string, key [32]byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(data) < 24 {
		return "", ErrInvalidCiphertext
	}
	var nonce [24]byte
	copy(nonce[:], data[:24])

	plaintext, ok := secretbox.Open(nil, data[24:], &nonce, &key)
	if !ok {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

// KeyFromString derives a 32-byte key from an operator-supplied secret.
// The secret must already be exactly 32 bytes; this only reshapes it into
// the array secretbox expects.
func KeyFromString(secret string) ([32]byte, error) {
	var key [32]byte
	if len(secret) != 32 {
		return key, ErrInvalidKey
	}
	copy(key[:], secret)
	return key, nil
}
