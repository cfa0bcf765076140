package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceBytes is the AEAD nonce size used on the wire.
const NonceBytes = chacha20poly1305.NonceSize

// Seal encrypts plaintext under key with ChaCha20-Poly1305. The random nonce
// is prepended to the returned ciphertext.
func Seal(key [32]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, NonceBytes, NonceBytes+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(out[:NonceBytes]); err != nil {
		return nil, err
	}
	return aead.Seal(out, out[:NonceBytes], plaintext, nil), nil
}

// Open decrypts a Seal-produced ciphertext.
func Open(key [32]byte, box []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	if len(box) < NonceBytes+aead.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	return aead.Open(nil, box[:NonceBytes], box[NonceBytes:], nil)
}
