package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF32 expands ikm into a 32-byte key with HKDF-SHA256.
func HKDF32(ikm, salt []byte, info string) ([32]byte, error) {
	var out [32]byte
	r := hkdf.New(sha256.New, ikm, salt, []byte(info))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, err
	}
	return out, nil
}
