package domain

import "bytes"

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is a signing public key.
type Ed25519Public [32]byte

func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is a signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

func (k Ed25519Private) Slice() []byte { return k[:] }

// PublicKeySize is the wire size of a PublicKey: X25519 pub then Ed25519 pub.
const PublicKeySize = 64

// PublicKey is the public half of an identity as it travels on the wire.
type PublicKey struct {
	X  X25519Public
	Ed Ed25519Public
}

// Bytes returns the 64-byte wire form, X25519 first.
func (p PublicKey) Bytes() []byte {
	out := make([]byte, 0, PublicKeySize)
	out = append(out, p.X[:]...)
	return append(out, p.Ed[:]...)
}

// PublicKeyFromBytes parses a 64-byte wire form. Returns false on bad length.
func PublicKeyFromBytes(b []byte) (PublicKey, bool) {
	if len(b) != PublicKeySize {
		return PublicKey{}, false
	}
	var p PublicKey
	copy(p.X[:], b[:32])
	copy(p.Ed[:], b[32:])
	return p, true
}

// IsZero reports whether the key is the all-zero value.
func (p PublicKey) IsZero() bool {
	var zero PublicKey
	return p == zero
}

// Less orders keys by their X25519 half, the ordering used everywhere a
// deterministic party order is needed.
func (p PublicKey) Less(q PublicKey) bool {
	return bytes.Compare(p.X[:], q.X[:]) < 0
}

// Identity holds a full keypair: Diffie-Hellman and signing halves.
type Identity struct {
	XPub   X25519Public
	XPriv  X25519Private
	EdPub  Ed25519Public
	EdPriv Ed25519Private
}

// Public returns the shareable half.
func (id Identity) Public() PublicKey {
	return PublicKey{X: id.XPub, Ed: id.EdPub}
}
