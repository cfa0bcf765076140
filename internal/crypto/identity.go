package crypto

import "palaver/internal/domain"

// GenerateIdentity returns a fresh dual keypair: an X25519 pair for
// Diffie–Hellman and an Ed25519 pair for signatures. Both long-term and
// per-session ephemeral identities use this shape.
func GenerateIdentity() (domain.Identity, error) {
	xpriv, xpub, err := GenerateX25519()
	if err != nil {
		return domain.Identity{}, err
	}
	edpriv, edpub, err := GenerateEd25519()
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		XPub:   xpub,
		XPriv:  xpriv,
		EdPub:  edpub,
		EdPriv: edpriv,
	}, nil
}
