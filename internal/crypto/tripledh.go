package crypto

import (
	"crypto/sha256"

	"palaver/internal/domain"
	"palaver/internal/util/memzero"
)

// TripleDH computes the pairwise secret between the local party and a peer
// from three X25519 exchanges: long-term with ephemeral both ways, plus
// ephemeral with ephemeral. peerIsFirst orders the first two inputs so both
// sides hash the same byte string; the party whose long-term X25519 public
// key is lexicographically smaller goes first.
func TripleDH(longTerm, ephemeral domain.Identity, peerLT, peerEph domain.PublicKey, peerIsFirst bool) ([32]byte, error) {
	var out [32]byte

	ltEph, err := DH(longTerm.XPriv, peerEph.X)
	if err != nil {
		return out, err
	}
	defer memzero.Zero32(&ltEph)

	ephLT, err := DH(ephemeral.XPriv, peerLT.X)
	if err != nil {
		return out, err
	}
	defer memzero.Zero32(&ephLT)

	ephEph, err := DH(ephemeral.XPriv, peerEph.X)
	if err != nil {
		return out, err
	}
	defer memzero.Zero32(&ephEph)

	h := sha256.New()
	if peerIsFirst {
		h.Write(ephLT[:])
		h.Write(ltEph[:])
	} else {
		h.Write(ltEph[:])
		h.Write(ephLT[:])
	}
	h.Write(ephEph[:])
	copy(out[:], h.Sum(nil))
	return out, nil
}

// AuthToken derives the token a party presents to prove it ran the triple
// Diffie–Hellman; id is the presenting party's own identity. Both sides
// compute it: the sender passes its own id, the verifier passes the
// sender's id.
func AuthToken(p2p [32]byte, id domain.ParticipantID) [32]byte {
	h := sha256.New()
	h.Write(p2p[:])
	h.Write(id.Bytes())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
