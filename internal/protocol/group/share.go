package group

import (
	"crypto/sha256"

	"palaver/internal/crypto"
	"palaver/internal/domain"
	"palaver/internal/util/memzero"
)

const shareLabel = "palaver-share"

// deriveShare computes the local user's key share for this epoch from all
// of its pairwise secrets, in peer index order, salted with the session id.
// Shares inherit the forward secrecy of the ephemeral triple-DH secrets.
func deriveShare(p2ps [][32]byte, sid SessionID) ([32]byte, error) {
	ikm := make([]byte, 0, len(p2ps)*32)
	for i := range p2ps {
		ikm = append(ikm, p2ps[i][:]...)
	}
	defer memzero.Zero(ikm)
	return crypto.HKDF32(ikm, sid[:], shareLabel)
}

// deriveGroupKey hashes the session id and every member's share in index
// order. Any missing or altered share changes or prevents the digest.
func deriveGroupKey(sid SessionID, shares [][32]byte) [32]byte {
	h := sha256.New()
	h.Write(sid[:])
	for i := range shares {
		h.Write(shares[i][:])
	}
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// confirmationFor proves derivation of the group key, bound to the sender.
func confirmationFor(groupKey [32]byte, sender domain.ParticipantID) [32]byte {
	h := sha256.New()
	h.Write(groupKey[:])
	h.Write(sender.Bytes())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
