package group

import (
	"crypto/subtle"
	"fmt"

	"palaver/internal/crypto"
	"palaver/internal/domain"
	"palaver/internal/util/memzero"
)

// Participant is the per-peer record inside one session: identity claim,
// session ephemeral key, the pairwise triple-DH secret with the local user,
// the peer's key share for this epoch, and the two auth flags.
type Participant struct {
	ID        domain.ParticipantID
	Ephemeral domain.PublicKey
	Index     uint32

	// Authenticated means we verified the peer's auth token.
	// AuthedTo means we emitted our token for the peer.
	Authenticated bool
	AuthedTo      bool

	p2p       [32]byte
	haveP2P   bool
	share     [32]byte
	haveShare bool
}

// SetEphemeral records the peer's session ephemeral key. Assigning the same
// key again is a no-op; a zero key is rejected.
func (p *Participant) SetEphemeral(pub domain.PublicKey) error {
	if pub.IsZero() {
		return fmt.Errorf("participant %s: %w: zero ephemeral key", p.ID.Nickname, domain.ErrParse)
	}
	p.Ephemeral = pub
	return nil
}

// ComputeP2P runs triple Diffie-Hellman between the local user's keys and
// this peer. The party with the lexicographically smaller long-term X25519
// key contributes first.
func (p *Participant) ComputeP2P(localID domain.ParticipantID, longTerm, ephemeral domain.Identity) error {
	if p.Ephemeral.IsZero() {
		return fmt.Errorf("participant %s: %w: no ephemeral key", p.ID.Nickname, domain.ErrState)
	}
	peerIsFirst := p.ID.LongTerm.Less(localID.LongTerm)
	secret, err := crypto.TripleDH(longTerm, ephemeral, p.ID.LongTerm, p.Ephemeral, peerIsFirst)
	if err != nil {
		return fmt.Errorf("participant %s: %w: %v", p.ID.Nickname, domain.ErrCrypto, err)
	}
	p.p2p = secret
	p.haveP2P = true
	return nil
}

// AdoptP2P carries a pairwise secret forward from a previous session. Used
// when an incumbent keeps its ephemeral key across a membership change.
func (p *Participant) AdoptP2P(from *Participant) {
	if !from.haveP2P {
		return
	}
	p.p2p = from.p2p
	p.haveP2P = true
}

// AuthenticateTo emits the local user's auth token for this peer and marks
// it sent. localID is the local user's identity.
func (p *Participant) AuthenticateTo(localID domain.ParticipantID) ([32]byte, error) {
	if !p.haveP2P {
		return [32]byte{}, fmt.Errorf("participant %s: %w: no pairwise secret", p.ID.Nickname, domain.ErrState)
	}
	p.AuthedTo = true
	return crypto.AuthToken(p.p2p, localID), nil
}

// BeAuthenticated checks the peer's token against a local recomputation
// bound to the peer's own identity. A mismatch is fatal to the session.
func (p *Participant) BeAuthenticated(token [32]byte) error {
	if !p.haveP2P {
		return fmt.Errorf("participant %s: %w: no pairwise secret", p.ID.Nickname, domain.ErrState)
	}
	want := crypto.AuthToken(p.p2p, p.ID)
	if subtle.ConstantTimeCompare(want[:], token[:]) != 1 {
		return fmt.Errorf("participant %s: %w", p.ID.Nickname, domain.ErrAuthentication)
	}
	p.Authenticated = true
	return nil
}

// SetShare records the peer's published key share for this epoch.
func (p *Participant) SetShare(share [32]byte) {
	p.share = share
	p.haveShare = true
}

// HasShare reports whether the peer's key share is known.
func (p *Participant) HasShare() bool { return p.haveShare }

// P2P exposes the pairwise secret for share derivation.
func (p *Participant) P2P() ([32]byte, bool) { return p.p2p, p.haveP2P }

// Share exposes the peer's key share for group key derivation.
func (p *Participant) Share() ([32]byte, bool) { return p.share, p.haveShare }

// Wipe zeroes the secrets held in the record.
func (p *Participant) Wipe() {
	memzero.Zero32(&p.p2p)
	memzero.Zero32(&p.share)
	p.haveP2P = false
	p.haveShare = false
}

// Unauthenticated returns the wire view of the participant.
func (p *Participant) Unauthenticated() domain.UnauthenticatedParticipant {
	return domain.UnauthenticatedParticipant{ID: p.ID, Ephemeral: p.Ephemeral}
}
