package group

import (
	"errors"
	"testing"

	"palaver/internal/crypto"
	"palaver/internal/domain"
)

type testParty struct {
	id  domain.ParticipantID
	lt  domain.Identity
	eph domain.Identity
}

func newTestParty(t *testing.T, nick string) testParty {
	t.Helper()
	lt, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	eph, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	return testParty{
		id:  domain.ParticipantID{Nickname: nick, LongTerm: lt.Public()},
		lt:  lt,
		eph: eph,
	}
}

// peerRecord is the view one party holds of another.
func peerRecord(of testParty) *Participant {
	return &Participant{ID: of.id, Ephemeral: of.eph.Public()}
}

func TestPairwiseSecretSymmetry(t *testing.T) {
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")

	bobAtAlice := peerRecord(bob)
	if err := bobAtAlice.ComputeP2P(alice.id, alice.lt, alice.eph); err != nil {
		t.Fatalf("alice p2p: %v", err)
	}
	aliceAtBob := peerRecord(alice)
	if err := aliceAtBob.ComputeP2P(bob.id, bob.lt, bob.eph); err != nil {
		t.Fatalf("bob p2p: %v", err)
	}

	left, _ := bobAtAlice.P2P()
	right, _ := aliceAtBob.P2P()
	if left != right {
		t.Fatalf("pairwise secrets differ between the two parties")
	}
}

func TestAuthTokenRoundTrip(t *testing.T) {
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")

	bobAtAlice := peerRecord(bob)
	if err := bobAtAlice.ComputeP2P(alice.id, alice.lt, alice.eph); err != nil {
		t.Fatalf("alice p2p: %v", err)
	}
	aliceAtBob := peerRecord(alice)
	if err := aliceAtBob.ComputeP2P(bob.id, bob.lt, bob.eph); err != nil {
		t.Fatalf("bob p2p: %v", err)
	}

	token, err := bobAtAlice.AuthenticateTo(alice.id)
	if err != nil {
		t.Fatalf("emit token: %v", err)
	}
	if !bobAtAlice.AuthedTo {
		t.Fatalf("AuthedTo not recorded")
	}
	if err := aliceAtBob.BeAuthenticated(token); err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if !aliceAtBob.Authenticated {
		t.Fatalf("Authenticated not recorded")
	}
}

func TestAuthTokenTamperFails(t *testing.T) {
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")

	bobAtAlice := peerRecord(bob)
	if err := bobAtAlice.ComputeP2P(alice.id, alice.lt, alice.eph); err != nil {
		t.Fatalf("alice p2p: %v", err)
	}
	aliceAtBob := peerRecord(alice)
	if err := aliceAtBob.ComputeP2P(bob.id, bob.lt, bob.eph); err != nil {
		t.Fatalf("bob p2p: %v", err)
	}

	token, err := bobAtAlice.AuthenticateTo(alice.id)
	if err != nil {
		t.Fatalf("emit token: %v", err)
	}
	token[0] ^= 0xff
	err = aliceAtBob.BeAuthenticated(token)
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("want ErrAuthentication, got %v", err)
	}
	if aliceAtBob.Authenticated {
		t.Fatalf("tampered token marked authenticated")
	}
}

func TestComputeP2PRequiresEphemeral(t *testing.T) {
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")

	p := &Participant{ID: bob.id}
	if err := p.ComputeP2P(alice.id, alice.lt, alice.eph); !errors.Is(err, domain.ErrState) {
		t.Fatalf("want ErrState without ephemeral, got %v", err)
	}
	if err := p.SetEphemeral(domain.PublicKey{}); !errors.Is(err, domain.ErrParse) {
		t.Fatalf("want ErrParse for zero ephemeral, got %v", err)
	}
}

func TestWipeDropsSecrets(t *testing.T) {
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")

	p := peerRecord(bob)
	if err := p.ComputeP2P(alice.id, alice.lt, alice.eph); err != nil {
		t.Fatalf("p2p: %v", err)
	}
	p.SetShare([32]byte{1, 2, 3})
	p.Wipe()
	if _, ok := p.P2P(); ok {
		t.Fatalf("pairwise secret survived wipe")
	}
	if p.HasShare() {
		t.Fatalf("share survived wipe")
	}
}
