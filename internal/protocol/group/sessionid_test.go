package group

import (
	"testing"

	"palaver/internal/crypto"
	"palaver/internal/domain"
)

func testMember(t *testing.T, nick string) domain.UnauthenticatedParticipant {
	t.Helper()
	lt, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	eph, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	return domain.UnauthenticatedParticipant{
		ID:        domain.ParticipantID{Nickname: nick, LongTerm: lt.Public()},
		Ephemeral: eph.Public(),
	}
}

func TestComputeSessionIDOrderIndependent(t *testing.T) {
	a := testMember(t, "alice")
	b := testMember(t, "bob")
	c := testMember(t, "carol")

	first, err := ComputeSessionID([]domain.UnauthenticatedParticipant{a, b, c})
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	second, err := ComputeSessionID([]domain.UnauthenticatedParticipant{c, a, b})
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	if first != second {
		t.Fatalf("session id depends on insertion order")
	}
}

func TestComputeSessionIDSensitivity(t *testing.T) {
	a := testMember(t, "alice")
	b := testMember(t, "bob")

	base, err := ComputeSessionID([]domain.UnauthenticatedParticipant{a, b})
	if err != nil {
		t.Fatalf("session id: %v", err)
	}

	b2 := testMember(t, "bob")
	rekeyed, err := ComputeSessionID([]domain.UnauthenticatedParticipant{a, b2})
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	if base == rekeyed {
		t.Fatalf("session id ignores ephemeral keys")
	}

	solo, err := ComputeSessionID([]domain.UnauthenticatedParticipant{a})
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	if base == solo {
		t.Fatalf("session id ignores membership")
	}
}

func TestComputeSessionIDRejectsBadViews(t *testing.T) {
	if _, err := ComputeSessionID(nil); err == nil {
		t.Fatalf("want error for empty participant set")
	}

	a := testMember(t, "alice")
	b := testMember(t, "bob")
	b.Ephemeral = domain.PublicKey{}
	if _, err := ComputeSessionID([]domain.UnauthenticatedParticipant{a, b}); err == nil {
		t.Fatalf("want error for zero ephemeral key")
	}
}
