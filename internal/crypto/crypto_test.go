package crypto

import (
	"bytes"
	"testing"

	"palaver/internal/domain"
)

func mustIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	return id
}

func TestTripleDHSymmetry(t *testing.T) {
	aLT, aEph := mustIdentity(t), mustIdentity(t)
	bLT, bEph := mustIdentity(t), mustIdentity(t)

	aFirst := aLT.Public().Less(bLT.Public())

	fromA, err := TripleDH(aLT, aEph, bLT.Public(), bEph.Public(), !aFirst)
	if err != nil {
		t.Fatalf("TripleDH (a): %v", err)
	}
	fromB, err := TripleDH(bLT, bEph, aLT.Public(), aEph.Public(), aFirst)
	if err != nil {
		t.Fatalf("TripleDH (b): %v", err)
	}
	if fromA != fromB {
		t.Fatalf("pairwise secrets disagree:\n a=%x\n b=%x", fromA, fromB)
	}
}

func TestTripleDHBindsEphemerals(t *testing.T) {
	aLT, aEph := mustIdentity(t), mustIdentity(t)
	bLT, bEph := mustIdentity(t), mustIdentity(t)
	bEph2 := mustIdentity(t)

	k1, err := TripleDH(aLT, aEph, bLT.Public(), bEph.Public(), false)
	if err != nil {
		t.Fatalf("TripleDH: %v", err)
	}
	k2, err := TripleDH(aLT, aEph, bLT.Public(), bEph2.Public(), false)
	if err != nil {
		t.Fatalf("TripleDH: %v", err)
	}
	if k1 == k2 {
		t.Fatal("secret did not change with a new ephemeral key")
	}
}

func TestAuthTokenMatchesAcrossParties(t *testing.T) {
	var p2p [32]byte
	copy(p2p[:], bytes.Repeat([]byte{7}, 32))

	id := domain.ParticipantID{Nickname: "bob", LongTerm: mustIdentity(t).Public()}
	if AuthToken(p2p, id) != AuthToken(p2p, id) {
		t.Fatal("auth token is not deterministic")
	}

	other := domain.ParticipantID{Nickname: "mallory", LongTerm: id.LongTerm}
	if AuthToken(p2p, id) == AuthToken(p2p, other) {
		t.Fatal("auth token ignores the nickname")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	var key [32]byte
	copy(key[:], bytes.Repeat([]byte{3}, 32))

	box, err := Seal(key, []byte("attack at dawn"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	pt, err := Open(key, box)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(pt) != "attack at dawn" {
		t.Fatalf("round trip mismatch: %q", pt)
	}
}

func TestOpenRejectsTamper(t *testing.T) {
	var key [32]byte
	box, err := Seal(key, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	box[len(box)-1] ^= 1
	if _, err := Open(key, box); err == nil {
		t.Fatal("Open accepted a tampered ciphertext")
	}

	var other [32]byte
	other[0] = 1
	box2, err := Seal(key, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(other, box2); err == nil {
		t.Fatal("Open accepted the wrong key")
	}
}

func TestHKDF32Deterministic(t *testing.T) {
	ikm := []byte("input keying material")
	salt := []byte("salt")

	a, err := HKDF32(ikm, salt, "label")
	if err != nil {
		t.Fatalf("HKDF32: %v", err)
	}
	b, err := HKDF32(ikm, salt, "label")
	if err != nil {
		t.Fatalf("HKDF32: %v", err)
	}
	if a != b {
		t.Fatal("HKDF32 is not deterministic")
	}
	c, err := HKDF32(ikm, salt, "other")
	if err != nil {
		t.Fatalf("HKDF32: %v", err)
	}
	if a == c {
		t.Fatal("HKDF32 ignores the info string")
	}
}
