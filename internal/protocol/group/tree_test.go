package group

import (
	"testing"

	"go.uber.org/zap"

	"palaver/internal/domain"
)

func soloTree(t *testing.T, ops *fakeOps, p testParty) *Tree {
	t.Helper()
	tree := NewTree("lounge", p.id.Nickname, ops, zap.NewNop())
	s, err := NewJoiner("lounge", p.lt, p.id.Nickname, nil, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("solo joiner: %v", err)
	}
	tree.Seed(s)
	return tree
}

func TestSeedPromotesLiveSession(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")

	tree := soloTree(t, ops, alice)
	if tree.Active() == nil {
		t.Fatalf("live session not promoted on seed")
	}
	if got := tree.Active().Members(); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("members %v, want [alice]", got)
	}
	if len(ops.joins) != 1 || ops.joins[0] != "alice" {
		t.Fatalf("join callbacks %v, want our own arrival", ops.joins)
	}
}

func TestSeedStagesPendingJoiner(t *testing.T) {
	ops := newFakeOps()
	bob := newTestParty(t, "bob")
	roster := []domain.UnauthenticatedParticipant{{ID: domain.ParticipantID{Nickname: "alice"}}}

	tree := NewTree("lounge", "bob", ops, zap.NewNop())
	s, err := NewJoiner("lounge", bob.lt, "bob", roster, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("joiner: %v", err)
	}
	tree.Seed(s)
	if tree.Active() != nil {
		t.Fatalf("pending joiner promoted before agreement")
	}
}

func TestLeaveMarkerIgnoresStrangers(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")

	tree := soloTree(t, ops, alice)
	if action := tree.HandleLeaveMarker("nobody"); action.Type != domain.ActionNone {
		t.Fatalf("leave of a stranger produced %v", action.Type)
	}
	if action := tree.HandleLeaveMarker("alice"); action.Type != domain.ActionNone {
		t.Fatalf("our own leave marker produced %v", action.Type)
	}
}

func TestShutdownRetiresEverything(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")

	tree := soloTree(t, ops, alice)
	tree.Shutdown()
	if tree.Active() != nil {
		t.Fatalf("active session survived shutdown")
	}
	if len(ops.timers) != 0 {
		t.Fatalf("timers survived shutdown")
	}
}
