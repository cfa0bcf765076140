package group

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"palaver/internal/domain"
	"palaver/internal/protocol/wire"
)

// fakeOps records host callbacks and holds timers for manual firing.
type fakeOps struct {
	sent      []string
	joins     []string
	leaves    []string
	displayed []string

	timers    map[int]func()
	durations map[int]time.Duration
	nextTimer int
}

func newFakeOps() *fakeOps {
	return &fakeOps{
		timers:    make(map[int]func()),
		durations: make(map[int]time.Duration),
	}
}

func (f *fakeOps) SendBare(room, sender, payload string) { f.sent = append(f.sent, payload) }
func (f *fakeOps) Join(room, nickname string)            { f.joins = append(f.joins, nickname) }
func (f *fakeOps) Leave(room, nickname string)           { f.leaves = append(f.leaves, nickname) }
func (f *fakeOps) DisplayMessage(room, sender, plaintext string) {
	f.displayed = append(f.displayed, sender+": "+plaintext)
}

func (f *fakeOps) SetTimer(d time.Duration, fn func()) domain.TimerHandle {
	f.nextTimer++
	f.timers[f.nextTimer] = fn
	f.durations[f.nextTimer] = d
	return f.nextTimer
}

func (f *fakeOps) AxeTimer(h domain.TimerHandle) {
	if id, ok := h.(int); ok {
		delete(f.timers, id)
		delete(f.durations, id)
	}
}

// fireAll runs and clears every pending timer.
func (f *fakeOps) fireAll() {
	pending := f.timers
	f.timers = make(map[int]func())
	f.durations = make(map[int]time.Duration)
	for _, fn := range pending {
		fn()
	}
}

func (f *fakeOps) lastFrame(t *testing.T) *wire.Envelope {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatalf("no frames emitted")
	}
	env, err := wire.Decode(f.sent[len(f.sent)-1])
	if err != nil {
		t.Fatalf("decode emitted frame: %v", err)
	}
	return env
}

func TestSoloJoinerIsLiveImmediately(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")

	s, err := NewJoiner("lounge", alice.lt, "alice", nil, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("solo joiner: %v", err)
	}
	if s.State() != StateInSession {
		t.Fatalf("solo state %s, want %s", s.State(), StateInSession)
	}
	if _, ok := s.GroupKey(); !ok {
		t.Fatalf("solo session has no group key")
	}
	if len(ops.sent) != 0 {
		t.Fatalf("solo join broadcast %d frames, want none", len(ops.sent))
	}
	if len(ops.timers) != 0 {
		t.Fatalf("heartbeat armed with a single member")
	}
}

func TestJoinerBroadcastsJoinRequest(t *testing.T) {
	ops := newFakeOps()
	bob := newTestParty(t, "bob")
	roster := []domain.UnauthenticatedParticipant{
		{ID: domain.ParticipantID{Nickname: "alice"}},
	}

	s, err := NewJoiner("lounge", bob.lt, "bob", roster, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("joiner: %v", err)
	}
	if s.State() != StateJoinRequested {
		t.Fatalf("state %s, want %s", s.State(), StateJoinRequested)
	}
	if s.ID() != (SessionID{}) {
		t.Fatalf("joiner already has a session id before seeing a view")
	}

	env := ops.lastFrame(t)
	if env.Type != wire.TypeJoinRequest {
		t.Fatalf("emitted %s, want JOIN_REQUEST", env.Type)
	}
	if env.Sender != "bob" {
		t.Fatalf("sender %q, want bob", env.Sender)
	}
	if env.JoinRequest.LongTerm != bob.lt.Public() {
		t.Fatalf("join request carries a foreign long-term key")
	}
}

// joinRequestedSession builds bob's session as if his JOIN_REQUEST had been
// answered, with the full two-member view already known.
func joinRequestedSession(t *testing.T, ops *fakeOps, alice, bob testParty) (*Session, []domain.UnauthenticatedParticipant, SessionID) {
	t.Helper()
	view := []domain.UnauthenticatedParticipant{
		{ID: alice.id, Ephemeral: alice.eph.Public()},
		{ID: bob.id, Ephemeral: bob.eph.Public()},
	}
	sid, err := ComputeSessionID(view)
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	s := newSession("lounge", bob.lt, bob.id, bob.eph, view, ops, zap.NewNop(), DefaultTiming)
	s.id = sid
	s.chain = NewChain(sid)
	s.state = StateJoinRequested
	return s, view, sid
}

func TestForgedJoinerTokenKillsSession(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")
	s, view, sid := joinRequestedSession(t, ops, alice, bob)

	raw, err := wire.Encode(wire.Message{
		Type:      wire.TypeParticipantInfo,
		SessionID: sid,
		Sender:    "alice",
		ParticipantInfo: &wire.ParticipantInfo{
			Participants: view,
			JoinerToken:  [32]byte{0xde, 0xad},
			Share:        [32]byte{1},
		},
	}, alice.eph.EdPriv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	res, err := s.Handle(env, 1)
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("want ErrAuthentication, got %v", err)
	}
	if s.State() != StateDead {
		t.Fatalf("state %s after forged token, want %s", s.State(), StateDead)
	}
	if res.Action.Type != domain.ActionWarning {
		t.Fatalf("action %v, want warning", res.Action.Type)
	}
	if _, ok := s.GroupKey(); ok {
		t.Fatalf("group key derived despite forged token")
	}
}

func TestParticipantInfoWrongSignatureRejected(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")
	mallory := newTestParty(t, "mallory")
	s, view, sid := joinRequestedSession(t, ops, alice, bob)

	raw, err := wire.Encode(wire.Message{
		Type:      wire.TypeParticipantInfo,
		SessionID: sid,
		Sender:    "alice",
		ParticipantInfo: &wire.ParticipantInfo{
			Participants: view,
			JoinerToken:  [32]byte{1},
			Share:        [32]byte{2},
		},
	}, mallory.eph.EdPriv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if _, err := s.Handle(env, 1); !errors.Is(err, domain.ErrParse) {
		t.Fatalf("want ErrParse for bad signature, got %v", err)
	}
	if s.State() != StateJoinRequested {
		t.Fatalf("bad signature killed the session")
	}
}

func TestMismatchedViewAsksForRespawn(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")
	bob := newTestParty(t, "bob")
	roster := []domain.UnauthenticatedParticipant{{ID: domain.ParticipantID{Nickname: "alice"}}}

	s, err := NewJoiner("lounge", bob.lt, "bob", roster, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("joiner: %v", err)
	}

	view := []domain.UnauthenticatedParticipant{
		{ID: alice.id, Ephemeral: alice.eph.Public()},
		{ID: bob.id, Ephemeral: bob.eph.Public()},
	}
	sid, err := ComputeSessionID(view)
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	raw, err := wire.Encode(wire.Message{
		Type:      wire.TypeParticipantInfo,
		SessionID: sid,
		Sender:    "alice",
		ParticipantInfo: &wire.ParticipantInfo{
			Participants: view,
			JoinerToken:  [32]byte{1},
			Share:        [32]byte{2},
		},
	}, alice.eph.EdPriv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	res, err := s.Handle(env, 1)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Respawn == nil {
		t.Fatalf("joiner accepted a view under a foreign session id")
	}
}

func TestSendUserRequiresLiveSession(t *testing.T) {
	ops := newFakeOps()
	bob := newTestParty(t, "bob")
	roster := []domain.UnauthenticatedParticipant{{ID: domain.ParticipantID{Nickname: "alice"}}}

	s, err := NewJoiner("lounge", bob.lt, "bob", roster, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("joiner: %v", err)
	}
	if err := s.SendUser("too early"); !errors.Is(err, domain.ErrState) {
		t.Fatalf("want ErrState before agreement, got %v", err)
	}
}

func TestKillWipesAndAbsorbs(t *testing.T) {
	ops := newFakeOps()
	alice := newTestParty(t, "alice")

	s, err := NewJoiner("lounge", alice.lt, "alice", nil, ops, zap.NewNop(), DefaultTiming)
	if err != nil {
		t.Fatalf("solo joiner: %v", err)
	}
	s.Kill()
	if s.State() != StateDead {
		t.Fatalf("state %s after kill, want %s", s.State(), StateDead)
	}
	if _, ok := s.GroupKey(); ok {
		t.Fatalf("group key survived kill")
	}

	sent := len(ops.sent)
	s.Kill()
	if s.State() != StateDead || len(ops.sent) != sent {
		t.Fatalf("kill is not absorbing")
	}
}
