package group

import (
	"fmt"

	"go.uber.org/zap"

	"palaver/internal/domain"
	"palaver/internal/protocol/wire"
)

// Tree owns every session of one room: the single active session plus the
// staging children still running key agreement. Promotion swaps the active
// pointer and kills the losing siblings.
type Tree struct {
	room string
	self string
	ops  domain.Ops
	log  *zap.Logger

	active  *Session
	staging map[SessionID]*Session
}

// NewTree returns an empty tree for a room.
func NewTree(room, self string, ops domain.Ops, log *zap.Logger) *Tree {
	return &Tree{
		room:    room,
		self:    self,
		ops:     ops,
		log:     log,
		staging: make(map[SessionID]*Session),
	}
}

// Active returns the promoted session, if any.
func (t *Tree) Active() *Session { return t.active }

// Seed installs the first session of the room: active immediately when it
// is already live (sole member), staged otherwise.
func (t *Tree) Seed(s *Session) {
	if s.State() == StateInSession {
		t.promote(s)
		return
	}
	t.staging[s.ID()] = s
}

// Route finds the session a message addresses: the active session or an
// exact staging match.
func (t *Tree) Route(sid SessionID) *Session {
	if t.active != nil && t.active.ID() == sid {
		return t.active
	}
	return t.staging[sid]
}

// Deliver parses routing for one inbound protocol message. Unroutable
// messages are dropped; JOIN_REQUEST spawns an incumbent child off the
// active session.
func (t *Tree) Deliver(env *wire.Envelope, msgID uint32) (domain.RoomAction, error) {
	if env.Type == wire.TypeJoinRequest {
		return t.onJoinRequest(env)
	}

	sess := t.Route(env.SessionID)
	if sess == nil && env.Type == wire.TypeParticipantInfo {
		sess = t.waitingJoiner()
	}
	if sess == nil {
		t.log.Debug("no session for message",
			zap.String("room", t.room),
			zap.String("type", env.Type.String()),
			zap.String("sender", env.Sender))
		return domain.RoomAction{}, nil
	}

	res, err := sess.Handle(env, msgID)
	if res.Respawn != nil {
		return t.respawnJoiner(sess, env, msgID)
	}
	t.reap(sess)
	if res.Left != "" {
		t.commitLeave(res.Left)
	}
	if res.Promote {
		t.promote(sess)
	}
	return res.Action, err
}

func (t *Tree) onJoinRequest(env *wire.Envelope) (domain.RoomAction, error) {
	if env.Sender == t.self || t.active == nil {
		return domain.RoomAction{}, nil
	}
	if !env.Verify(env.JoinRequest.Ephemeral.Ed) {
		return domain.RoomAction{}, fmt.Errorf("JOIN_REQUEST from %s: %w: bad signature", env.Sender, domain.ErrParse)
	}
	joiner := domain.UnauthenticatedParticipant{
		ID:        domain.ParticipantID{Nickname: env.Sender, LongTerm: env.JoinRequest.LongTerm},
		Ephemeral: env.JoinRequest.Ephemeral,
	}
	child, err := NewIncumbentOnJoin(t.active, joiner)
	if err != nil {
		return domain.RoomAction{}, err
	}
	t.staging[child.ID()] = child
	return domain.RoomAction{}, nil
}

// waitingJoiner finds a joiner still waiting for its first view.
func (t *Tree) waitingJoiner() *Session {
	for _, s := range t.staging {
		if s.State() == StateJoinRequested {
			return s
		}
	}
	return nil
}

// respawnJoiner replaces a joiner whose view disagreed with an incumbent's
// PARTICIPANT_INFO: the old session dies, a sibling is built around the
// observed view and the message is delivered to it.
func (t *Tree) respawnJoiner(old *Session, env *wire.Envelope, msgID uint32) (domain.RoomAction, error) {
	delete(t.staging, old.ID())

	// Build the sibling before killing the old session: Kill wipes the
	// ephemeral private keys the sibling copies.
	sibling, err := newJoinerSibling(old, env.ParticipantInfo.Participants)
	old.Kill()
	if err != nil {
		return domain.RoomAction{}, err
	}
	if sibling.ID() != env.SessionID {
		sibling.Kill()
		return domain.RoomAction{}, fmt.Errorf("PARTICIPANT_INFO from %s: %w: view does not hash to its session id", env.Sender, domain.ErrParse)
	}
	t.staging[sibling.ID()] = sibling

	res, err := sibling.Handle(env, msgID)
	t.reap(sibling)
	if res.Promote {
		t.promote(sibling)
	}
	return res.Action, err
}

// commitLeave stages the successor session after a member's departure. The
// farewell and the transport's leave marker both land here; the staged
// successor is keyed by its deterministic id, so the second arrival finds
// the child already present and leaves it alone.
func (t *Tree) commitLeave(leaver string) {
	if t.active == nil {
		return
	}
	if sid, err := successorID(t.active, leaver); err == nil {
		if _, staged := t.staging[sid]; staged {
			return
		}
	}
	child, err := NewIncumbentOnLeave(t.active, leaver)
	if err != nil {
		t.log.Warn("leave rekey failed",
			zap.String("room", t.room),
			zap.String("leaver", leaver),
			zap.Error(err))
		return
	}
	if child.State() == StateInSession {
		t.promote(child)
		return
	}
	t.staging[child.ID()] = child
}

// successorID computes the id of the session left once leaver drops out.
func successorID(active *Session, leaver string) (SessionID, error) {
	view := make([]domain.UnauthenticatedParticipant, 0, len(active.participants))
	for _, m := range active.memberView() {
		if m.ID.Nickname != leaver {
			view = append(view, m)
		}
	}
	return ComputeSessionID(view)
}

// promote makes s the room's active session: every staging sibling dies,
// the replaced session flushes any pending farewell and is dropped, and
// membership changes are surfaced to the host.
func (t *Tree) promote(s *Session) {
	delete(t.staging, s.ID())
	for sid, sib := range t.staging {
		sib.Kill()
		delete(t.staging, sid)
	}

	var before map[string]bool
	if t.active != nil {
		before = make(map[string]bool, len(t.active.Members()))
		for _, nick := range t.active.Members() {
			before[nick] = true
		}
		t.active.FlushFarewell()
		t.active.Kill()
	}
	t.active = s

	for _, nick := range s.Members() {
		if !before[nick] {
			t.ops.Join(t.room, nick)
		}
		delete(before, nick)
	}
	for nick := range before {
		t.ops.Leave(t.room, nick)
	}
	t.log.Info("session active",
		zap.String("room", t.room),
		zap.Int("members", len(s.Members())))
}

// reap drops a session that died while handling a message.
func (t *Tree) reap(s *Session) {
	if s.State() != StateDead {
		return
	}
	if s == t.active {
		t.active = nil
		return
	}
	delete(t.staging, s.ID())
}

// HandleLeaveMarker reacts to the transport-level departure announcement
// for a present member.
func (t *Tree) HandleLeaveMarker(nick string) domain.RoomAction {
	if t.active == nil || nick == t.self {
		return domain.RoomAction{}
	}
	present := false
	for _, m := range t.active.Members() {
		if m == nick {
			present = true
			break
		}
	}
	if !present {
		return domain.RoomAction{}
	}
	t.commitLeave(nick)
	return domain.RoomAction{Type: domain.ActionLeft, Room: t.room, Nickname: nick}
}

// Shutdown retires the room: the active session says farewell, every
// session dies and key material is wiped.
func (t *Tree) Shutdown() {
	if t.active != nil {
		t.active.Leave()
		t.active.Kill()
		t.active = nil
	}
	for sid, s := range t.staging {
		s.Kill()
		delete(t.staging, sid)
	}
}
