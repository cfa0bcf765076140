package group

import (
	"crypto/subtle"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"palaver/internal/crypto"
	"palaver/internal/domain"
	"palaver/internal/protocol/wire"
	"palaver/internal/util/memzero"
)

// Timing bundles the liveness intervals a session runs its timers with.
type Timing struct {
	Heartbeat time.Duration
	AckGrace  time.Duration
}

// DefaultTiming mirrors the intervals the transport layer defaults to.
var DefaultTiming = Timing{
	Heartbeat: 30 * time.Second,
	AckGrace:  10 * time.Second,
}

// Result is what a session hands back to the tree after processing one
// inbound message.
type Result struct {
	Action domain.RoomAction

	// Promote asks the tree to make this session the room's active one.
	Promote bool

	// Respawn carries the participant view a joiner observed under a
	// different session id; the tree spawns a sibling joiner from it.
	Respawn []domain.UnauthenticatedParticipant

	// Left names a member whose departure was committed by this message.
	Left string
}

// Session is one group-key epoch: a fixed participant set, the local
// user's ephemeral keypair, the derived session id and, once agreement
// completes, the group key and transcript chain.
type Session struct {
	room     string
	selfID   domain.ParticipantID
	longTerm domain.Identity
	eph      domain.Identity

	participants map[string]*Participant
	order        []string
	id           SessionID
	state        State

	groupKey  [32]byte
	haveKey   bool
	confirmed []bool
	pending   map[string][32]byte

	joinerAuthSent bool
	farewellSent   bool

	chain *Chain

	ops    domain.Ops
	log    *zap.Logger
	timing Timing

	heartbeat domain.TimerHandle
	ackSend   domain.TimerHandle
	ackAwait  map[string]domain.TimerHandle
}

func newSession(room string, longTerm domain.Identity, selfID domain.ParticipantID, eph domain.Identity, view []domain.UnauthenticatedParticipant, ops domain.Ops, log *zap.Logger, timing Timing) *Session {
	s := &Session{
		room:         room,
		selfID:       selfID,
		longTerm:     longTerm,
		eph:          eph,
		participants: make(map[string]*Participant, len(view)),
		pending:      make(map[string][32]byte),
		ops:          ops,
		log:          log,
		timing:       timing,
		ackAwait:     make(map[string]domain.TimerHandle),
	}
	for _, m := range view {
		s.participants[m.ID.Nickname] = &Participant{ID: m.ID, Ephemeral: m.Ephemeral}
	}
	if self, ok := s.participants[selfID.Nickname]; ok {
		self.Authenticated = true
		self.AuthedTo = true
	}
	s.assignIndices()
	return s
}

func (s *Session) assignIndices() {
	s.order = s.order[:0]
	for nick := range s.participants {
		s.order = append(s.order, nick)
	}
	sort.Strings(s.order)
	for i, nick := range s.order {
		s.participants[nick].Index = uint32(i)
	}
	s.confirmed = make([]bool, len(s.order))
}

// NewJoiner builds the session a local user creates to enter a room. The
// roster is whatever unauthenticated member list the transport reported;
// incumbents' session ephemerals are not yet known, so the session id stays
// unset until a PARTICIPANT_INFO reveals the real view. An empty roster
// means the room is ours alone and the session is live immediately.
func NewJoiner(room string, longTerm domain.Identity, nickname string, roster []domain.UnauthenticatedParticipant, ops domain.Ops, log *zap.Logger, timing Timing) (*Session, error) {
	eph, err := crypto.GenerateIdentity()
	if err != nil {
		return nil, fmt.Errorf("joiner session: %w: %v", domain.ErrCrypto, err)
	}
	selfID := domain.ParticipantID{Nickname: nickname, LongTerm: longTerm.Public()}
	view := append([]domain.UnauthenticatedParticipant{}, roster...)
	view = append(view, domain.UnauthenticatedParticipant{ID: selfID, Ephemeral: eph.Public()})

	s := newSession(room, longTerm, selfID, eph, view, ops, log, timing)

	if len(view) == 1 {
		sid, err := ComputeSessionID(view)
		if err != nil {
			s.Kill()
			return nil, err
		}
		s.id = sid
		s.chain = NewChain(sid)
		if err := s.deriveOwnShare(); err != nil {
			s.Kill()
			return nil, err
		}
		s.deriveKey()
		s.state = StateInSession
		s.armHeartbeat()
		return s, nil
	}

	s.state = StateJoinRequested
	s.emit(wire.Message{
		Type: wire.TypeJoinRequest,
		JoinRequest: &wire.JoinRequest{
			LongTerm:  selfID.LongTerm,
			Ephemeral: eph.Public(),
		},
	})
	return s, nil
}

// newJoinerSibling rebuilds a joiner session around the view observed in a
// PARTICIPANT_INFO, reusing the ephemeral keypair the incumbents already
// recorded from our JOIN_REQUEST.
func newJoinerSibling(dead *Session, view []domain.UnauthenticatedParticipant) (*Session, error) {
	self, ok := findMember(view, dead.selfID.Nickname)
	if !ok {
		return nil, fmt.Errorf("joiner view: %w: we are not in it", domain.ErrState)
	}
	if self.Ephemeral != dead.eph.Public() {
		return nil, fmt.Errorf("joiner view: %w: view carries a foreign ephemeral for us", domain.ErrAuthentication)
	}
	sid, err := ComputeSessionID(view)
	if err != nil {
		return nil, err
	}
	s := newSession(dead.room, dead.longTerm, dead.selfID, dead.eph, view, dead.ops, dead.log, dead.timing)
	s.id = sid
	s.chain = NewChain(sid)
	s.state = StateJoinRequested
	return s, nil
}

// NewIncumbentOnJoin builds the successor session an incumbent stages when
// a JOIN_REQUEST arrives: the active session's authenticated participants,
// with their pairwise secrets, plus the joiner. The local user keeps its
// ephemeral keypair and publishes its view, an auth token for the joiner
// and its fresh key share.
func NewIncumbentOnJoin(active *Session, joiner domain.UnauthenticatedParticipant) (*Session, error) {
	if _, dup := active.participants[joiner.ID.Nickname]; dup {
		return nil, fmt.Errorf("join of %s: %w: nickname already present", joiner.ID.Nickname, domain.ErrState)
	}
	view := active.memberView()
	view = append(view, joiner)
	sid, err := ComputeSessionID(view)
	if err != nil {
		return nil, err
	}

	s := newSession(active.room, active.longTerm, active.selfID, active.eph, view, active.ops, active.log, active.timing)
	s.id = sid
	s.chain = NewChain(sid)
	s.inheritSecrets(active)

	jp := s.participants[joiner.ID.Nickname]
	if err := jp.ComputeP2P(s.selfID, s.longTerm, s.eph); err != nil {
		s.Kill()
		return nil, err
	}
	if err := s.deriveOwnShare(); err != nil {
		s.Kill()
		return nil, err
	}
	token, err := jp.AuthenticateTo(s.selfID)
	if err != nil {
		s.Kill()
		return nil, err
	}
	share, _ := s.self().Share()
	s.state = StateRepliedToNewJoin
	s.emit(wire.Message{
		Type: wire.TypeParticipantInfo,
		ParticipantInfo: &wire.ParticipantInfo{
			Participants: view,
			JoinerToken:  token,
			Share:        share,
		},
	})
	return s, nil
}

// NewIncumbentOnLeave builds the successor session staged when a member's
// departure is committed: the remaining participants keep their secrets,
// the session id changes, and everyone republishes a fresh share.
func NewIncumbentOnLeave(active *Session, leaver string) (*Session, error) {
	if _, ok := active.participants[leaver]; !ok {
		return nil, fmt.Errorf("leave of %s: %w: not a member", leaver, domain.ErrState)
	}
	view := make([]domain.UnauthenticatedParticipant, 0, len(active.participants)-1)
	for _, m := range active.memberView() {
		if m.ID.Nickname != leaver {
			view = append(view, m)
		}
	}
	sid, err := ComputeSessionID(view)
	if err != nil {
		return nil, err
	}

	s := newSession(active.room, active.longTerm, active.selfID, active.eph, view, active.ops, active.log, active.timing)
	s.id = sid
	s.chain = NewChain(sid)
	s.inheritSecrets(active)
	if err := s.deriveOwnShare(); err != nil {
		s.Kill()
		return nil, err
	}

	if len(view) == 1 {
		s.deriveKey()
		s.state = StateInSession
		s.armHeartbeat()
		return s, nil
	}

	share, _ := s.self().Share()
	s.state = StateReShared
	s.emit(wire.Message{
		Type:    wire.TypeReShare,
		ReShare: &wire.ReShare{Share: share},
	})
	return s, nil
}

// ID returns the session id; the zero id means it is not yet known.
func (s *Session) ID() SessionID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Members lists the participant nicknames in index order.
func (s *Session) Members() []string {
	return append([]string(nil), s.order...)
}

// GroupKey exposes the derived key for forward-secrecy tests.
func (s *Session) GroupKey() ([32]byte, bool) { return s.groupKey, s.haveKey }

// TranscriptHead returns the chain head, or the zero hash before agreement.
func (s *Session) TranscriptHead() [32]byte {
	if s.chain == nil {
		return [32]byte{}
	}
	return s.chain.Last()
}

func (s *Session) self() *Participant { return s.participants[s.selfID.Nickname] }

func (s *Session) memberView() []domain.UnauthenticatedParticipant {
	view := make([]domain.UnauthenticatedParticipant, 0, len(s.order))
	for _, nick := range s.order {
		view = append(view, s.participants[nick].Unauthenticated())
	}
	return view
}

// inheritSecrets carries pairwise secrets and auth state for the members
// shared with a predecessor session.
func (s *Session) inheritSecrets(prev *Session) {
	for nick, p := range s.participants {
		if nick == s.selfID.Nickname {
			continue
		}
		old, ok := prev.participants[nick]
		if !ok {
			continue
		}
		p.AdoptP2P(old)
		p.Authenticated = old.Authenticated
		p.AuthedTo = old.AuthedTo
	}
}

// deriveOwnShare computes and records the local user's key share from all
// pairwise secrets in peer index order.
func (s *Session) deriveOwnShare() error {
	p2ps := make([][32]byte, 0, len(s.order)-1)
	for _, nick := range s.order {
		if nick == s.selfID.Nickname {
			continue
		}
		secret, ok := s.participants[nick].P2P()
		if !ok {
			return fmt.Errorf("share derivation: %w: no pairwise secret for %s", domain.ErrState, nick)
		}
		p2ps = append(p2ps, secret)
	}
	share, err := deriveShare(p2ps, s.id)
	if err != nil {
		return fmt.Errorf("share derivation: %w: %v", domain.ErrCrypto, err)
	}
	s.self().SetShare(share)
	return nil
}

// Handle processes one inbound protocol message addressed to this session.
func (s *Session) Handle(env *wire.Envelope, msgID uint32) (Result, error) {
	if s.state == StateDead {
		return Result{}, nil
	}
	switch env.Type {
	case wire.TypeParticipantInfo:
		return s.onParticipantInfo(env)
	case wire.TypeJoinerAuth:
		return s.onJoinerAuth(env)
	case wire.TypeReShare:
		return s.onReShare(env)
	case wire.TypeSessionConfirmation:
		return s.onConfirmation(env)
	case wire.TypeUser:
		return s.onUser(env, msgID)
	case wire.TypeFarewell:
		return s.onFarewell(env)
	case wire.TypeHeartbeat, wire.TypeAck:
		s.cancelAckAwait(env.Sender)
		return Result{}, nil
	case wire.TypeAckQuery:
		s.cancelAckAwait(env.Sender)
		if s.state == StateInSession && env.Sender != s.selfID.Nickname {
			s.emit(wire.Message{Type: wire.TypeAck})
		}
		return Result{}, nil
	}
	return Result{}, fmt.Errorf("session %s: %w: %s", s.state, domain.ErrState, env.Type)
}

// verified resolves the sender and checks the frame signature against its
// session ephemeral key.
func (s *Session) verified(env *wire.Envelope) (*Participant, error) {
	p, ok := s.participants[env.Sender]
	if !ok {
		return nil, fmt.Errorf("%s from unknown sender %q: %w", env.Type, env.Sender, domain.ErrParse)
	}
	if !env.Verify(p.Ephemeral.Ed) {
		return nil, fmt.Errorf("%s from %s: %w: bad signature", env.Type, env.Sender, domain.ErrParse)
	}
	return p, nil
}

func (s *Session) onParticipantInfo(env *wire.Envelope) (Result, error) {
	if env.Sender == s.selfID.Nickname {
		return Result{}, nil
	}
	switch s.state {
	case StateJoinRequested:
		if env.SessionID != s.id {
			return Result{Respawn: env.ParticipantInfo.Participants}, nil
		}
		p, err := s.verified(env)
		if err != nil {
			return Result{}, err
		}
		if err := s.ensureJoinerSecrets(); err != nil {
			s.die()
			return Result{}, err
		}
		if err := p.BeAuthenticated(env.ParticipantInfo.JoinerToken); err != nil {
			s.die()
			return s.authFailure(env.Sender), err
		}
		p.SetShare(env.ParticipantInfo.Share)
		return s.maybeGroupDec()
	case StateRepliedToNewJoin:
		p, err := s.verified(env)
		if err != nil {
			return Result{}, err
		}
		if !p.Authenticated {
			return Result{}, fmt.Errorf("PARTICIPANT_INFO from unauthenticated %s: %w", env.Sender, domain.ErrState)
		}
		p.SetShare(env.ParticipantInfo.Share)
		return s.maybeGroupDec()
	}
	return Result{}, fmt.Errorf("PARTICIPANT_INFO in %s: %w", s.state, domain.ErrState)
}

// ensureJoinerSecrets runs once when a joiner first sees its real view:
// pairwise secrets with every incumbent, its own share, and the JOINER_AUTH
// broadcast carrying per-incumbent tokens.
func (s *Session) ensureJoinerSecrets() error {
	if s.joinerAuthSent {
		return nil
	}
	tokens := make(map[uint32][32]byte, len(s.order)-1)
	for _, nick := range s.order {
		if nick == s.selfID.Nickname {
			continue
		}
		p := s.participants[nick]
		if err := p.ComputeP2P(s.selfID, s.longTerm, s.eph); err != nil {
			return err
		}
		token, err := p.AuthenticateTo(s.selfID)
		if err != nil {
			return err
		}
		tokens[p.Index] = token
	}
	if err := s.deriveOwnShare(); err != nil {
		return err
	}
	share, _ := s.self().Share()
	s.joinerAuthSent = true
	s.emit(wire.Message{
		Type:       wire.TypeJoinerAuth,
		JoinerAuth: &wire.JoinerAuth{Tokens: tokens, Share: share},
	})
	return nil
}

func (s *Session) onJoinerAuth(env *wire.Envelope) (Result, error) {
	if env.Sender == s.selfID.Nickname {
		return Result{}, nil
	}
	if s.state != StateRepliedToNewJoin {
		return Result{}, fmt.Errorf("JOINER_AUTH in %s: %w", s.state, domain.ErrState)
	}
	p, err := s.verified(env)
	if err != nil {
		return Result{}, err
	}
	token, ok := env.JoinerAuth.Tokens[s.self().Index]
	if !ok {
		s.die()
		return s.authFailure(env.Sender), fmt.Errorf("JOINER_AUTH from %s: %w: no token for us", env.Sender, domain.ErrAuthentication)
	}
	if err := p.BeAuthenticated(token); err != nil {
		s.die()
		return s.authFailure(env.Sender), err
	}
	p.SetShare(env.JoinerAuth.Share)
	return s.maybeGroupDec()
}

func (s *Session) onReShare(env *wire.Envelope) (Result, error) {
	if env.Sender == s.selfID.Nickname {
		return Result{}, nil
	}
	if s.state != StateReShared {
		return Result{}, fmt.Errorf("RE_SHARE in %s: %w", s.state, domain.ErrState)
	}
	p, err := s.verified(env)
	if err != nil {
		return Result{}, err
	}
	if !p.Authenticated {
		return Result{}, fmt.Errorf("RE_SHARE from unauthenticated %s: %w", env.Sender, domain.ErrState)
	}
	p.SetShare(env.ReShare.Share)
	return s.maybeGroupDec()
}

func (s *Session) onConfirmation(env *wire.Envelope) (Result, error) {
	if env.Sender == s.selfID.Nickname {
		return Result{}, nil
	}
	p, err := s.verified(env)
	if err != nil {
		return Result{}, err
	}
	switch s.state {
	case StateJoinRequested, StateRepliedToNewJoin, StateReShared:
		// The peer derived the key before we did; hold the proof until
		// we can check it.
		s.pending[env.Sender] = env.Confirmation.Confirmation
		return Result{}, nil
	case StateGroupKeyGenerated:
		if err := s.checkConfirmation(p, env.Confirmation.Confirmation); err != nil {
			s.die()
			return s.authFailure(env.Sender), err
		}
		return s.maybePromote(), nil
	}
	return Result{}, fmt.Errorf("SESSION_CONFIRMATION in %s: %w", s.state, domain.ErrState)
}

func (s *Session) checkConfirmation(p *Participant, got [32]byte) error {
	want := confirmationFor(s.groupKey, p.ID)
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return fmt.Errorf("confirmation from %s: %w", p.ID.Nickname, domain.ErrAuthentication)
	}
	s.confirmed[p.Index] = true
	return nil
}

// maybeGroupDec derives the group key once every participant is
// authenticated and has published a share, then emits our confirmation.
func (s *Session) maybeGroupDec() (Result, error) {
	for _, nick := range s.order {
		p := s.participants[nick]
		if !p.Authenticated || !p.HasShare() {
			return Result{}, nil
		}
	}
	s.deriveKey()
	s.state = StateGroupKeyGenerated
	s.emit(wire.Message{
		Type:         wire.TypeSessionConfirmation,
		Confirmation: &wire.SessionConfirmation{Confirmation: confirmationFor(s.groupKey, s.selfID)},
	})
	s.confirmed[s.self().Index] = true

	for nick, proof := range s.pending {
		p, ok := s.participants[nick]
		if !ok {
			continue
		}
		if err := s.checkConfirmation(p, proof); err != nil {
			s.die()
			return s.authFailure(nick), err
		}
	}
	s.pending = make(map[string][32]byte)
	return s.maybePromote(), nil
}

func (s *Session) deriveKey() {
	shares := make([][32]byte, len(s.order))
	for i, nick := range s.order {
		shares[i], _ = s.participants[nick].Share()
	}
	s.groupKey = deriveGroupKey(s.id, shares)
	s.haveKey = true
}

func (s *Session) maybePromote() Result {
	for _, ok := range s.confirmed {
		if !ok {
			return Result{}
		}
	}
	s.state = StateInSession
	s.armHeartbeat()
	return Result{Promote: true}
}

func (s *Session) onUser(env *wire.Envelope, msgID uint32) (Result, error) {
	if s.state != StateInSession && s.state != StateLeaveRequested {
		return Result{}, fmt.Errorf("USER in %s: %w", s.state, domain.ErrState)
	}
	p, err := s.verified(env)
	if err != nil {
		return Result{}, err
	}
	if env.User.TranscriptHash != s.chain.Last() {
		s.log.Warn("transcript chain mismatch",
			zap.String("room", s.room),
			zap.String("sender", env.Sender),
			zap.Uint32("msg_id", msgID))
		return Result{Action: domain.RoomAction{
			Type:     domain.ActionWarning,
			Room:     s.room,
			Nickname: env.Sender,
			Message:  "transcript inconsistency detected",
		}}, fmt.Errorf("USER from %s: %w", env.Sender, domain.ErrTranscript)
	}
	plaintext, err := crypto.Open(s.groupKey, env.User.Box)
	if err != nil {
		return Result{}, fmt.Errorf("USER from %s: %w: %v", env.Sender, domain.ErrParse, err)
	}
	s.chain.Extend(msgID, plaintext)
	s.cancelAckAwait(p.ID.Nickname)
	if env.Sender != s.selfID.Nickname {
		s.armAckSend()
	}
	s.ops.DisplayMessage(s.room, env.Sender, string(plaintext))
	return Result{Action: domain.RoomAction{
		Type:     domain.ActionDisplay,
		Room:     s.room,
		Nickname: env.Sender,
		Message:  string(plaintext),
	}}, nil
}

func (s *Session) onFarewell(env *wire.Envelope) (Result, error) {
	if s.state != StateInSession && s.state != StateLeaveRequested && s.state != StateFarewelled {
		return Result{}, fmt.Errorf("FAREWELL in %s: %w", s.state, domain.ErrState)
	}
	p, err := s.verified(env)
	if err != nil {
		return Result{}, err
	}
	if env.Sender == s.selfID.Nickname {
		return Result{}, nil
	}
	if env.Farewell.TranscriptHash != s.chain.Last() {
		s.log.Warn("farewell transcript mismatch",
			zap.String("room", s.room),
			zap.String("leaver", env.Sender))
	}
	s.cancelAckAwait(p.ID.Nickname)
	return Result{
		Action: domain.RoomAction{Type: domain.ActionLeft, Room: s.room, Nickname: env.Sender},
		Left:   env.Sender,
	}, nil
}

// SendUser encrypts a chat line under the group key and broadcasts it. The
// transcript extends when the room echoes the message back, so the chain
// absorbs the order the room imposed.
func (s *Session) SendUser(plaintext string) error {
	if s.state != StateInSession {
		return fmt.Errorf("send in %s: %w", s.state, domain.ErrState)
	}
	box, err := crypto.Seal(s.groupKey, []byte(plaintext))
	if err != nil {
		return fmt.Errorf("send: %w: %v", domain.ErrCrypto, err)
	}
	s.emit(wire.Message{
		Type: wire.TypeUser,
		User: &wire.User{TranscriptHash: s.chain.Last(), Box: box},
	})
	s.cancelAckSend()
	for _, nick := range s.order {
		if nick != s.selfID.Nickname {
			s.armAckAwait(nick)
		}
	}
	return nil
}

// Leave broadcasts the final transcript hash and retires the session.
func (s *Session) Leave() {
	if s.state != StateInSession {
		return
	}
	s.state = StateLeaveRequested
	s.FlushFarewell()
}

// FlushFarewell emits the pending FAREWELL, if any. Called directly by
// Leave and by the tree when a promotion replaces a leaving session.
func (s *Session) FlushFarewell() {
	if s.farewellSent || (s.state != StateLeaveRequested && s.state != StateFarewelled) {
		return
	}
	s.farewellSent = true
	s.emit(wire.Message{
		Type:     wire.TypeFarewell,
		Farewell: &wire.Farewell{TranscriptHash: s.chain.Last(), Text: "farewell"},
	})
	s.state = StateFarewelled
}

func (s *Session) authFailure(nick string) Result {
	return Result{Action: domain.RoomAction{
		Type:     domain.ActionWarning,
		Room:     s.room,
		Nickname: nick,
		Message:  "authentication failed",
	}}
}

func (s *Session) die() {
	s.log.Warn("session dead",
		zap.String("room", s.room),
		zap.String("state", s.state.String()))
	s.Kill()
}

// Kill cancels every timer the session owns and wipes its key material.
// Dead is absorbing.
func (s *Session) Kill() {
	if s.state == StateDead {
		return
	}
	s.state = StateDead
	if s.heartbeat != nil {
		s.ops.AxeTimer(s.heartbeat)
		s.heartbeat = nil
	}
	s.cancelAckSend()
	for nick := range s.ackAwait {
		s.cancelAckAwait(nick)
	}
	memzero.Zero(s.eph.XPriv[:])
	memzero.Zero(s.eph.EdPriv[:])
	memzero.Zero32(&s.groupKey)
	s.haveKey = false
	for _, p := range s.participants {
		p.Wipe()
	}
}

func (s *Session) emit(m wire.Message) {
	m.SessionID = s.id
	m.Sender = s.selfID.Nickname
	raw, err := wire.Encode(m, s.eph.EdPriv)
	if err != nil {
		s.log.Error("encode failed",
			zap.String("type", m.Type.String()),
			zap.Error(err))
		return
	}
	s.ops.SendBare(s.room, s.selfID.Nickname, raw)
}

func (s *Session) armHeartbeat() {
	if s.timing.Heartbeat <= 0 || len(s.order) < 2 {
		return
	}
	s.heartbeat = s.ops.SetTimer(s.timing.Heartbeat, func() {
		if s.state != StateInSession {
			return
		}
		s.emit(wire.Message{Type: wire.TypeHeartbeat})
		s.armHeartbeat()
	})
}

func (s *Session) armAckAwait(nick string) {
	if s.timing.AckGrace <= 0 {
		return
	}
	s.cancelAckAwait(nick)
	s.ackAwait[nick] = s.ops.SetTimer(s.timing.AckGrace, func() {
		delete(s.ackAwait, nick)
		if s.state != StateInSession {
			return
		}
		s.log.Warn("peer did not acknowledge",
			zap.String("room", s.room),
			zap.String("peer", nick),
			zap.Error(domain.ErrDeadlock))
		s.emit(wire.Message{Type: wire.TypeAckQuery})
	})
}

func (s *Session) cancelAckAwait(nick string) {
	if h, ok := s.ackAwait[nick]; ok {
		s.ops.AxeTimer(h)
		delete(s.ackAwait, nick)
	}
}

func (s *Session) armAckSend() {
	if s.timing.AckGrace <= 0 || s.ackSend != nil {
		return
	}
	s.ackSend = s.ops.SetTimer(s.timing.AckGrace, func() {
		s.ackSend = nil
		if s.state != StateInSession {
			return
		}
		s.emit(wire.Message{Type: wire.TypeAck})
	})
}

func (s *Session) cancelAckSend() {
	if s.ackSend != nil {
		s.ops.AxeTimer(s.ackSend)
		s.ackSend = nil
	}
}

func findMember(view []domain.UnauthenticatedParticipant, nick string) (domain.UnauthenticatedParticipant, bool) {
	for _, m := range view {
		if m.ID.Nickname == nick {
			return m, true
		}
	}
	return domain.UnauthenticatedParticipant{}, false
}
