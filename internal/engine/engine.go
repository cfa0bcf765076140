package engine

import (
	"fmt"

	"go.uber.org/zap"

	"palaver/internal/crypto"
	"palaver/internal/domain"
	"palaver/internal/protocol/group"
	"palaver/internal/protocol/wire"
)

// Engine drives the group protocol for one local user. All entry points
// must be called from a single goroutine, or be serialized by the caller;
// timer callbacks run under the same discipline.
type Engine struct {
	nickname string
	longTerm domain.Identity
	ops      domain.Ops
	log      *zap.Logger
	timing   group.Timing

	rooms map[string]*group.Tree
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithIdentity supplies a persisted long-term identity instead of
// generating a fresh one.
func WithIdentity(id domain.Identity) Option {
	return func(e *Engine) { e.longTerm = id }
}

// WithTiming overrides the liveness timer intervals.
func WithTiming(t group.Timing) Option {
	return func(e *Engine) { e.timing = t }
}

// New constructs the engine. A long-term identity is generated unless one
// is supplied via WithIdentity.
func New(nickname string, ops domain.Ops, log *zap.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		nickname: nickname,
		ops:      ops,
		log:      log,
		timing:   group.DefaultTiming,
		rooms:    make(map[string]*group.Tree),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.longTerm.Public().IsZero() {
		id, err := crypto.GenerateIdentity()
		if err != nil {
			return nil, fmt.Errorf("engine: %w: %v", domain.ErrCrypto, err)
		}
		e.longTerm = id
	}
	return e, nil
}

// Nickname returns the local user's room nickname.
func (e *Engine) Nickname() string { return e.nickname }

// Identity exposes the long-term public key.
func (e *Engine) Identity() domain.PublicKey { return e.longTerm.Public() }

// JoinRoom creates a joiner session for the room. The roster is the
// unauthenticated member list the transport reported; empty means the room
// is ours alone.
func (e *Engine) JoinRoom(room string, roster []domain.UnauthenticatedParticipant) error {
	if _, ok := e.rooms[room]; ok {
		return fmt.Errorf("join %s: %w: already joined", room, domain.ErrState)
	}
	tree := group.NewTree(room, e.nickname, e.ops, e.log)
	sess, err := group.NewJoiner(room, e.longTerm, e.nickname, roster, e.ops, e.log, e.timing)
	if err != nil {
		return err
	}
	tree.Seed(sess)
	e.rooms[room] = tree
	return nil
}

// LeaveRoom says farewell and wipes every session of the room.
func (e *Engine) LeaveRoom(room string) error {
	tree, ok := e.rooms[room]
	if !ok {
		return fmt.Errorf("leave %s: %w: not joined", room, domain.ErrState)
	}
	tree.Shutdown()
	delete(e.rooms, room)
	return nil
}

// Send encrypts plaintext under the room's group key and broadcasts it.
// Delivery back to us happens when the room echoes the message, which is
// also when the transcript chain absorbs it.
func (e *Engine) Send(room, plaintext string) error {
	tree, ok := e.rooms[room]
	if !ok {
		return fmt.Errorf("send to %s: %w: not joined", room, domain.ErrState)
	}
	active := tree.Active()
	if active == nil {
		return fmt.Errorf("send to %s: %w: no live session", room, domain.ErrState)
	}
	return active.SendUser(plaintext)
}

// Receive routes one inbound room string: membership markers, protocol
// frames, or plain chatter. msgID is the transport's sequence number for
// the message; the transcript chain is keyed by it. Errors are local to
// the message; the room stays usable.
func (e *Engine) Receive(room, sender, raw string, msgID uint32) (domain.RoomAction, error) {
	tree, ok := e.rooms[room]
	if !ok {
		return domain.RoomAction{}, fmt.Errorf("receive for %s: %w: not joined", room, domain.ErrState)
	}

	if kind, nick := wire.ParseMarker(raw); kind != wire.MarkerNone {
		switch kind {
		case wire.MarkerJoin:
			if nick == e.nickname {
				return domain.RoomAction{}, nil
			}
			return domain.RoomAction{Type: domain.ActionJoined, Room: room, Nickname: nick}, nil
		case wire.MarkerLeave:
			return tree.HandleLeaveMarker(nick), nil
		}
	}

	if wire.IsProtocol(raw) {
		env, err := wire.Decode(raw)
		if err != nil {
			e.log.Debug("dropping malformed frame",
				zap.String("room", room),
				zap.String("sender", sender),
				zap.Error(err))
			return domain.RoomAction{}, err
		}
		action, err := tree.Deliver(env, msgID)
		if err != nil {
			e.log.Warn("protocol message failed",
				zap.String("room", room),
				zap.String("type", env.Type.String()),
				zap.String("sender", env.Sender),
				zap.Error(err))
		}
		return action, err
	}

	e.ops.DisplayMessage(room, sender, raw)
	return domain.RoomAction{Type: domain.ActionDisplay, Room: room, Nickname: sender, Message: raw}, nil
}
