package wire

import "palaver/internal/domain"

// Type discriminates protocol messages.
type Type uint8

const (
	TypeJoinRequest Type = iota + 1
	TypeParticipantInfo
	TypeJoinerAuth
	TypeReShare
	TypeSessionConfirmation
	TypeUser
	TypeFarewell
	TypeHeartbeat
	TypeAck
	TypeAckQuery
)

func (t Type) String() string {
	switch t {
	case TypeJoinRequest:
		return "JOIN_REQUEST"
	case TypeParticipantInfo:
		return "PARTICIPANT_INFO"
	case TypeJoinerAuth:
		return "JOINER_AUTH"
	case TypeReShare:
		return "RE_SHARE"
	case TypeSessionConfirmation:
		return "SESSION_CONFIRMATION"
	case TypeUser:
		return "USER"
	case TypeFarewell:
		return "FAREWELL"
	case TypeHeartbeat:
		return "HEARTBEAT"
	case TypeAck:
		return "ACK"
	case TypeAckQuery:
		return "ACK_QUERY"
	}
	return "UNKNOWN"
}

// JoinRequest asks to enter a room. The joiner's nickname travels in the
// frame header; the body carries its keys.
type JoinRequest struct {
	LongTerm  domain.PublicKey
	Ephemeral domain.PublicKey
}

// ParticipantInfo is an incumbent's reply to a join: the full session view,
// the incumbent's auth token for the joiner, and its key share.
type ParticipantInfo struct {
	Participants []domain.UnauthenticatedParticipant
	JoinerToken  [32]byte
	Share        [32]byte
}

// JoinerAuth carries the joiner's auth tokens for every incumbent, keyed by
// in-session index, plus the joiner's key share.
type JoinerAuth struct {
	Tokens map[uint32][32]byte
	Share  [32]byte
}

// ReShare publishes a fresh key share after a membership change.
type ReShare struct {
	Share [32]byte
}

// SessionConfirmation proves derivation of the group key.
type SessionConfirmation struct {
	Confirmation [32]byte
}

// User is an encrypted chat line bound to the transcript chain.
type User struct {
	TranscriptHash [32]byte
	Box            []byte
}

// Farewell is a leaver's last word: the final transcript hash in the clear.
type Farewell struct {
	TranscriptHash [32]byte
	Text           string
}

// Message is a parsed protocol message. Exactly one body pointer is set,
// matching Type; the liveness types carry no body.
type Message struct {
	Type      Type
	SessionID [32]byte
	Sender    string

	JoinRequest     *JoinRequest
	ParticipantInfo *ParticipantInfo
	JoinerAuth      *JoinerAuth
	ReShare         *ReShare
	Confirmation    *SessionConfirmation
	User            *User
	Farewell        *Farewell
}
