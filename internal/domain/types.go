package domain

// ParticipantID names a party: the nickname it uses in the room plus its
// long-term public key.
type ParticipantID struct {
	Nickname string
	LongTerm PublicKey
}

// Bytes returns nickname || long-term key bytes, the form hashed into auth
// tokens and session confirmations.
func (id ParticipantID) Bytes() []byte {
	out := make([]byte, 0, len(id.Nickname)+PublicKeySize)
	out = append(out, id.Nickname...)
	return append(out, id.LongTerm.Bytes()...)
}

// UnauthenticatedParticipant is a party as first seen on the wire: identity
// claim plus ephemeral key, not yet verified by triple-DH.
type UnauthenticatedParticipant struct {
	ID        ParticipantID
	Ephemeral PublicKey
}

// RoomActionType classifies events the engine surfaces to the host UI.
type RoomActionType int

const (
	ActionNone RoomActionType = iota
	ActionJoined
	ActionLeft
	ActionDisplay
	ActionWarning
)

// RoomAction is a UI-visible room event.
type RoomAction struct {
	Type     RoomActionType
	Room     string
	Nickname string
	Message  string
}
