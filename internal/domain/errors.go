package domain

import "errors"

// Error kinds surfaced by the protocol engine. Parse and state errors are
// recovered locally by dropping the offending message; authentication and
// crypto errors kill the session they occur in but never the room.
var (
	// ErrParse marks a malformed wire frame, unknown type or bad signature.
	ErrParse = errors.New("malformed protocol message")

	// ErrCrypto marks a primitive failure (RNG, unrecognized key).
	ErrCrypto = errors.New("crypto primitive failure")

	// ErrAuthentication marks an auth token mismatch.
	ErrAuthentication = errors.New("authentication token mismatch")

	// ErrTranscript marks a received chain hash that differs from ours.
	ErrTranscript = errors.New("transcript chain mismatch")

	// ErrState marks a message incompatible with the session state.
	ErrState = errors.New("message incompatible with session state")

	// ErrDeadlock marks a peer that stopped progressing past its timers.
	ErrDeadlock = errors.New("peer did not progress")
)
