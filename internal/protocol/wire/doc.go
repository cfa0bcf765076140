// Package wire frames, signs and parses protocol messages.
//
// Every broadcast is an ASCII envelope: a fixed prefix followed by the
// base64-encoded binary frame. The frame carries magic, version, message
// type, session id (absent for join requests), sender nickname, a
// type-specific body, and an Ed25519 signature by the sender's session
// ephemeral key over everything before it.
package wire
