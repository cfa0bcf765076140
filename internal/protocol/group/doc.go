// Package group implements the session state machine and group key
// agreement: per-peer participant records, deterministic session ids,
// transcript hash chains, key-share derivation, the per-epoch session
// lifecycle, and the per-room session tree that promotes a confirmed
// session to active.
package group
