// Package engine is the host-facing protocol entry point. It owns the
// local user's long-term identity, keeps one session tree per room, and
// routes inbound room strings to the session they address.
package engine
