package domain

import "time"

// TimerHandle identifies a pending timer with the host scheduler. It is
// opaque to the engine.
type TimerHandle any

// Ops is the set of callbacks the host provides to the engine. All calls
// are made synchronously from within engine entry points; an implementation
// must not re-enter the engine with an inbound message for the same room
// before returning.
type Ops interface {
	// SendBare transmits an opaque string to every member of the room.
	SendBare(room, sender, payload string)

	// Join and Leave inform the host of committed membership changes.
	Join(room, nickname string)
	Leave(room, nickname string)

	// DisplayMessage delivers a decrypted chat line.
	DisplayMessage(room, sender, plaintext string)

	// SetTimer schedules fn after d. AxeTimer cancels a pending timer;
	// cancelling an already-fired or cancelled timer is a no-op.
	SetTimer(d time.Duration, fn func()) TimerHandle
	AxeTimer(h TimerHandle)
}
