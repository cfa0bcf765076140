package room

import (
	"time"

	"go.uber.org/zap"

	"palaver/internal/domain"
)

// Ops wires the engine's host callbacks to the room transport, the timer
// scheduler, and the user interface hooks.
type Ops struct {
	Client *Client
	Timers *Timers
	Log    *zap.Logger

	// UI hooks. Nil hooks are skipped.
	OnJoin    func(room, nickname string)
	OnLeave   func(room, nickname string)
	OnMessage func(room, sender, plaintext string)
}

// SendBare broadcasts payload to the room. Transport failures are logged;
// the protocol recovers through its liveness timers.
func (o *Ops) SendBare(room, sender, payload string) {
	if err := o.Client.Send(room, sender, payload); err != nil {
		o.Log.Warn("room send failed",
			zap.String("room", room),
			zap.Error(err))
	}
}

// Join reports a committed member arrival.
func (o *Ops) Join(room, nickname string) {
	if o.OnJoin != nil {
		o.OnJoin(room, nickname)
	}
}

// Leave reports a committed member departure.
func (o *Ops) Leave(room, nickname string) {
	if o.OnLeave != nil {
		o.OnLeave(room, nickname)
	}
}

// DisplayMessage delivers a decrypted chat line to the UI.
func (o *Ops) DisplayMessage(room, sender, plaintext string) {
	if o.OnMessage != nil {
		o.OnMessage(room, sender, plaintext)
	}
}

// SetTimer delegates to the scheduler.
func (o *Ops) SetTimer(d time.Duration, fn func()) domain.TimerHandle {
	return o.Timers.SetTimer(d, fn)
}

// AxeTimer delegates to the scheduler.
func (o *Ops) AxeTimer(h domain.TimerHandle) {
	o.Timers.AxeTimer(h)
}

// Compile-time assertion that Ops implements domain.Ops.
var _ domain.Ops = (*Ops)(nil)
