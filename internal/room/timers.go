package room

import (
	"time"

	"github.com/jonboulle/clockwork"

	"palaver/internal/domain"
)

// Timers schedules engine liveness callbacks on a clockwork clock. The
// run hook serializes each callback with the rest of the host's event
// loop; callbacks never touch the engine from the clock's goroutine
// directly.
type Timers struct {
	clock clockwork.Clock
	run   func(func())
}

// NewTimers returns a Timers on clock. run may be nil, in which case
// callbacks fire inline on the clock goroutine.
func NewTimers(clock clockwork.Clock, run func(func())) *Timers {
	if run == nil {
		run = func(fn func()) { fn() }
	}
	return &Timers{clock: clock, run: run}
}

// SetTimer schedules fn after d and returns a cancellation handle.
func (t *Timers) SetTimer(d time.Duration, fn func()) domain.TimerHandle {
	return t.clock.AfterFunc(d, func() { t.run(fn) })
}

// AxeTimer cancels a pending timer. Handles from other schedulers are
// ignored.
func (t *Timers) AxeTimer(h domain.TimerHandle) {
	if tm, ok := h.(clockwork.Timer); ok {
		tm.Stop()
	}
}
