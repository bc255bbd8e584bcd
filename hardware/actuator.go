// Package hardware is the one-way port to the physical lock relays.
package hardware

import (
	"context"
	"log"
)

// Actuator fires the open command for a locker. Fire-and-forget: there is no
// return channel from the relay board, so implementations report nothing back
// and must not block the caller.
type Actuator interface {
	Unlock(ctx context.Context, lockerNumber int)
}

// LogActuator is the bench implementation: it only logs. The real relay/GPIO
// driver replaces this on the terminal itself.
type LogActuator struct{}

func (LogActuator) Unlock(_ context.Context, lockerNumber int) {
	log.Printf("HARDWARE: unlocking locker %d", lockerNumber)
}
