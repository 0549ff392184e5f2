package pause

import (
	"context"
	"log"
	"sync/atomic"

	"middle-screenshot/src/messages"
)

// Flag is the process-wide capture pause state. Readers may observe a
// slightly stale value; it only gates input translation.
type Flag struct {
	paused atomic.Bool
}

// Paused reports whether capture is currently paused.
func (f *Flag) Paused() bool {
	return f.paused.Load()
}

// Toggle flips the flag and returns the new state.
func (f *Flag) Toggle() bool {
	for {
		old := f.paused.Load()
		if f.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Controller is the only writer of a Flag. It turns tray intents into flag
// flips and notifies the event loop.
type Controller struct {
	flag *Flag
	out  messages.Sender
}

func NewController(flag *Flag, out messages.Sender) *Controller {
	return &Controller{flag: flag, out: out}
}

// Run blocks on intents until ctx is done or intents is closed.
func (c *Controller) Run(ctx context.Context, intents <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-intents:
			if !ok {
				return
			}
			c.toggle()
		}
	}
}

func (c *Controller) toggle() {
	var msg messages.Message = messages.Resume{}
	if c.flag.Toggle() {
		log.Printf("pause: capture paused")
		msg = messages.Pause{}
	} else {
		log.Printf("pause: capture resumed")
	}
	if c.out == nil {
		return
	}
	if err := c.out.Send(msg); err != nil {
		log.Printf("pause: failed to notify event loop: %v", err)
	}
}
