//go:build windows

package hotkey

import (
	"context"
	"log"

	gohook "github.com/robotn/gohook"
)

// Listen calls fire each time c is pressed until ctx is done. fire runs on
// the hook goroutine and must not block.
func Listen(ctx context.Context, c Combo, fire func()) error {
	evChan := gohook.Start()
	if evChan == nil {
		return ErrUnsupported
	}
	log.Printf("hotkey: listening for %s", c)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		defer gohook.End()

		m := newMatcher(c)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("hotkey: event channel closed")
					return
				}
				switch ev.Kind {
				case gohook.KeyDown:
					if m.keyDown(ev.Rawcode) {
						log.Printf("hotkey: %s pressed", c)
						fire()
					}
				case gohook.KeyUp:
					m.keyUp(ev.Rawcode)
				}
			}
		}
	}()
	return nil
}
