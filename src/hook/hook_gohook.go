//go:build !windows

package hook

import (
	"context"
	"fmt"
	"log"

	gohook "github.com/robotn/gohook"
)

// libuiohook MOUSE_BUTTON3
const middleButton = 3

// gohookListener observes global input through gohook. gohook cannot swallow
// events, so Suppress verdicts are not enforced on these platforms.
type gohookListener struct{}

func newPlatformListener() Listener { return &gohookListener{} }

func (l *gohookListener) Start(ctx context.Context, t *Translator) error {
	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("%w: gohook.Start() returned nil channel", ErrInstall)
	}
	log.Printf("hook: gohook listener started (observe-only, middle clicks still reach other applications)")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hook goroutine: %v", r)
			}
		}()
		defer gohook.End()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("hook: event channel closed")
					return
				}
				t.Handle(rawFromGohook(ev))
			}
		}
	}()
	return nil
}

// gohook reports libuiohook event types verbatim: MouseHold is the press and
// MouseDown the release.
func rawFromGohook(ev gohook.Event) RawEvent {
	raw := RawEvent{X: float64(ev.X), Y: float64(ev.Y)}
	switch ev.Kind {
	case gohook.MouseHold:
		if ev.Button == middleButton {
			raw.Kind = RawMiddlePress
		}
	case gohook.MouseDown:
		if ev.Button == middleButton {
			raw.Kind = RawMiddleRelease
		}
	case gohook.MouseMove, gohook.MouseDrag:
		raw.Kind = RawMove
	}
	return raw
}
