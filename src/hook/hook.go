package hook

import (
	"context"
	"errors"
	"log"

	"middle-screenshot/src/messages"
)

// ErrInstall is returned when the platform input hook cannot be installed.
var ErrInstall = errors.New("failed to install input hook")

// RawKind classifies a hardware event as delivered by the platform hook.
type RawKind int

const (
	RawOther RawKind = iota
	RawMiddlePress
	RawMiddleRelease
	RawMove
)

func (k RawKind) String() string {
	switch k {
	case RawMiddlePress:
		return "middle-press"
	case RawMiddleRelease:
		return "middle-release"
	case RawMove:
		return "move"
	default:
		return "other"
	}
}

// RawEvent is one hardware event in screen coordinates.
type RawEvent struct {
	Kind RawKind
	X    float64
	Y    float64
}

// Verdict tells the platform hook what to do with the hardware event.
type Verdict int

const (
	// Forward lets the event reach other applications.
	Forward Verdict = iota
	// Suppress swallows the event.
	Suppress
)

func (v Verdict) String() string {
	if v == Suppress {
		return "suppress"
	}
	return "forward"
}

// PauseState is read on every hardware event.
type PauseState interface {
	Paused() bool
}

// Translator turns raw hook events into loop messages. Handle runs inside the
// platform hook callback and must return quickly.
type Translator struct {
	pause PauseState
	out   messages.Sender
}

func NewTranslator(pause PauseState, out messages.Sender) *Translator {
	return &Translator{pause: pause, out: out}
}

// Handle translates one raw event and decides whether it is swallowed.
// While paused every event is forwarded untouched.
func (t *Translator) Handle(ev RawEvent) Verdict {
	if t.pause != nil && t.pause.Paused() {
		return Forward
	}

	switch ev.Kind {
	case RawMiddlePress:
		t.emit(messages.Start{})
		return Suppress
	case RawMiddleRelease:
		t.emit(messages.End{})
		return Suppress
	case RawMove:
		// Other applications still need moves for their own cursor feedback.
		t.emit(messages.Move{X: ev.X, Y: ev.Y})
		return Forward
	default:
		return Forward
	}
}

func (t *Translator) emit(m messages.Message) {
	if t.out == nil {
		return
	}
	if err := t.out.Send(m); err != nil {
		log.Printf("hook: failed to send %s event: %v", m.Type(), err)
	}
}

// Listener installs the global input hook and feeds a Translator.
// Start returns once the hook is installed; the hook stays active until ctx is done.
type Listener interface {
	Start(ctx context.Context, t *Translator) error
}

// NewListener returns the platform implementation.
func NewListener() Listener {
	return newPlatformListener()
}
