package messages

import "fmt"

// Message is the base interface for everything delivered into the event loop
type Message interface {
	Type() string
}

// WindowID identifies one overlay window. IDs are never reused within a process.
type WindowID uint64

func (id WindowID) String() string { return fmt.Sprintf("window#%d", uint64(id)) }

// MessageType constants for type identification
const (
	TypeStart     = "Start"
	TypeMove      = "Move"
	TypeEnd       = "End"
	TypePause     = "Pause"
	TypeResume    = "Resume"
	TypeClose     = "Close"
	TypeRedraw    = "Redraw"
	TypeRecognize = "Recognize"
)

// Start - sent by the input hook when the middle button goes down
type Start struct{}

func (m Start) Type() string { return TypeStart }

// Move - sent by the input hook for every pointer move
type Move struct {
	X float64
	Y float64
}

func (m Move) Type() string { return TypeMove }

// End - sent by the input hook when the middle button is released
type End struct{}

func (m End) Type() string { return TypeEnd }

// Pause - sent by the pause controller after capture was switched off
type Pause struct{}

func (m Pause) Type() string { return TypePause }

// Resume - sent by the pause controller after capture was switched back on
type Resume struct{}

func (m Resume) Type() string { return TypeResume }

// Close - sent by the render surface when an overlay window was closed
type Close struct {
	Window WindowID
}

func (m Close) Type() string { return TypeClose }

// Redraw - sent by the render surface, or re-posted by the coordinator while recognition runs
type Redraw struct {
	Window WindowID
	// Run tags redraws scheduled for one recognition run; zero asks for a
	// plain re-render.
	Run uint64
}

func (m Redraw) Type() string { return TypeRedraw }

// Recognize - sent by the render surface when the user asks for text recognition on an overlay
type Recognize struct {
	Window WindowID
}

func (m Recognize) Type() string { return TypeRecognize }

// Sender is implemented by anything that can enqueue a message for the event loop.
// Send must not block beyond the enqueue attempt.
type Sender interface {
	Send(m Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(m Message) error

func (f SenderFunc) Send(m Message) error { return f(m) }
