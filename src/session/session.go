package session

import (
	"errors"
	"fmt"
	"image"
	"log"

	"middle-screenshot/src/imageutil"
	"middle-screenshot/src/messages"
	"middle-screenshot/src/surface"
)

var (
	ErrClosed     = errors.New("session closed")
	ErrNotRunning = errors.New("no recognition running")
	ErrNoSink     = errors.New("no text sink")
)

// State is the explicit lifecycle tag of a capture session.
type State int

const (
	Created State = iota
	Rendered
	RecognitionRunning
	RecognitionDone
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Rendered:
		return "rendered"
	case RecognitionRunning:
		return "recognition-running"
	case RecognitionDone:
		return "recognition-done"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Launcher starts background recognition of an owned image for a window.
// It returns false when the work could not be scheduled.
type Launcher interface {
	Launch(id messages.WindowID, img *image.RGBA) bool
}

// TextSink receives recognized text.
type TextSink interface {
	SetText(text string) error
}

// Session is one capture bound to one overlay window. It is not safe for
// concurrent use; only the event loop touches it.
type Session struct {
	window surface.Window
	image  *image.RGBA
	state  State
	tick   int
	run    uint64
}

// New returns a session in the Created state.
func New(win surface.Window, img *image.RGBA) *Session {
	return &Session{window: win, image: img, state: Created}
}

func (s *Session) ID() messages.WindowID { return s.window.ID() }

func (s *Session) State() State { return s.state }

// Run numbers the recognition runs started for this session, starting at 1.
func (s *Session) Run() uint64 { return s.run }

// Render draws the current frame. The first successful render moves a
// Created session to Rendered.
func (s *Session) Render() error {
	if s.state == Closed {
		return ErrClosed
	}
	frame := surface.Frame{Image: s.image, Loading: s.state == RecognitionRunning, Tick: s.tick}
	if err := s.window.Render(frame); err != nil {
		return err
	}
	if s.state == Created {
		s.state = Rendered
	}
	return nil
}

// StartRecognition hands a copy of the pixel buffer to l. Only a Rendered
// session can start; a request while recognition runs is a no-op.
func (s *Session) StartRecognition(l Launcher) bool {
	if s.state != Rendered || s.image == nil {
		return false
	}
	if !l.Launch(s.ID(), imageutil.Clone(s.image)) {
		log.Printf("session: recognition for %s not scheduled, workers busy", s.ID())
		return false
	}
	s.state = RecognitionRunning
	s.tick = 0
	s.run++
	return true
}

// Redraw re-renders the window, advancing the loading indicator while
// recognition runs.
func (s *Session) Redraw() error {
	if s.state == RecognitionRunning {
		s.tick++
	}
	return s.Render()
}

// Finish applies a recognition result. On success the text goes to sink and
// the session is left in RecognitionDone. On failure the session returns to
// Rendered so the user can retry or close the window.
func (s *Session) Finish(text string, recErr error, sink TextSink) error {
	if s.state != RecognitionRunning {
		return ErrNotRunning
	}
	s.state = RecognitionDone
	err := recErr
	if err == nil {
		if sink == nil {
			err = ErrNoSink
		} else {
			err = sink.SetText(text)
		}
	}
	if err != nil {
		s.state = Rendered
		if rerr := s.Render(); rerr != nil {
			log.Printf("session: re-render of %s failed: %v", s.ID(), rerr)
		}
		return err
	}
	return nil
}

// Close releases the window and drops the pixel buffer. Safe to call in any state.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	s.window.Close()
	s.image = nil
	s.state = Closed
}
