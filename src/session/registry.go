package session

import (
	"fmt"
	"image"
	"log"

	"middle-screenshot/src/logutil"
	"middle-screenshot/src/messages"
	"middle-screenshot/src/screenshot"
	"middle-screenshot/src/surface"
	"middle-screenshot/src/worker"
)

const windowTitle = "Middle Screenshot"

// Registry owns every live session keyed by window id. All methods must be
// called from the event loop goroutine.
type Registry struct {
	opener   surface.Opener
	launcher Launcher
	sink     TextSink
	redraw   messages.Sender
	sessions map[messages.WindowID]*Session
}

// NewRegistry wires the coordinator. redraw receives the follow-up Redraw
// messages scheduled while recognition runs.
func NewRegistry(opener surface.Opener, launcher Launcher, sink TextSink, redraw messages.Sender) *Registry {
	return &Registry{
		opener:   opener,
		launcher: launcher,
		sink:     sink,
		redraw:   redraw,
		sessions: make(map[messages.WindowID]*Session),
	}
}

// Create opens a window for the capture, renders it and registers the
// session. Nothing is registered on failure.
func (r *Registry) Create(c screenshot.Capture, size, position image.Point) (messages.WindowID, error) {
	if c.Image == nil {
		return 0, fmt.Errorf("no pixel data")
	}
	win, err := r.opener.Open(surface.Options{
		Title:       windowTitle,
		Size:        size,
		Position:    position,
		Decorated:   false,
		AlwaysOnTop: true,
	})
	if err != nil {
		return 0, fmt.Errorf("open window: %w", err)
	}
	s := New(win, c.Image)
	if err := s.Render(); err != nil {
		s.Close()
		return 0, fmt.Errorf("render window: %w", err)
	}
	if err := win.Show(); err != nil {
		s.Close()
		return 0, fmt.Errorf("show window: %w", err)
	}
	r.sessions[s.ID()] = s
	log.Printf("session: %s created (%dx%d at %d,%d)", s.ID(), size.X, size.Y, position.X, position.Y)
	return s.ID(), nil
}

// RequestRecognition starts recognition for id. Absent ids and sessions
// that are not Rendered are ignored.
func (r *Registry) RequestRecognition(id messages.WindowID) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if s.StartRecognition(r.launcher) {
		log.Printf("session: recognition started for %s", id)
		r.Redraw(id, s.Run())
	}
}

// Redraw re-renders id. A redraw tagged with the current run advances the
// loading indicator and schedules the next one while that run is in
// progress. Redraws left over from an earlier run are dropped.
func (r *Registry) Redraw(id messages.WindowID, run uint64) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if run == 0 {
		if err := s.Render(); err != nil {
			log.Printf("session: redraw of %s failed: %v", id, err)
		}
		return
	}
	if run != s.Run() || s.State() != RecognitionRunning {
		return
	}
	if err := s.Redraw(); err != nil {
		log.Printf("session: redraw of %s failed: %v", id, err)
	}
	if r.redraw == nil {
		return
	}
	if err := r.redraw.Send(messages.Redraw{Window: id, Run: run}); err != nil {
		log.Printf("session: could not schedule redraw for %s: %v", id, err)
	}
}

// Complete applies a worker result. Results for absent windows are dropped.
// A successful recognition closes the session.
func (r *Registry) Complete(res worker.Result) {
	s, ok := r.sessions[res.Window]
	if !ok {
		return
	}
	if err := s.Finish(res.Text, res.Err, r.sink); err != nil {
		log.Printf("session: recognition for %s failed: %v", res.Window, err)
		return
	}
	log.Printf("session: %s copied %d chars: %q", res.Window, len(res.Text), logutil.Sanitize(res.Text, 80))
	r.Close(res.Window)
}

// Close tears the session down. Absent ids are a no-op.
func (r *Registry) Close(id messages.WindowID) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	s.Close()
	log.Printf("session: %s closed", id)
}

// CloseAll closes every registered session.
func (r *Registry) CloseAll() {
	for id := range r.sessions {
		r.Close(id)
	}
}

// State reports the state of id, if registered.
func (r *Registry) State(id messages.WindowID) (State, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return Closed, false
	}
	return s.State(), true
}

func (r *Registry) Len() int { return len(r.sessions) }
