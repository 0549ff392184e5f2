package eventloop

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"middle-screenshot/src/lens"
	"middle-screenshot/src/messages"
	"middle-screenshot/src/screenshot"
	"middle-screenshot/src/session"
	"middle-screenshot/src/surface"
	"middle-screenshot/src/worker"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrStopped   = errors.New("event loop stopped")
)

const (
	defaultQueueSize = 256
	defaultMinSide   = 10

	// DefaultRedrawInterval paces the loading animation of running recognitions.
	DefaultRedrawInterval = 150 * time.Millisecond
)

// Capturer grabs the pixels under a Lens.
type Capturer interface {
	Capture(l lens.Lens) (screenshot.Capture, error)
}

// Clipboard receives captured images and recognized text.
type Clipboard interface {
	SetText(text string) error
	SetImage(img *image.RGBA) error
}

// Submitter runs recognition jobs in the background.
type Submitter interface {
	Submit(ctx context.Context, j worker.Job, cb worker.ResultCallback) bool
}

// PauseIndicator shows the pause state to the user.
type PauseIndicator interface {
	SetPaused(paused bool)
}

type Options struct {
	Capturer  Capturer
	Opener    surface.Opener
	Pool      Submitter
	Clipboard Clipboard
	Tray      PauseIndicator

	MinWidth  float64
	MinHeight float64
	// CopyImage places every capture on the clipboard as soon as it is taken.
	CopyImage bool

	QueueSize int
	// RedrawInterval paces the loading animation; 0 re-posts immediately.
	RedrawInterval time.Duration
}

// Loop is the single consumer of every input, window and worker event. It
// alone mutates drag state and the session registry.
type Loop struct {
	opts     Options
	events   chan messages.Message
	results  chan worker.Result
	done     chan struct{}
	proxy    *Proxy
	registry *session.Registry
	ctx      context.Context

	cursor    lens.Point
	dragStart *lens.Point
}

// New creates a loop. Zero values in opts select defaults, except
// RedrawInterval which is used as given.
func New(opts Options) *Loop {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MinWidth <= 0 {
		opts.MinWidth = defaultMinSide
	}
	if opts.MinHeight <= 0 {
		opts.MinHeight = defaultMinSide
	}
	l := &Loop{
		opts:    opts,
		events:  make(chan messages.Message, opts.QueueSize),
		results: make(chan worker.Result, opts.QueueSize),
		done:    make(chan struct{}),
		ctx:     context.Background(),
	}
	l.proxy = &Proxy{events: l.events, done: l.done}
	var sink session.TextSink
	if opts.Clipboard != nil {
		sink = opts.Clipboard
	}
	l.registry = session.NewRegistry(opts.Opener, l, sink, messages.SenderFunc(l.scheduleRedraw))
	return l
}

// Proxy returns the sender handle producers use to reach the loop.
func (l *Loop) Proxy() *Proxy { return l.proxy }

// Run consumes events until ctx is cancelled, then closes every session.
func (l *Loop) Run(ctx context.Context) error {
	l.ctx = ctx
	defer func() {
		close(l.done)
		l.registry.CloseAll()
		log.Printf("eventloop: stopped")
	}()
	log.Printf("eventloop: running (min capture %.0fx%.0f)", l.opts.MinWidth, l.opts.MinHeight)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-l.events:
			l.Handle(m)
		case r := <-l.results:
			l.complete(r)
		}
	}
}

// Handle applies one event. Nothing it calls can fail the loop.
func (l *Loop) Handle(m messages.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in event loop while handling %s: %v", m.Type(), r)
		}
	}()
	switch msg := m.(type) {
	case messages.Start:
		if l.dragStart == nil {
			start := l.cursor
			l.dragStart = &start
		}
	case messages.Move:
		l.cursor = lens.Point{X: msg.X, Y: msg.Y}
	case messages.End:
		l.handleEnd()
	case messages.Pause:
		// The release of a drag in progress is no longer translated.
		l.dragStart = nil
		if l.opts.Tray != nil {
			l.opts.Tray.SetPaused(true)
		}
	case messages.Resume:
		if l.opts.Tray != nil {
			l.opts.Tray.SetPaused(false)
		}
	case messages.Close:
		l.registry.Close(msg.Window)
	case messages.Redraw:
		l.registry.Redraw(msg.Window, msg.Run)
	case messages.Recognize:
		l.registry.RequestRecognition(msg.Window)
	default:
		log.Printf("eventloop: ignoring unknown message %s", m.Type())
	}
}

func (l *Loop) handleEnd() {
	if l.dragStart == nil {
		return
	}
	start := *l.dragStart
	l.dragStart = nil

	region := lens.Resolve(start, l.cursor)
	if !region.Meets(l.opts.MinWidth, l.opts.MinHeight) {
		return
	}
	if l.opts.Capturer == nil {
		log.Printf("eventloop: no capture provider, dropping %s", region)
		return
	}
	c, err := l.opts.Capturer.Capture(region)
	if err != nil {
		log.Printf("eventloop: capture of %s failed: %v", region, err)
		return
	}
	if l.opts.CopyImage && l.opts.Clipboard != nil {
		if err := l.opts.Clipboard.SetImage(c.Image); err != nil {
			log.Printf("eventloop: copying capture to clipboard failed: %v", err)
		}
	}
	origin := region.Rect().Min
	id, err := l.registry.Create(c, c.WindowSize(), origin)
	if err != nil {
		log.Printf("eventloop: window for %s failed: %v", region, err)
		return
	}
	log.Printf("eventloop: %s captured into %s", region, id)
}

func (l *Loop) complete(r worker.Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("PANIC in event loop while completing %s: %v", r.Window, p)
		}
	}()
	l.registry.Complete(r)
}

// Launch submits recognition for a window to the pool. Completions are
// posted back into the loop and dropped once it has stopped.
func (l *Loop) Launch(id messages.WindowID, img *image.RGBA) bool {
	if l.opts.Pool == nil {
		return false
	}
	return l.opts.Pool.Submit(l.ctx, worker.Job{Window: id, Image: img}, func(r worker.Result) {
		select {
		case l.results <- r:
		case <-l.done:
		}
	})
}

func (l *Loop) scheduleRedraw(m messages.Message) error {
	if l.opts.RedrawInterval <= 0 {
		return l.proxy.Send(m)
	}
	time.AfterFunc(l.opts.RedrawInterval, func() {
		if err := l.proxy.Send(m); err != nil && !errors.Is(err, ErrStopped) {
			log.Printf("eventloop: redraw dropped: %v", err)
		}
	})
	return nil
}

// Proxy is the many-producer handle into the loop. Send never blocks.
type Proxy struct {
	events chan<- messages.Message
	done   <-chan struct{}
}

func (p *Proxy) Send(m messages.Message) error {
	select {
	case <-p.done:
		return ErrStopped
	default:
	}
	select {
	case p.events <- m:
		return nil
	default:
		return ErrQueueFull
	}
}
