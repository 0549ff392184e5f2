package eventloop

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"middle-screenshot/src/lens"
	"middle-screenshot/src/messages"
	"middle-screenshot/src/screenshot"
	"middle-screenshot/src/surface"
	"middle-screenshot/src/worker"
)

type fakeCapturer struct {
	calls []lens.Lens
	err   error
}

func (c *fakeCapturer) Capture(l lens.Lens) (screenshot.Capture, error) {
	c.calls = append(c.calls, l)
	if c.err != nil {
		return screenshot.Capture{}, c.err
	}
	r := l.Rect()
	return screenshot.Capture{Image: image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), Scale: 1}, nil
}

type fakeWindow struct {
	id     messages.WindowID
	mu     sync.Mutex
	closed bool
}

func (w *fakeWindow) ID() messages.WindowID        { return w.id }
func (w *fakeWindow) Render(f surface.Frame) error { return nil }
func (w *fakeWindow) Show() error                  { return nil }
func (w *fakeWindow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *fakeWindow) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

type fakeOpener struct {
	opts    []surface.Options
	windows []*fakeWindow
	err     error
}

func (o *fakeOpener) Open(opts surface.Options) (surface.Window, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opts = append(o.opts, opts)
	w := &fakeWindow{id: messages.WindowID(len(o.windows) + 1)}
	o.windows = append(o.windows, w)
	return w, nil
}

type fakeClipboard struct {
	mu     sync.Mutex
	texts  []string
	images int
}

func (c *fakeClipboard) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *fakeClipboard) SetImage(img *image.RGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images++
	return nil
}

func (c *fakeClipboard) snapshot() ([]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...), c.images
}

type fakePool struct {
	mu   sync.Mutex
	jobs []worker.Job
	text string
}

func (p *fakePool) Submit(ctx context.Context, j worker.Job, cb worker.ResultCallback) bool {
	p.mu.Lock()
	p.jobs = append(p.jobs, j)
	p.mu.Unlock()
	go cb(worker.Result{Window: j.Window, Text: p.text})
	return true
}

type fakeTray struct{ states []bool }

func (t *fakeTray) SetPaused(paused bool) { t.states = append(t.states, paused) }

func newTestLoop() (*Loop, *fakeCapturer, *fakeOpener, *fakeClipboard) {
	c := &fakeCapturer{}
	o := &fakeOpener{}
	cb := &fakeClipboard{}
	l := New(Options{Capturer: c, Opener: o, Clipboard: cb, Pool: &fakePool{text: "ocr"}, MinWidth: 10, MinHeight: 10})
	return l, c, o, cb
}

func TestDragCreatesOneSession(t *testing.T) {
	l, c, o, _ := newTestLoop()
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 50, Y: 50})
	l.Handle(messages.End{})

	if len(c.calls) != 1 {
		t.Fatalf("expected one capture, got %d", len(c.calls))
	}
	want := lens.Lens{X: 0, Y: 0, Width: 50, Height: 50}
	if c.calls[0] != want {
		t.Fatalf("captured %v, want %v", c.calls[0], want)
	}
	if len(o.opts) != 1 {
		t.Fatalf("expected one window, got %d", len(o.opts))
	}
	if o.opts[0].Size != image.Pt(50, 50) || o.opts[0].Position != image.Pt(0, 0) {
		t.Errorf("unexpected window options %+v", o.opts[0])
	}
	if l.registry.Len() != 1 {
		t.Fatalf("expected one session, got %d", l.registry.Len())
	}
}

func TestRepeatedStartKeepsOrigin(t *testing.T) {
	l, c, _, _ := newTestLoop()
	l.Handle(messages.Move{X: 5, Y: 5})
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 30, Y: 30})
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 45, Y: 25})
	l.Handle(messages.End{})

	want := lens.Lens{X: 5, Y: 5, Width: 40, Height: 20}
	if len(c.calls) != 1 || c.calls[0] != want {
		t.Fatalf("captured %v, want [%v]", c.calls, want)
	}
}

func TestReverseDrag(t *testing.T) {
	l, c, _, _ := newTestLoop()
	l.Handle(messages.Move{X: 100, Y: 80})
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 60, Y: 20})
	l.Handle(messages.End{})
	want := lens.Lens{X: 60, Y: 20, Width: 40, Height: 60}
	if len(c.calls) != 1 || c.calls[0] != want {
		t.Fatalf("captured %v, want [%v]", c.calls, want)
	}
}

func TestSmallLensNeverCaptures(t *testing.T) {
	l, c, o, _ := newTestLoop()
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 3, Y: 3})
	l.Handle(messages.End{})
	if len(c.calls) != 0 || len(o.opts) != 0 {
		t.Fatalf("small lens must not capture: captures=%d windows=%d", len(c.calls), len(o.opts))
	}
}

func TestEndWithoutStartIsIgnored(t *testing.T) {
	l, c, _, _ := newTestLoop()
	l.Handle(messages.Move{X: 100, Y: 100})
	l.Handle(messages.End{})
	if len(c.calls) != 0 {
		t.Fatal("End without a pending drag must not capture")
	}
}

func TestDragStateClearedAfterEnd(t *testing.T) {
	l, c, _, _ := newTestLoop()
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 20, Y: 20})
	l.Handle(messages.End{})
	l.Handle(messages.End{})
	if len(c.calls) != 1 {
		t.Fatalf("second End must be ignored, got %d captures", len(c.calls))
	}
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 40, Y: 40})
	l.Handle(messages.End{})
	want := lens.Lens{X: 20, Y: 20, Width: 20, Height: 20}
	if len(c.calls) != 2 || c.calls[1] != want {
		t.Fatalf("next drag should start at the cursor, got %v", c.calls)
	}
}

func TestPauseMidDragDiscardsDragStart(t *testing.T) {
	l, c, _, _ := newTestLoop()
	l.Handle(messages.Start{})
	l.Handle(messages.Pause{})
	// The release happened while paused and never reached the loop.
	l.Handle(messages.Resume{})
	l.Handle(messages.Move{X: 200, Y: 200})
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 260, Y: 260})
	l.Handle(messages.End{})

	want := lens.Lens{X: 200, Y: 200, Width: 60, Height: 60}
	if len(c.calls) != 1 || c.calls[0] != want {
		t.Fatalf("captured %v, want [%v]", c.calls, want)
	}
}

func TestEndAfterPauseIsIgnored(t *testing.T) {
	l, c, _, _ := newTestLoop()
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 80, Y: 80})
	l.Handle(messages.Pause{})
	l.Handle(messages.End{})
	if len(c.calls) != 0 {
		t.Fatalf("drag interrupted by pause must not capture, got %v", c.calls)
	}
}

func TestCaptureFailureCreatesNothing(t *testing.T) {
	l, c, o, cb := newTestLoop()
	l.opts.CopyImage = true
	c.err = screenshot.ErrNoScreenAtPoint
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 50, Y: 50})
	l.Handle(messages.End{})
	if len(o.opts) != 0 || l.registry.Len() != 0 {
		t.Fatal("capture failure must not create a session")
	}
	if _, images := cb.snapshot(); images != 0 {
		t.Fatal("failed capture must not reach the clipboard")
	}
}

func TestWindowFailureCreatesNothing(t *testing.T) {
	l, _, o, _ := newTestLoop()
	o.err = errors.New("no display")
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 50, Y: 50})
	l.Handle(messages.End{})
	if l.registry.Len() != 0 {
		t.Fatal("window failure must not register a session")
	}
}

func TestCopyImageOnCapture(t *testing.T) {
	l, _, _, cb := newTestLoop()
	l.opts.CopyImage = true
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 50, Y: 50})
	l.Handle(messages.End{})
	if _, images := cb.snapshot(); images != 1 {
		t.Fatalf("expected capture on clipboard, got %d", images)
	}
}

func TestPauseResumeUpdatesTray(t *testing.T) {
	l, _, _, _ := newTestLoop()
	tr := &fakeTray{}
	l.opts.Tray = tr
	l.Handle(messages.Pause{})
	l.Handle(messages.Resume{})
	if len(tr.states) != 2 || !tr.states[0] || tr.states[1] {
		t.Fatalf("unexpected tray states %v", tr.states)
	}
}

func TestCloseAbsentWindow(t *testing.T) {
	l, _, _, _ := newTestLoop()
	l.Handle(messages.Close{Window: 42})
	l.Handle(messages.Redraw{Window: 42})
	l.Handle(messages.Recognize{Window: 42})
	if l.registry.Len() != 0 {
		t.Fatal("messages for absent windows must be no-ops")
	}
}

func TestProxySend(t *testing.T) {
	l := New(Options{QueueSize: 1})
	p := l.Proxy()
	if err := p.Send(messages.Start{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := p.Send(messages.End{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = l.Run(ctx)
	if err := p.Send(messages.Start{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestRunRecognizesAndShutsDown(t *testing.T) {
	c := &fakeCapturer{}
	o := &fakeOpener{}
	cb := &fakeClipboard{}
	l := New(Options{
		Capturer:       c,
		Opener:         o,
		Clipboard:      cb,
		Pool:           &fakePool{text: "recognized"},
		RedrawInterval: 5 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	p := l.Proxy()
	for _, m := range []messages.Message{
		messages.Start{},
		messages.Move{X: 40, Y: 40},
		messages.End{},
		messages.Recognize{Window: 1},
	} {
		if err := p.Send(m); err != nil {
			t.Fatalf("send %s: %v", m.Type(), err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		texts, _ := cb.snapshot()
		if len(texts) == 1 {
			if texts[0] != "recognized" {
				t.Fatalf("unexpected clipboard text %q", texts[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for recognition")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected Run error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if !o.windows[0].isClosed() {
		t.Error("window should be closed after successful recognition")
	}
}

func TestShutdownClosesOpenSessions(t *testing.T) {
	l, _, o, _ := newTestLoop()
	l.Handle(messages.Start{})
	l.Handle(messages.Move{X: 50, Y: 50})
	l.Handle(messages.End{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = l.Run(ctx)
	if l.registry.Len() != 0 || !o.windows[0].isClosed() {
		t.Fatal("shutdown must close every session")
	}
}
