package worker

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"middle-screenshot/src/ocr"
)

type fakeEngine struct {
	text    string
	err     error
	block   chan struct{}
	calls   int32
	gotSize int32
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	atomic.StoreInt32(&f.gotSize, int32(len(image)))
	if f.block != nil {
		<-f.block
	}
	return f.text, f.err
}

func testImage() *image.RGBA { return image.NewRGBA(image.Rect(0, 0, 80, 80)) }

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for result")
		return Result{}
	}
}

func TestPoolDeliversResult(t *testing.T) {
	engine := &fakeEngine{text: "hello"}
	p := New(engine, 1, 1, 0)
	defer p.Close()

	results := make(chan Result, 1)
	if !p.Submit(context.Background(), Job{Window: 7, Image: testImage()}, func(r Result) { results <- r }) {
		t.Fatal("submit should succeed")
	}
	r := waitResult(t, results)
	if r.Window != 7 || r.Text != "hello" || r.Err != nil {
		t.Fatalf("unexpected result %+v", r)
	}
	if atomic.LoadInt32(&engine.gotSize) == 0 {
		t.Error("engine received an empty image payload")
	}
}

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	engine := &fakeEngine{block: make(chan struct{})}
	p := New(engine, 1, 1, 0)
	defer p.Close()
	ctx := context.Background()

	results := make(chan Result, 3)
	cb := func(r Result) { results <- r }
	// First submit occupies the worker, second the single queue slot
	if !p.Submit(ctx, Job{Window: 1, Image: testImage()}, cb) {
		t.Fatal("first submit should succeed")
	}
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&engine.calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !p.Submit(ctx, Job{Window: 2, Image: testImage()}, cb) {
		t.Fatal("second submit should take the queue slot")
	}
	// Third submit must drop given 1-slot queue and one in-flight
	if p.Submit(ctx, Job{Window: 3, Image: testImage()}, cb) {
		t.Fatal("expected third submit to drop due to full queue")
	}
	close(engine.block)
	waitResult(t, results)
	waitResult(t, results)
}

func TestPoolDeadline(t *testing.T) {
	engine := &fakeEngine{block: make(chan struct{})}
	defer close(engine.block)
	p := New(engine, 1, 1, 20*time.Millisecond)
	defer func() {
		go p.Close()
	}()

	results := make(chan Result, 1)
	p.Submit(context.Background(), Job{Window: 1, Image: testImage()}, func(r Result) { results <- r })
	r := waitResult(t, results)
	if !errors.Is(r.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", r.Err)
	}
}

func TestPoolRejectsInvalidJobsAndClosed(t *testing.T) {
	p := New(&fakeEngine{}, 1, 1, 0)
	if p.Submit(context.Background(), Job{Window: 1}, func(Result) {}) {
		t.Error("job without image should be rejected")
	}
	if p.Submit(context.Background(), Job{Window: 1, Image: testImage()}, nil) {
		t.Error("job without callback should be rejected")
	}
	p.Close()
	p.Close()
	if p.Submit(context.Background(), Job{Window: 1, Image: testImage()}, func(Result) {}) {
		t.Error("submit after Close should be rejected")
	}
}

func TestPoolWithoutEngine(t *testing.T) {
	p := New(nil, 1, 1, 0)
	defer p.Close()
	results := make(chan Result, 1)
	p.Submit(context.Background(), Job{Window: 1, Image: testImage()}, func(r Result) { results <- r })
	if r := waitResult(t, results); !errors.Is(r.Err, ocr.ErrEngineInit) {
		t.Fatalf("expected ErrEngineInit, got %v", r.Err)
	}
}
