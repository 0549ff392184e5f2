package worker

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"middle-screenshot/src/imageutil"
	"middle-screenshot/src/messages"
	"middle-screenshot/src/ocr"
)

// Job is one recognition request. Image must be owned by the job; the pool
// never writes to it.
type Job struct {
	Window messages.WindowID
	Image  *image.RGBA
}

// Result is reported once per accepted Job.
type Result struct {
	Window messages.WindowID
	Text   string
	Err    error
}

// ResultCallback is invoked on completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(Result)

// Pool is a fixed-size recognition worker pool with a bounded queue.
type Pool struct {
	engine   ocr.Engine
	deadline time.Duration
	jobs     chan job
	wg       sync.WaitGroup
	closed   chan struct{}
	once     sync.Once
}

type job struct {
	ctx context.Context
	Job
	cb ResultCallback
}

// New creates a worker pool with size workers and a queue of queue slots.
// size and queue default to 1; deadline <= 0 disables the per-job timeout.
func New(engine ocr.Engine, size, queue int, deadline time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue <= 0 {
		queue = 1
	}
	p := &Pool{engine: engine, deadline: deadline, jobs: make(chan job, queue), closed: make(chan struct{})}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in recognition worker: %v", r)
			j.cb(Result{Window: j.Window, Err: errors.New("recognition worker panicked")})
		}
	}()

	ctx := j.ctx
	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}

	b := j.Image.Bounds()
	log.Printf("Worker: Starting recognition for %s (%dx%d)", j.Window, b.Dx(), b.Dy())
	text, err := p.recognize(ctx, j.Image)
	log.Printf("Worker: Recognition for %s completed, text length=%d, err=%v", j.Window, len(text), err)
	j.cb(Result{Window: j.Window, Text: text, Err: err})
}

// Submit enqueues a job if a queue slot is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, j Job, cb ResultCallback) bool {
	if j.Image == nil || cb == nil {
		return false
	}
	select {
	case <-p.closed:
		return false
	default:
	}
	select {
	case p.jobs <- job{ctx: ctx, Job: j, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. Submit must not race with Close.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.closed)
		close(p.jobs)
	})
	p.wg.Wait()
}

// recognize prepares the image and runs the engine with a deadline-aware path.
func (p *Pool) recognize(ctx context.Context, img *image.RGBA) (string, error) {
	if p.engine == nil {
		return "", ocr.ErrEngineInit
	}
	data, err := imageutil.EncodeForRecognition(img)
	if err != nil {
		return "", err
	}
	// Fast path: if no deadline, call the engine directly.
	if _, ok := ctx.Deadline(); !ok {
		return p.engine.Recognize(ctx, data)
	}
	// Engines may ignore ctx; run in a sub-goroutine and respect ctx.Done().
	resCh := make(chan struct {
		text string
		err  error
	}, 1)
	go func() {
		text, err := p.engine.Recognize(ctx, data)
		resCh <- struct {
			text string
			err  error
		}{text, err}
	}()
	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		// Allow the engine to continue in background; we return timeout.
		return "", ctx.Err()
	}
}
