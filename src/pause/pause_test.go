package pause

import (
	"context"
	"sync"
	"testing"
	"time"

	"middle-screenshot/src/messages"
)

type recorder struct {
	mu   sync.Mutex
	msgs []messages.Message
}

func (r *recorder) Send(m messages.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *recorder) snapshot() []messages.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messages.Message(nil), r.msgs...)
}

func TestFlagToggle(t *testing.T) {
	var f Flag
	if f.Paused() {
		t.Fatal("zero Flag must start resumed")
	}
	if !f.Toggle() || !f.Paused() {
		t.Fatal("first toggle should pause")
	}
	if f.Toggle() || f.Paused() {
		t.Fatal("second toggle should resume")
	}
}

func TestControllerEmitsPauseAndResume(t *testing.T) {
	var f Flag
	rec := &recorder{}
	c := NewController(&f, rec)

	intents := make(chan struct{})
	done := make(chan struct{})
	go func() {
		c.Run(context.Background(), intents)
		close(done)
	}()

	intents <- struct{}{}
	intents <- struct{}{}
	intents <- struct{}{}
	close(intents)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not stop after intents closed")
	}

	got := rec.snapshot()
	expected := []string{messages.TypePause, messages.TypeResume, messages.TypePause}
	if len(got) != len(expected) {
		t.Fatalf("expected %d messages, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i].Type() != expected[i] {
			t.Errorf("message %d = %s, expected %s", i, got[i].Type(), expected[i])
		}
	}
	if !f.Paused() {
		t.Error("expected flag to end paused after three intents")
	}
}

func TestControllerStopsOnContext(t *testing.T) {
	var f Flag
	c := NewController(&f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, make(chan struct{}))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not stop on cancel")
	}
}
