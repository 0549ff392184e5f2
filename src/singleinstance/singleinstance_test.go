package singleinstance

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// freePort finds a loopback port nobody is listening on.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestSecondAcquireIsRefused(t *testing.T) {
	port := freePort(t)
	first, err := Acquire(port, nil)
	if err != nil {
		t.Skipf("bind failed: %v", err)
	}
	defer first.Close()

	if _, err := Acquire(port, nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestToggleReachesResident(t *testing.T) {
	port := freePort(t)
	toggles := make(chan struct{}, 1)
	res, err := Acquire(port, func() { toggles <- struct{}{} })
	if err != nil {
		t.Skipf("bind failed: %v", err)
	}
	defer res.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := SendToggle(ctx, port); err != nil {
		t.Fatalf("SendToggle: %v", err)
	}
	select {
	case <-toggles:
	case <-time.After(time.Second):
		t.Fatal("toggle callback not invoked")
	}
}

func TestSendToggleWithoutResident(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := SendToggle(ctx, port); !errors.Is(err, ErrNoResident) {
		t.Fatalf("expected ErrNoResident, got %v", err)
	}
}

func TestCloseReleasesPort(t *testing.T) {
	port := freePort(t)
	res, err := Acquire(port, nil)
	if err != nil {
		t.Skipf("bind failed: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := Acquire(port, nil)
	if err != nil {
		t.Fatalf("re-acquire after close: %v", err)
	}
	again.Close()
}

func TestClampPort(t *testing.T) {
	for in, want := range map[int]int{0: DefaultPort, 80: DefaultPort, 70000: DefaultPort, 50000: 50000} {
		if got := clampPort(in); got != want {
			t.Errorf("clampPort(%d) = %d, want %d", in, got, want)
		}
	}
}
