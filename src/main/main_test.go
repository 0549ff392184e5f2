package main

import (
	"testing"
	"time"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"middle-screenshot", "-env-file", "/tmp/.env", "-verbose"},
			out:  []string{"middle-screenshot", "--env-file", "/tmp/.env", "--verbose"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"middle-screenshot", "-engine=tesseract", "-env-file=/tmp/.env"},
			out:  []string{"middle-screenshot", "--engine=tesseract", "--env-file=/tmp/.env"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"middle-screenshot", "--engine", "llm", "-v", "--other"},
			out:  []string{"middle-screenshot", "--engine", "llm", "-v", "--other"},
		},
		{
			name: "Normalizes toggle flag",
			in:   []string{"middle-screenshot", "-toggle-pause"},
			out:  []string{"middle-screenshot", "--toggle-pause"},
		},
		{
			name: "Empty",
			in:   []string{},
			out:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNormalizeLegacyArgsDoesNotMutateInput(t *testing.T) {
	in := []string{"middle-screenshot", "-verbose"}
	_ = normalizeLegacyArgs(in)
	if in[1] != "-verbose" {
		t.Fatalf("input slice was modified: %v", in)
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--env-file", "/tmp/.env", "--engine", "tesseract", "-v"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.envFile != "/tmp/.env" {
		t.Fatalf("Expected envFile=/tmp/.env, got %q", opts.envFile)
	}
	if opts.engine != "tesseract" {
		t.Fatalf("Expected engine=tesseract, got %q", opts.engine)
	}
	if !opts.verbose {
		t.Fatal("Expected verbose=true")
	}
	if opts.togglePause {
		t.Fatal("Expected togglePause=false by default")
	}
}

func TestNotifyNeverBlocks(t *testing.T) {
	intents := make(chan struct{}, 1)
	notify(intents)
	notify(intents)
	if len(intents) != 1 {
		t.Fatalf("expected one pending intent, got %d", len(intents))
	}
}

func TestRunWithArgsRejectsUnknownFlag(t *testing.T) {
	if err := runWithArgs([]string{"middle-screenshot", "--no-such-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestCloseAfterWaitsForLoop(t *testing.T) {
	done := make(chan struct{})
	closed := 0
	if closeAfter(done, 10*time.Millisecond, func() { closed++ }) {
		t.Fatal("closeAfter should give up while the loop is running")
	}
	if closed != 0 {
		t.Fatal("pool must stay open while the loop may still submit")
	}

	close(done)
	if !closeAfter(done, time.Second, func() { closed++ }) {
		t.Fatal("closeAfter should report the stopped loop")
	}
	if closed != 1 {
		t.Fatalf("expected one close, got %d", closed)
	}
}
