package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"middle-screenshot/src/llm"
)

func TestNewSelectsEngine(t *testing.T) {
	e, err := New(Options{})
	if err != nil {
		t.Fatalf("New with defaults failed: %v", err)
	}
	if e.Name() != EngineLLM {
		t.Errorf("expected llm engine by default, got %s", e.Name())
	}

	if _, err := New(Options{Engine: "abacus"}); !errors.Is(err, ErrEngineInit) {
		t.Errorf("expected ErrEngineInit for unknown engine, got %v", err)
	}
}

func TestLLMEngineNotInitialized(t *testing.T) {
	llm.Init(nil)
	_, err := llmEngine{}.Recognize(context.Background(), []byte{0xFF})
	if !errors.Is(err, ErrEngineInit) {
		t.Errorf("expected ErrEngineInit, got %v", err)
	}
}

func TestLLMEngineBackendError(t *testing.T) {
	llm.Init(&llm.Config{APIKey: "", Model: "test_model"})
	defer llm.Init(nil)
	_, err := llmEngine{}.Recognize(context.Background(), []byte{0xFF})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
}

func TestLanguages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"eng.traineddata", "chi_sim.traineddata", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "old.traineddata"), 0o700); err != nil {
		t.Fatal(err)
	}

	langs, err := Languages(dir)
	if err != nil {
		t.Fatalf("Languages failed: %v", err)
	}
	if expected := []string{"chi_sim", "eng"}; !reflect.DeepEqual(langs, expected) {
		t.Errorf("Languages() = %v, expected %v", langs, expected)
	}

	if _, err := Languages(t.TempDir()); !errors.Is(err, ErrEngineInit) {
		t.Errorf("expected ErrEngineInit for empty dir, got %v", err)
	}
	if _, err := Languages(filepath.Join(dir, "missing")); !errors.Is(err, ErrEngineInit) {
		t.Errorf("expected ErrEngineInit for missing dir, got %v", err)
	}
}
