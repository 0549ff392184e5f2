//go:build !tesseract

package ocr

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTesseractUnavailableWithoutTag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eng.traineddata"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{Engine: EngineTesseract, TessdataDir: dir}); !errors.Is(err, ErrEngineInit) {
		t.Errorf("expected ErrEngineInit, got %v", err)
	}
}
