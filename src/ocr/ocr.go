package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"middle-screenshot/src/llm"
)

var (
	ErrEngineInit  = errors.New("recognition engine init failed")
	ErrNoTextFound = errors.New("no text found")
	ErrBackend     = errors.New("recognition backend failure")
)

const (
	EngineLLM       = "llm"
	EngineTesseract = "tesseract"
)

// Engine turns an encoded image into text. Recognize may block for seconds
// and must never be called from the event loop.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Options struct {
	Engine      string
	TessdataDir string
}

// New returns the engine selected by opts.Engine (default llm).
func New(opts Options) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineLLM:
		return llmEngine{}, nil
	case EngineTesseract:
		langs, err := Languages(opts.TessdataDir)
		if err != nil {
			return nil, err
		}
		return newTesseract(opts.TessdataDir, langs)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrEngineInit, opts.Engine)
	}
}

// llmEngine performs OCR through the vision model configured with llm.Init.
type llmEngine struct{}

func (llmEngine) Name() string { return EngineLLM }

func (llmEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	text, err := llm.QueryVision(ctx, image)
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, llm.ErrNoText):
		return "", ErrNoTextFound
	case errors.Is(err, llm.ErrNotInitialized):
		return "", fmt.Errorf("%w: %v", ErrEngineInit, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "", err
	default:
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
}

// Languages lists the tesseract models (*.traineddata) in dir, sorted.
func Languages(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading tessdata dir: %v", ErrEngineInit, err)
	}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".traineddata" {
			continue
		}
		langs = append(langs, strings.TrimSuffix(name, ".traineddata"))
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("%w: no *.traineddata files in %s", ErrEngineInit, dir)
	}
	sort.Strings(langs)
	log.Printf("ocr: tesseract languages %s", strings.Join(langs, "+"))
	return langs, nil
}
