//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/otiai10/gosseract"

	"middle-screenshot/src/imageutil"
)

const (
	// thresholdRadius is the block radius for binarizing input.
	thresholdRadius = 11
	// fallbackDPI is used when the image carries no resolution.
	fallbackDPI = "72"
)

// tesseractEngine runs gosseract. The client is not safe for concurrent use,
// so calls are serialized.
type tesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func newTesseract(dir string, langs []string) (Engine, error) {
	if dir != "" {
		// libtesseract resolves models from TESSDATA_PREFIX.
		if err := os.Setenv("TESSDATA_PREFIX", dir); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngineInit, err)
		}
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(langs...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	if err := client.SetVariable("user_defined_dpi", fallbackDPI); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	return &tesseractEngine{client: client}, nil
}

func (e *tesseractEngine) Name() string { return EngineTesseract }

func (e *tesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	img, err := imageutil.DecodePNG(image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	binary, err := imageutil.EncodePNG(imageutil.AdaptiveThreshold(img, thresholdRadius))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(binary); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoTextFound
	}
	return text, nil
}
