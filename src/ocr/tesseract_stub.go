//go:build !tesseract

package ocr

import "fmt"

func newTesseract(dir string, langs []string) (Engine, error) {
	return nil, fmt.Errorf("%w: built without the tesseract tag", ErrEngineInit)
}
