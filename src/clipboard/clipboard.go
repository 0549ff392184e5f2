package clipboard

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.design/x/clipboard"

	"middle-screenshot/src/imageutil"
)

// ErrUnavailable is returned when writes happen before a successful Init.
var ErrUnavailable = errors.New("clipboard not initialized")

var (
	writeMu sync.Mutex
	ready   bool
)

func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard init: %w", err)
	}
	ready = true
	return nil
}

// SetText performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func SetText(text string) error {
	return write(clipboard.FmtText, []byte(text))
}

// SetImage places img on the clipboard as PNG.
func SetImage(img *image.RGBA) error {
	data, err := imageutil.EncodePNG(img)
	if err != nil {
		return err
	}
	return write(clipboard.FmtImage, data)
}

func write(format clipboard.Format, data []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return ErrUnavailable
	}
	clipboard.Write(format, data)
	return nil
}

// Sink exposes the package functions as a value for the coordinator.
type Sink struct{}

func (Sink) SetText(text string) error { return SetText(text) }

func (Sink) SetImage(img *image.RGBA) error { return SetImage(img) }
