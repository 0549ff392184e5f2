package surface

import (
	"errors"
	"image"

	"middle-screenshot/src/messages"
)

var ErrNoDisplay = errors.New("render surface unavailable")

// Options describe an overlay window.
type Options struct {
	Title       string
	Size        image.Point
	Position    image.Point
	Decorated   bool
	AlwaysOnTop bool
}

// Frame is one render of an overlay: the captured pixels plus an optional
// loading indicator advanced by Tick.
type Frame struct {
	Image   *image.RGBA
	Loading bool
	Tick    int
}

// Window is one overlay window. Close must be safe to call more than once.
type Window interface {
	ID() messages.WindowID
	Render(f Frame) error
	Show() error
	Close()
}

// Opener creates overlay windows. Windows report Close, Redraw and
// Recognize messages for their own id.
type Opener interface {
	Open(opts Options) (Window, error)
}

var loadingFrames = []string{"Recognizing", "Recognizing.", "Recognizing..", "Recognizing..."}

// LoadingText returns the indicator text for tick.
func LoadingText(tick int) string {
	if tick < 0 {
		tick = -tick
	}
	return loadingFrames[tick%len(loadingFrames)]
}
