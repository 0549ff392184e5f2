package screenshot

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/kbinani/screenshot"

	"middle-screenshot/src/lens"
)

var (
	ErrNoScreenAtPoint   = errors.New("no screen at point")
	ErrRegionOutOfBounds = errors.New("region out of bounds")
	ErrBackend           = errors.New("capture backend failure")
)

// Capture is the pixel data for one Lens together with the scale factor that
// was used to map the Lens into capture space.
type Capture struct {
	Image *image.RGBA
	Scale float64
}

// WindowSize multiplies the captured pixel size back by the scale factor.
func (c Capture) WindowSize() image.Point {
	if c.Image == nil {
		return image.Point{}
	}
	s := c.Scale
	if s <= 0 {
		s = 1
	}
	b := c.Image.Bounds()
	return image.Pt(int(math.Round(float64(b.Dx())*s)), int(math.Round(float64(b.Dy())*s)))
}

// Backend is the raw screen access used by Provider.
type Backend interface {
	NumDisplays() int
	DisplayBounds(i int) image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

// ScaleFunc returns the scale factor of the monitor under p.
type ScaleFunc func(p lens.Point) float64

// Provider captures Lens regions across all active displays.
type Provider struct {
	backend Backend
	scale   ScaleFunc
}

// New returns a Provider backed by the active displays. A positive
// scaleOverride replaces per-monitor scale detection.
func New(scaleOverride float64) *Provider {
	scale := ScaleFunc(platformScale)
	if scaleOverride > 0 {
		scale = func(lens.Point) float64 { return scaleOverride }
	}
	return NewWithBackend(displayBackend{}, scale)
}

func NewWithBackend(b Backend, scale ScaleFunc) *Provider {
	if scale == nil {
		scale = func(lens.Point) float64 { return 1 }
	}
	return &Provider{backend: b, scale: scale}
}

// Capture converts l into capture space (logical coordinates divided by the
// monitor scale factor) and grabs it from the display that contains its origin.
func (p *Provider) Capture(l lens.Lens) (Capture, error) {
	scale := p.scale(l.Origin())
	if scale <= 0 {
		scale = 1
	}
	rect := l.Scale(scale).Rect()
	if rect.Empty() {
		return Capture{}, fmt.Errorf("%w: empty region %v", ErrRegionOutOfBounds, rect)
	}

	display, ok := p.displayAt(rect.Min)
	if !ok {
		return Capture{}, fmt.Errorf("%w: (%d,%d)", ErrNoScreenAtPoint, rect.Min.X, rect.Min.Y)
	}
	if !rect.In(display) {
		return Capture{}, fmt.Errorf("%w: %v not within display %v", ErrRegionOutOfBounds, rect, display)
	}

	img, err := p.backend.CaptureRect(rect)
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if img == nil {
		return Capture{}, fmt.Errorf("%w: backend returned no image", ErrBackend)
	}
	log.Printf("screenshot: captured %v at scale %.2f", rect, scale)
	return Capture{Image: img, Scale: scale}, nil
}

func (p *Provider) displayAt(pt image.Point) (image.Rectangle, bool) {
	n := p.backend.NumDisplays()
	for i := 0; i < n; i++ {
		b := p.backend.DisplayBounds(i)
		if pt.In(b) {
			return b, true
		}
	}
	return image.Rectangle{}, false
}

// displayBackend reads the active displays through kbinani/screenshot.
type displayBackend struct{}

func (displayBackend) NumDisplays() int { return screenshot.NumActiveDisplays() }

func (displayBackend) DisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }

func (displayBackend) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}
