package lens

import (
	"fmt"
	"image"
	"math"
)

// Point is a screen coordinate as reported by the input hook.
type Point struct {
	X float64
	Y float64
}

// Lens is the normalized capture rectangle produced by a drag gesture.
// Origin is always the top-left corner and extents are never negative.
type Lens struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Resolve maps the drag start and end points to a Lens.
// A zero delta on either axis yields the zero Lens.
func Resolve(start, end Point) Lens {
	dx := end.X - start.X
	dy := end.Y - start.Y

	var l Lens
	switch {
	case dx > 0 && dy > 0:
		l = Lens{X: start.X, Y: start.Y, Width: dx, Height: dy}
	case dx < 0 && dy < 0:
		l = Lens{X: end.X, Y: end.Y, Width: -dx, Height: -dy}
	case dx > 0 && dy < 0:
		l = Lens{X: start.X, Y: end.Y, Width: dx, Height: -dy}
	case dx < 0 && dy > 0:
		l = Lens{X: end.X, Y: start.Y, Width: -dx, Height: dy}
	default:
		return Lens{}
	}

	// Capture cannot start at a negative coordinate.
	l.X = math.Max(l.X, 0)
	l.Y = math.Max(l.Y, 0)
	return l
}

// Meets reports whether the Lens is at least minW x minH.
func (l Lens) Meets(minW, minH float64) bool {
	return l.Width >= minW && l.Height >= minH
}

// IsZero reports whether l is the zero rectangle.
func (l Lens) IsZero() bool {
	return l == Lens{}
}

// Origin returns the top-left corner.
func (l Lens) Origin() Point {
	return Point{X: l.X, Y: l.Y}
}

// Rect truncates the Lens to integer pixels.
func (l Lens) Rect() image.Rectangle {
	x, y := int(l.X), int(l.Y)
	return image.Rect(x, y, x+int(l.Width), y+int(l.Height))
}

// Scale divides every component by factor. A non-positive factor returns l unchanged.
func (l Lens) Scale(factor float64) Lens {
	if factor <= 0 {
		return l
	}
	return Lens{X: l.X / factor, Y: l.Y / factor, Width: l.Width / factor, Height: l.Height / factor}
}

func (l Lens) String() string {
	return fmt.Sprintf("%gx%g@(%g,%g)", l.Width, l.Height, l.X, l.Y)
}
