package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/nfnt/resize"
)

// minRecognitionSide is the shortest side a recognition input is upscaled to.
const minRecognitionSide = 64

// Clone returns an owned copy of src with bounds rebased to the origin.
func Clone(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// PrepareForRecognition converts src to grayscale and upscales it when its
// shorter side is below minRecognitionSide.
func PrepareForRecognition(src *image.RGBA) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)

	short := b.Dx()
	if b.Dy() < short {
		short = b.Dy()
	}
	if short <= 0 || short >= minRecognitionSide {
		return gray
	}
	factor := float64(minRecognitionSide) / float64(short)
	w := uint(float64(b.Dx())*factor + 0.5)
	h := uint(float64(b.Dy())*factor + 0.5)
	return resize.Resize(w, h, gray, resize.Lanczos3)
}

// AdaptiveThreshold binarizes src against the mean of the (2*radius+1)^2
// block around each pixel, clipped at the edges. Pixels at or above the local
// mean become white, the rest black.
func AdaptiveThreshold(src image.Image, radius int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	out := image.NewGray(gray.Bounds())
	if w == 0 || h == 0 {
		return out
	}
	radius = max(radius, 0)

	// Summed-area table with a leading zero row and column.
	stride := w + 1
	sum := make([]uint64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row uint64
		for x := 0; x < w; x++ {
			row += uint64(gray.Pix[y*gray.Stride+x])
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + row
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(y-radius, 0), min(y+radius+1, h)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-radius, 0), min(x+radius+1, w)
			total := sum[y1*stride+x1] - sum[y0*stride+x1] - sum[y1*stride+x0] + sum[y0*stride+x0]
			count := uint64((y1 - y0) * (x1 - x0))
			if uint64(gray.Pix[y*gray.Stride+x])*count >= total {
				out.Pix[y*out.Stride+x] = 0xff
			}
		}
	}
	return out
}

// EncodeForRecognition prepares src and encodes the result as PNG.
func EncodeForRecognition(src *image.RGBA) ([]byte, error) {
	return EncodePNG(PrepareForRecognition(src))
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], pngMagic)
}

// DecodePNG decodes data into an owned RGBA buffer.
func DecodePNG(data []byte) (*image.RGBA, error) {
	if !IsPNG(data) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return Clone(rgba), nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}
