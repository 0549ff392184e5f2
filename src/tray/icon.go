package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 32

var (
	frameColor  = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	pausedColor = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// drawIcon renders a dashed selection frame with a solid middle bar, the
// mouse wheel button that starts a capture.
func drawIcon(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	const lo, hi = 3, iconSize - 4
	for i := lo; i <= hi; i++ {
		if (i/3)%2 == 1 {
			continue
		}
		for _, w := range []int{0, 1} {
			img.SetNRGBA(i, lo+w, c)
			img.SetNRGBA(i, hi-w, c)
			img.SetNRGBA(lo+w, i, c)
			img.SetNRGBA(hi-w, i, c)
		}
	}
	for y := 10; y < iconSize-10; y++ {
		for x := iconSize/2 - 2; x < iconSize/2+2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// wrapICO embeds a PNG in a single-image ICO container, which is what the
// Windows tray expects.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	header := struct {
		Reserved, Type, Count uint16
	}{0, 1, 1}
	entry := struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{uint8(size), uint8(size), 0, 0, 1, 32, uint32(len(pngData)), 6 + 16}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	_ = binary.Write(&buf, binary.LittleEndian, entry)
	buf.Write(pngData)
	return buf.Bytes()
}
