//go:build !windows

package tray

import "image/color"

func iconBytes(c color.NRGBA) []byte {
	return encodePNG(drawIcon(c))
}
