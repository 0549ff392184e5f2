//go:build windows

package tray

import "image/color"

func iconBytes(c color.NRGBA) []byte {
	return wrapICO(encodePNG(drawIcon(c)), iconSize)
}
