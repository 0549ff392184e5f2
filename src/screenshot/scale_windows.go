//go:build windows

package screenshot

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"middle-screenshot/src/lens"
)

const monitorDefaultToNearest = 2

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	shcore                       = windows.NewLazySystemDLL("Shcore.dll")
	procMonitorFromPoint         = user32.NewProc("MonitorFromPoint")
	procGetScaleFactorForMonitor = shcore.NewProc("GetScaleFactorForMonitor")
)

// platformScale asks Windows for the scale factor (100, 125, 150...) of the
// monitor nearest to p. Falls back to 1 when Shcore is unavailable.
func platformScale(p lens.Point) float64 {
	if err := procGetScaleFactorForMonitor.Find(); err != nil {
		return 1
	}
	// POINT is passed by value and packs into a single register on amd64/arm64.
	pt := uintptr(uint32(int32(p.X))) | uintptr(uint32(int32(p.Y)))<<32
	hmon, _, _ := procMonitorFromPoint.Call(pt, monitorDefaultToNearest)
	if hmon == 0 {
		return 1
	}
	var percent uint32
	ret, _, _ := procGetScaleFactorForMonitor.Call(hmon, uintptr(unsafe.Pointer(&percent)))
	if ret != 0 || percent == 0 {
		return 1
	}
	return float64(percent) / 100
}
