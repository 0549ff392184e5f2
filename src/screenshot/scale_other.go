//go:build !windows

package screenshot

import "middle-screenshot/src/lens"

// platformScale has no per-monitor source outside Windows; use SCALE_FACTOR to override.
func platformScale(lens.Point) float64 { return 1 }
