//go:build !windows

package hotkey

import "context"

// Listen is unavailable here: the gohook event stream is owned by the mouse
// hook and key rawcodes are not virtual key codes.
func Listen(ctx context.Context, c Combo, fire func()) error {
	return ErrUnsupported
}
