//go:build !windows

package notification

import (
	"fmt"
	"os"
)

const (
	iconError uintptr = iota
	iconInformation
)

// showMessageBox falls back to stderr; log output may be discarded.
func showMessageBox(title, message string, icon uintptr) {
	if icon == iconError {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	}
}
