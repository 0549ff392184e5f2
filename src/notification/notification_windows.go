//go:build windows

package notification

import (
	"log"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mbOK            = 0x00000000
	mbTopMost       = 0x00040000
	iconError       = 0x00000010
	iconInformation = 0x00000040
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procMessageBoxW = user32.NewProc("MessageBoxW")
)

func showMessageBox(title, message string, icon uintptr) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		log.Printf("notification: bad title: %v", err)
		return
	}
	messagePtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		log.Printf("notification: bad message: %v", err)
		return
	}
	procMessageBoxW.Call(
		0, // no owner window
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(mbOK|mbTopMost)|icon,
	)
}
