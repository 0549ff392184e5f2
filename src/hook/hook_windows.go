//go:build windows

package hook

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const whMouseLL = 14

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
)

// msllHookStruct mirrors MSLLHOOKSTRUCT.
type msllHookStruct struct {
	Pt          win.POINT
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// windowsListener installs a WH_MOUSE_LL hook. Low-level hooks are delivered to
// the installing thread, so that thread is locked and pumps messages until ctx ends.
type windowsListener struct{}

func newPlatformListener() Listener { return &windowsListener{} }

func (l *windowsListener) Start(ctx context.Context, t *Translator) error {
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hook thread: %v", r)
			}
		}()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var hhook uintptr
		callback := windows.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
			if int32(nCode) >= 0 {
				info := (*msllHookStruct)(unsafe.Pointer(lParam))
				if t.Handle(rawFromMessage(uint32(wParam), info)) == Suppress {
					return 1
				}
			}
			ret, _, _ := procCallNextHookEx.Call(hhook, nCode, wParam, lParam)
			return ret
		})

		hmod, _, _ := procGetModuleHandleW.Call(0)
		h, _, callErr := procSetWindowsHookExW.Call(whMouseLL, callback, hmod, 0)
		if h == 0 {
			errCh <- fmt.Errorf("%w: SetWindowsHookExW: %v", ErrInstall, callErr)
			return
		}
		hhook = h
		defer procUnhookWindowsHookEx.Call(hhook)

		threadID := windows.GetCurrentThreadId()
		go func() {
			<-ctx.Done()
			procPostThreadMessageW.Call(uintptr(threadID), uintptr(win.WM_QUIT), 0, 0)
		}()

		log.Printf("hook: low-level mouse hook installed on thread %d", threadID)
		errCh <- nil

		var msg win.MSG
		for win.GetMessage(&msg, 0, 0, 0) > 0 {
			win.TranslateMessage(&msg)
			win.DispatchMessage(&msg)
		}
		log.Printf("hook: message loop finished")
	}()

	return <-errCh
}

func rawFromMessage(msg uint32, info *msllHookStruct) RawEvent {
	ev := RawEvent{X: float64(info.Pt.X), Y: float64(info.Pt.Y)}
	switch msg {
	case win.WM_MBUTTONDOWN:
		ev.Kind = RawMiddlePress
	case win.WM_MBUTTONUP:
		ev.Kind = RawMiddleRelease
	case win.WM_MOUSEMOVE:
		ev.Kind = RawMove
	default:
		ev.Kind = RawOther
	}
	return ev
}
