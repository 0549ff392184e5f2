package tray

import (
	"errors"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

var ErrNotReady = errors.New("system tray did not start")

const (
	appTitle       = "Middle Screenshot"
	readyTimeout   = 5 * time.Second
	activeTooltip  = "Middle Screenshot: drag with the middle button to capture"
	pausedTooltip  = "Middle Screenshot: paused"
	pauseItemTitle = "Pause capture"
	resumeTitle    = "Resume capture"
)

// Tray is the notification-area icon. Clicks on the pause item are
// forwarded as intents; the tray never touches the pause flag itself.
type Tray struct {
	intents chan<- struct{}
	onQuit  func()

	mu    sync.Mutex
	pause *systray.MenuItem
}

// Start runs the tray on its own locked OS thread and waits until the icon
// is up. intents receives one value per pause/resume click; onQuit is
// called when the user picks Quit.
func Start(intents chan<- struct{}, onQuit func()) (*Tray, error) {
	t := &Tray{intents: intents, onQuit: onQuit}
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		systray.Run(func() { t.onReady(ready) }, func() {
			log.Printf("tray: exited")
		})
	}()
	select {
	case <-ready:
		return t, nil
	case <-time.After(readyTimeout):
		return nil, ErrNotReady
	}
}

func (t *Tray) onReady(ready chan<- struct{}) {
	systray.SetIcon(iconBytes(frameColor))
	systray.SetTitle(appTitle)
	systray.SetTooltip(activeTooltip)

	mPause := systray.AddMenuItem(pauseItemTitle, "Stop translating middle-button drags")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	t.mu.Lock()
	t.pause = mPause
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-mPause.ClickedCh:
				forward(t.intents)
			case <-mQuit.ClickedCh:
				log.Printf("tray: quit requested")
				if t.onQuit != nil {
					t.onQuit()
				}
				return
			}
		}
	}()
	close(ready)
}

// forward posts a pause intent without blocking the tray thread.
func forward(intents chan<- struct{}) bool {
	select {
	case intents <- struct{}{}:
		return true
	default:
		log.Printf("tray: pause intent dropped, controller busy")
		return false
	}
}

// SetPaused updates tooltip, icon and menu text after a pause toggle.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	item := t.pause
	t.mu.Unlock()
	if paused {
		systray.SetIcon(iconBytes(pausedColor))
		systray.SetTooltip(pausedTooltip)
		if item != nil {
			item.SetTitle(resumeTitle)
		}
		return
	}
	systray.SetIcon(iconBytes(frameColor))
	systray.SetTooltip(activeTooltip)
	if item != nil {
		item.SetTitle(pauseItemTitle)
	}
}

// Stop removes the icon.
func (t *Tray) Stop() {
	systray.Quit()
}
