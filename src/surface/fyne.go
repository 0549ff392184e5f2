package surface

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"middle-screenshot/src/messages"
)

// FyneOpener opens overlay windows on a running fyne app. Every fyne call is
// marshalled onto the fyne main goroutine, so Open and the returned windows
// may be used from the event loop goroutine.
type FyneOpener struct {
	app  fyne.App
	out  messages.Sender
	last atomic.Uint64
}

func NewFyneOpener(a fyne.App, out messages.Sender) *FyneOpener {
	return &FyneOpener{app: a, out: out}
}

func (o *FyneOpener) Open(opts Options) (Window, error) {
	if o.app == nil {
		return nil, ErrNoDisplay
	}
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", opts.Size.X, opts.Size.Y)
	}
	fw := &fyneWindow{id: messages.WindowID(o.last.Add(1)), out: o.out}
	fyne.DoAndWait(func() {
		fw.build(o.app, opts)
	})
	if fw.win == nil {
		return nil, ErrNoDisplay
	}
	return fw, nil
}

type fyneWindow struct {
	id  messages.WindowID
	out messages.Sender
	win fyne.Window

	view    *overlayView
	closing atomic.Bool
}

func (w *fyneWindow) build(a fyne.App, opts Options) {
	var win fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok && !opts.Decorated {
		win = drv.CreateSplashWindow()
	} else {
		win = a.NewWindow(opts.Title)
	}
	if win == nil {
		return
	}
	w.view = newOverlayView(func() { w.emit(messages.Recognize{Window: w.id}) })
	win.SetTitle(opts.Title)
	win.SetPadded(false)
	win.SetContent(w.view)
	win.Resize(fyne.NewSize(float32(opts.Size.X), float32(opts.Size.Y)))
	win.SetFixedSize(true)
	win.SetOnClosed(w.handleClosed)
	win.Canvas().SetOnTypedKey(func(k *fyne.KeyEvent) {
		if k.Name == fyne.KeyEscape {
			w.emit(messages.Close{Window: w.id})
		}
	})
	// fyne has no API for absolute placement or z-order.
	if opts.AlwaysOnTop || opts.Position != (image.Point{}) {
		log.Printf("surface: %s requested at %d,%d on top=%v, placement left to the window manager",
			w.id, opts.Position.X, opts.Position.Y, opts.AlwaysOnTop)
	}
	w.win = win
}

func (w *fyneWindow) ID() messages.WindowID { return w.id }

func (w *fyneWindow) Render(f Frame) error {
	if w.closing.Load() {
		return fmt.Errorf("%s: window closed", w.id)
	}
	if f.Image == nil {
		return fmt.Errorf("%s: nothing to render", w.id)
	}
	fyne.DoAndWait(func() {
		w.view.apply(f)
	})
	return nil
}

func (w *fyneWindow) Show() error {
	if w.closing.Load() {
		return fmt.Errorf("%s: window closed", w.id)
	}
	fyne.DoAndWait(func() {
		w.win.Show()
		w.win.RequestFocus()
	})
	return nil
}

func (w *fyneWindow) Close() {
	if w.closing.Swap(true) {
		return
	}
	fyne.DoAndWait(func() {
		w.win.Close()
	})
}

// handleClosed runs on the fyne goroutine for both user and programmatic
// closes; only the former is reported.
func (w *fyneWindow) handleClosed() {
	if w.closing.Swap(true) {
		return
	}
	w.emit(messages.Close{Window: w.id})
}

func (w *fyneWindow) emit(m messages.Message) {
	if w.out == nil {
		return
	}
	if err := w.out.Send(m); err != nil {
		log.Printf("surface: dropping %s for %s: %v", m.Type(), w.id, err)
	}
}

// overlayView shows the captured pixels with a dimmed loading layer on top.
// Right click or double click asks for recognition.
type overlayView struct {
	widget.BaseWidget

	image   *canvas.Image
	shade   *canvas.Rectangle
	loading *canvas.Text
	onAsk   func()
}

func newOverlayView(onAsk func()) *overlayView {
	v := &overlayView{
		image:   canvas.NewImageFromImage(nil),
		shade:   canvas.NewRectangle(color.NRGBA{A: 0x80}),
		loading: canvas.NewText("", color.White),
		onAsk:   onAsk,
	}
	v.image.FillMode = canvas.ImageFillStretch
	v.loading.TextStyle = fyne.TextStyle{Bold: true}
	v.shade.Hide()
	v.loading.Hide()
	v.ExtendBaseWidget(v)
	return v
}

func (v *overlayView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(v.image, v.shade, container.NewCenter(v.loading)))
}

func (v *overlayView) apply(f Frame) {
	v.image.Image = f.Image
	v.image.Refresh()
	if f.Loading {
		v.loading.Text = LoadingText(f.Tick)
		v.shade.Show()
		v.loading.Show()
	} else {
		v.shade.Hide()
		v.loading.Hide()
	}
	v.loading.Refresh()
}

func (v *overlayView) Tapped(*fyne.PointEvent) {}

func (v *overlayView) TappedSecondary(*fyne.PointEvent) { v.onAsk() }

func (v *overlayView) DoubleTapped(*fyne.PointEvent) { v.onAsk() }
