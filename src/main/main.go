package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"middle-screenshot/src/clipboard"
	"middle-screenshot/src/config"
	"middle-screenshot/src/eventloop"
	"middle-screenshot/src/hook"
	"middle-screenshot/src/hotkey"
	"middle-screenshot/src/logutil"
	"middle-screenshot/src/messages"
	"middle-screenshot/src/notification"
	"middle-screenshot/src/pause"
	"middle-screenshot/src/runtimeinit"
	"middle-screenshot/src/screenshot"
	"middle-screenshot/src/singleinstance"
	"middle-screenshot/src/surface"
	"middle-screenshot/src/tray"
	"middle-screenshot/src/worker"
)

const (
	appID        = "io.github.middle-screenshot"
	appTitle     = "Middle Screenshot"
	shutdownWait = 5 * time.Second
)

type mainOptions struct {
	envFile     string
	engine      string
	verbose     bool
	togglePause bool
}

func main() {
	// Must happen before any window or monitor query.
	enableDPIAwareness()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"middle-screenshot"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "middle-screenshot",
		Short:         "Drag with the middle mouse button to capture and recognize screen text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.togglePause {
				return togglePause(*opts)
			}
			return runResident(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file (overrides the lookup next to the executable)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Recognition engine: llm or tesseract (overrides OCR_ENGINE)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr instead of the log file")
	cmd.Flags().BoolVar(&opts.togglePause, "toggle-pause", false, "Ask the running instance to pause or resume capture, then exit")

	return cmd
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"env-file", "engine", "verbose", "toggle-pause"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + arg[1:]
			}
		}
	}

	return normalized
}

// setupLogging picks the log sink: stderr when verbose, the rotating file otherwise.
func setupLogging(verbose bool) func(bool) {
	if !verbose {
		return logutil.Setup
	}
	return func(bool) {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// fatal reports a start-up failure the user has to see, even without a console.
func fatal(title string, err error) error {
	notification.ShowBlockingError(title, err.Error())
	return err
}

// notify posts one pause intent without blocking; a pending intent already
// covers the request.
func notify(intents chan<- struct{}) {
	select {
	case intents <- struct{}{}:
	default:
	}
}

// togglePause forwards a pause toggle to the resident instance.
func togglePause(opts mainOptions) error {
	if !opts.verbose {
		log.SetOutput(io.Discard)
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFileOverride: opts.envFile})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err = singleinstance.SendToggle(ctx, cfg.InstancePort)
	if errors.Is(err, singleinstance.ErrNoResident) {
		// Often launched from a desktop shortcut with no console attached.
		notification.ShowInfo(appTitle, "Middle Screenshot is not running.")
	}
	return err
}

// startPauseHotkey feeds the same intent channel as the tray item. Failure
// only costs the shortcut, so it is logged and ignored.
func startPauseHotkey(ctx context.Context, combo string, intents chan<- struct{}) {
	if combo == "" || strings.EqualFold(combo, "off") {
		log.Printf("hotkey: pause hotkey disabled")
		return
	}
	c, err := hotkey.Parse(combo)
	if err != nil {
		log.Printf("hotkey: %v", err)
		return
	}
	err = hotkey.Listen(ctx, c, func() { notify(intents) })
	if err != nil {
		log.Printf("hotkey: pause hotkey %s unavailable: %v", c, err)
	}
}

// closeAfter runs closeFn once done is closed. It gives up after wait and
// leaves closeFn uncalled, since the loop may still submit work.
func closeAfter(done <-chan struct{}, wait time.Duration, closeFn func()) bool {
	select {
	case <-done:
		closeFn()
		return true
	case <-time.After(wait):
		return false
	}
}

func runResident(opts mainOptions) error {
	if !opts.verbose {
		log.SetOutput(io.Discard)
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:        config.LoadOptions{EnvFileOverride: opts.envFile, EngineOverride: opts.engine},
		SetupLogging:       setupLogging(opts.verbose),
		ShowBlockingErrors: true,
	})
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	cfg := rt.Config
	logMonitorConfiguration()
	log.Printf("%s initialized: engine=%s workers=%d deadline=%ds min=%vx%v scale=%v",
		appTitle, rt.Engine.Name(), cfg.OCRWorkers, cfg.OCRDeadlineSec, cfg.MinWidth, cfg.MinHeight, cfg.ScaleFactor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.New(rt.Engine, cfg.OCRWorkers, cfg.OCRWorkers, time.Duration(cfg.OCRDeadlineSec)*time.Second)
	// Cleared once the loop owns the pool; early returns close it here.
	closePool := pool.Close
	defer func() {
		if closePool != nil {
			closePool()
		}
	}()

	intents := make(chan struct{}, 1)
	resident, err := singleinstance.Acquire(cfg.InstancePort, func() { notify(intents) })
	switch {
	case errors.Is(err, singleinstance.ErrAlreadyRunning):
		return fatal("Already running", err)
	case err != nil:
		log.Printf("single-instance guard unavailable: %v", err)
	default:
		defer resident.Close()
	}

	trayIcon, err := tray.Start(intents, cancel)
	if err != nil {
		return fatal("Tray unavailable", err)
	}
	defer trayIcon.Stop()

	a := app.NewWithID(appID)
	// Hidden window keeps the driver alive when the last overlay closes.
	keepAlive := a.NewWindow(appTitle)

	var loop *eventloop.Loop
	toLoop := messages.SenderFunc(func(m messages.Message) error { return loop.Proxy().Send(m) })
	loop = eventloop.New(eventloop.Options{
		Capturer:       screenshot.New(cfg.ScaleFactor),
		Opener:         surface.NewFyneOpener(a, toLoop),
		Pool:           pool,
		Clipboard:      clipboard.Sink{},
		Tray:           trayIcon,
		MinWidth:       cfg.MinWidth,
		MinHeight:      cfg.MinHeight,
		CopyImage:      cfg.CopyImageOnCapture,
		RedrawInterval: eventloop.DefaultRedrawInterval,
	})

	flag := &pause.Flag{}
	go pause.NewController(flag, loop.Proxy()).Run(ctx, intents)

	startPauseHotkey(ctx, cfg.PauseHotkey, intents)

	if err := hook.NewListener().Start(ctx, hook.NewTranslator(flag, loop.Proxy())); err != nil {
		return fatal("Input hook unavailable", err)
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			log.Printf("signal received, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	loopDone := make(chan struct{})
	closePool = nil
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event loop stopped: %v", err)
		}
		// Sessions are closed by now; let the fyne driver return.
		fyne.Do(func() {
			keepAlive.Close()
			a.Quit()
		})
	}()

	a.Run()
	cancel()
	if !closeAfter(loopDone, shutdownWait, pool.Close) {
		log.Printf("event loop did not stop within %v, leaving workers running", shutdownWait)
	}
	log.Printf("%s exiting", appTitle)
	return nil
}
