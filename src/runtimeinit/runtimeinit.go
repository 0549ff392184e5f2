package runtimeinit

import (
	"fmt"
	"log"

	"middle-screenshot/src/clipboard"
	"middle-screenshot/src/config"
	"middle-screenshot/src/llm"
	"middle-screenshot/src/logutil"
	"middle-screenshot/src/notification"
	"middle-screenshot/src/ocr"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// ShowBlockingErrors reports engine start-up failures in a dialog.
	ShowBlockingErrors bool
	// SkipClipboard is set by tools that never write the clipboard.
	SkipClipboard bool
}

// Runtime is what a binary needs after start-up checks passed.
type Runtime struct {
	Config *config.Config
	Engine ocr.Engine
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	if cfg.EnvPath != "" {
		log.Printf("config: loaded %s", cfg.EnvPath)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		if opts.ShowBlockingErrors {
			notification.ShowBlockingError("Recognition unavailable", fmt.Sprintf("Startup check failed: %v", err))
		}
		return nil, err
	}
	log.Printf("ocr: using %s engine", engine.Name())

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return &Runtime{Config: cfg, Engine: engine}, nil
}

func newEngine(cfg *config.Config) (ocr.Engine, error) {
	if cfg.Engine == config.EngineLLM {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENROUTER_API_KEY is required. Checked key file %q and OPENROUTER_API_KEY env var", ocr.ErrEngineInit, cfg.APIKeyPath)
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("%w: MODEL is required. Please set it in your .env file", ocr.ErrEngineInit)
		}
		llm.Init(&llm.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Providers: cfg.Providers,
		})
		if err := llm.Ping(); err != nil {
			return nil, fmt.Errorf("%w: LLM startup check failed: %v", ocr.ErrEngineInit, err)
		}
		log.Printf("LLM ping succeeded (model %s, key %s)", cfg.Model, logutil.RedactKey(cfg.APIKey))
	}
	return ocr.New(ocr.Options{Engine: cfg.Engine, TessdataDir: cfg.TessdataDir})
}
