package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPathEnvVar    = "MIDDLE_SCREENSHOT_ENV"
	APIKeyPathEnvVar = "OPENROUTER_API_KEY_FILE"

	EngineLLM       = "llm"
	EngineTesseract = "tesseract"

	defaultMinSide      = 10
	defaultDeadlineSec  = 20
	defaultWorkers      = 2
	defaultPauseHotkey  = "Ctrl+Alt+P"
	defaultInstancePort = 49500
)

type LoadOptions struct {
	// EnvFileOverride replaces the .env lookup next to the executable.
	EnvFileOverride string
	EngineOverride  string
}

type Config struct {
	APIKey     string
	APIKeyPath string
	Model      string
	Providers  []string

	Engine      string
	TessdataDir string

	MinWidth  float64
	MinHeight float64
	// ScaleFactor overrides per-monitor scale detection when positive.
	ScaleFactor float64

	OCRDeadlineSec     int
	OCRWorkers         int
	CopyImageOnCapture bool
	EnableFileLogging  bool
	// PauseHotkey toggles capture like the tray item. "off" disables it.
	PauseHotkey string
	// InstancePort is the loopback port that marks the running resident.
	InstancePort int

	EnvPath string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) --env-file override
	// 2) .env in the executable directory
	// 3) the file named by MIDDLE_SCREENSHOT_ENV
	envPath := strings.TrimSpace(opts.EnvFileOverride)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(dotenvValues)

	cfg := &Config{
		APIKey:             resolveAPIKey(apiKeyPath),
		APIKeyPath:         apiKeyPath,
		Model:              os.Getenv("MODEL"),
		Providers:          splitList(os.Getenv("PROVIDERS")),
		Engine:             resolveEngine(opts),
		TessdataDir:        getEnvWithDefault("TESSDATA_DIR", "."),
		MinWidth:           positiveFloat("MIN_WIDTH", defaultMinSide),
		MinHeight:          positiveFloat("MIN_HEIGHT", defaultMinSide),
		ScaleFactor:        positiveFloat("SCALE_FACTOR", 0),
		OCRDeadlineSec:     positiveInt("OCR_DEADLINE_SEC", defaultDeadlineSec),
		OCRWorkers:         positiveInt("OCR_WORKERS", defaultWorkers),
		CopyImageOnCapture: boolWithDefault("COPY_IMAGE_ON_CAPTURE", true),
		EnableFileLogging:  strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		PauseHotkey:        getEnvWithDefault("PAUSE_HOTKEY", defaultPauseHotkey),
		InstancePort:       positiveInt("INSTANCE_PORT", defaultInstancePort),
		EnvPath:            envPath,
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

// resolveAPIKeyPath prefers the .env file value over the process environment.
func resolveAPIKeyPath(dotenvValues map[string]string) string {
	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		return dotenvPath
	}
	return strings.TrimSpace(os.Getenv(APIKeyPathEnvVar))
}

func resolveAPIKey(keyPath string) string {
	if keyPath != "" {
		if data, err := os.ReadFile(keyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey
			}
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func resolveEngine(opts LoadOptions) string {
	value := opts.EngineOverride
	if strings.TrimSpace(value) == "" {
		value = os.Getenv("OCR_ENGINE")
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case EngineTesseract, "tess":
		return EngineTesseract
	default:
		return EngineLLM
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func positiveFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func boolWithDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return defaultValue
}
