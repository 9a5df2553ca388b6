package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
)

// Log formats accepted by LOG_FORMAT.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all configuration for the application.
type Config struct {
	DataDir   string
	InboxDir  string
	VaultDir  string
	StorePath string
	DBPath    string

	VisionBaseURL string
	VisionModel   string
	VisionTimeout time.Duration

	APIPort   string
	LogLevel  slog.Level
	LogFormat string // empty means pick by terminal
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	dataDir := getEnv("DATA_DIR", "./data")
	cfg := &Config{
		DataDir:       dataDir,
		InboxDir:      getEnv("INBOX_DIR", filepath.Join(dataDir, "inbox")),
		VaultDir:      getEnv("VAULT_DIR", filepath.Join(dataDir, "vault")),
		StorePath:     getEnv("STORE_PATH", filepath.Join(dataDir, "mistakes_db.json")),
		DBPath:        getEnv("DB_PATH", filepath.Join(dataDir, "attempts.db")),
		VisionBaseURL: getEnv("VISION_BASE_URL", "http://localhost:11434"),
		VisionModel:   getEnv("VISION_MODEL", "llama3.2-vision"),
		APIPort:       getEnv("API_PORT", "9000"),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "")),
	}

	timeoutStr := getEnv("VISION_TIMEOUT_SECONDS", "120")
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("VISION_TIMEOUT_SECONDS must be a valid integer: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("VISION_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.VisionTimeout = time.Duration(timeout) * time.Second

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	switch cfg.LogFormat {
	case "", LogFormatText, LogFormatJSON:
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", LogFormatText, LogFormatJSON, cfg.LogFormat)
	}

	if _, err := strconv.Atoi(cfg.APIPort); err != nil {
		return nil, fmt.Errorf("API_PORT must be a valid port number: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// NewLogger builds the process logger. Without an explicit LOG_FORMAT, text is used on a
// terminal and JSON otherwise.
func NewLogger(w io.Writer, cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := cfg.LogFormat
	if format == "" {
		format = LogFormatJSON
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = LogFormatText
		}
	}

	var handler slog.Handler
	if format == LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// loadDotEnv loads the nearest .env file, walking up at most five directories.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
