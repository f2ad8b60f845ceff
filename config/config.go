// Package config loads runtime settings from an optional .env file and the
// process environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/joho/godotenv"
)

// Defaults applied when a variable is unset or blank.
const (
	DefaultAITimeout        = 30 * time.Second
	DefaultMaxPhotoMB       = 20
	DefaultQuickFillCredits = 3
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Config is the resolved server configuration.
type Config struct {
	AIServiceURL            string
	AIServiceToken          string
	AITimeout               time.Duration
	LogLevel                string
	LogFormat               string
	MaxPhotoMB              int
	DefaultQuickFillCredits int
}

// AIEnabled reports whether an AI service endpoint is configured.
func (c Config) AIEnabled() bool {
	return c.AIServiceURL != ""
}

// MaxPhotoBytes is the upload limit for photos and floor plans.
func (c Config) MaxPhotoBytes() int64 {
	return int64(c.MaxPhotoMB) << 20
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (Config, error) {
	cfg := Config{
		AIServiceURL:            strings.TrimRight(envOrDefault("AI_SERVICE_URL", ""), "/"),
		AIServiceToken:          envOrDefault("AI_SERVICE_TOKEN", ""),
		AITimeout:               DefaultAITimeout,
		LogLevel:                strings.ToLower(envOrDefault("LOG_LEVEL", DefaultLogLevel)),
		LogFormat:               strings.ToLower(envOrDefault("LOG_FORMAT", DefaultLogFormat)),
		MaxPhotoMB:              DefaultMaxPhotoMB,
		DefaultQuickFillCredits: DefaultQuickFillCredits,
	}

	if raw := envOrDefault("AI_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("AI_TIMEOUT: invalid duration %q", raw)
		}
		cfg.AITimeout = d
	}

	var err error
	if cfg.MaxPhotoMB, err = envInt("MAX_PHOTO_MB", DefaultMaxPhotoMB); err != nil {
		return Config{}, err
	}
	if cfg.MaxPhotoMB <= 0 {
		return Config{}, fmt.Errorf("MAX_PHOTO_MB: must be positive, got %d", cfg.MaxPhotoMB)
	}
	if cfg.DefaultQuickFillCredits, err = envInt("DEFAULT_QUICK_FILL_CREDITS", DefaultQuickFillCredits); err != nil {
		return Config{}, err
	}
	if cfg.DefaultQuickFillCredits < 0 {
		return Config{}, fmt.Errorf("DEFAULT_QUICK_FILL_CREDITS: must not be negative, got %d", cfg.DefaultQuickFillCredits)
	}

	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}
	return cfg, nil
}

// ConfigureLogging installs the apex/log handler and level described by cfg,
// writing to w.
func ConfigureLogging(cfg Config, w io.Writer) {
	switch cfg.LogFormat {
	case "json":
		log.SetHandler(json.New(w))
	default:
		log.SetHandler(text.New(w))
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) (int, error) {
	raw := envOrDefault(name, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", name, raw)
	}
	return n, nil
}
