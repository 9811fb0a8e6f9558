package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are process-level options for the chatwidget binary. They come
// from the environment and may be overridden by command-line flags.
type Settings struct {
	Addr            string        `env:"CHATWIDGET_ADDR" envDefault:"127.0.0.1:8080"`
	LogLevel        string        `env:"CHATWIDGET_LOG_LEVEL" envDefault:"info"`
	ConfigPath      string        `env:"CHATWIDGET_CONFIG"`
	TranscriptDB    string        `env:"CHATWIDGET_TRANSCRIPT_DB"`
	Metrics         bool          `env:"CHATWIDGET_METRICS" envDefault:"true"`
	SessionTTL      time.Duration `env:"CHATWIDGET_SESSION_TTL" envDefault:"30m"`
	EventRate       float64       `env:"CHATWIDGET_EVENT_RATE" envDefault:"120"` // per minute and visitor
	MockWebhookAddr string        `env:"CHATWIDGET_MOCK_WEBHOOK_ADDR"`
}

// LoadSettings parses Settings from the process environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse environment: %w", err)
	}
	if s.SessionTTL <= 0 {
		return Settings{}, fmt.Errorf("CHATWIDGET_SESSION_TTL must be positive, got %s", s.SessionTTL)
	}
	return s, nil
}

// SlogLevel maps LogLevel to a slog.Level; unknown values mean info.
func (s Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
