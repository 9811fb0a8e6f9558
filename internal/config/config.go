package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Widget is the resolved configuration of one chat widget instance.
// It is produced once by Resolve and treated as read-only afterwards.
type Widget struct {
	Webhook  WebhookConfig  `json:"webhook" yaml:"webhook"`
	Branding BrandingConfig `json:"branding" yaml:"branding"`
	Style    StyleConfig    `json:"style" yaml:"style"`
	Behavior BehaviorConfig `json:"behavior" yaml:"behavior"`
}

type WebhookConfig struct {
	URL            string `json:"url" yaml:"url"`
	Secret         string `json:"secret,omitempty" yaml:"secret,omitempty"` // HMAC secret for X-Signature-256
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`     // 0 = no timeout
	Retries        int    `json:"retries" yaml:"retries"`                   // retries on transient failures
}

type BrandingConfig struct {
	Logo           string          `json:"logo" yaml:"logo"`
	Name           string          `json:"name" yaml:"name"`
	WelcomeText    string          `json:"welcomeText" yaml:"welcomeText"`
	WelcomeButtons []WelcomeButton `json:"welcomeButtons" yaml:"welcomeButtons"`
	PoweredBy      PoweredBy       `json:"poweredBy" yaml:"poweredBy"`
}

// WelcomeButton is a preset reply shown under the welcome message.
type WelcomeButton struct {
	Label          string `json:"label" yaml:"label"`
	InitialMessage string `json:"initialMessage" yaml:"initialMessage"`
}

type PoweredBy struct {
	Text string `json:"text" yaml:"text"`
	Link string `json:"link" yaml:"link"`
}

type StyleConfig struct {
	PrimaryColor    string `json:"primaryColor" yaml:"primaryColor"`
	HeaderColor     string `json:"headerColor" yaml:"headerColor"`
	BackgroundColor string `json:"backgroundColor" yaml:"backgroundColor"`
	FontColor       string `json:"fontColor" yaml:"fontColor"`
	Position        string `json:"position" yaml:"position"` // "left" | "right"
}

type BehaviorConfig struct {
	FallbackText   string `json:"fallbackText" yaml:"fallbackText"`
	SendMode       string `json:"sendMode" yaml:"sendMode"`             // "concurrent" | "queue"
	MarkdownEngine string `json:"markdownEngine" yaml:"markdownEngine"` // "builtin" | "gomarkdown"
}

const (
	PositionLeft  = "left"
	PositionRight = "right"

	SendModeConcurrent = "concurrent"
	SendModeQueue      = "queue"
)

var (
	ErrMissingWebhookURL = errors.New("webhook.url is required")
	ErrInvalidPosition   = errors.New("must be left or right")
	ErrInvalidColor      = errors.New("not a valid CSS color")
	ErrInvalidSendMode   = errors.New("must be concurrent or queue")
	ErrInvalidEngine     = errors.New("must be builtin or gomarkdown")
)

// Error is a configuration error for one field.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// colorPattern accepts hex colors, named colors and rgb()/rgba()/hsl()/hsla().
// Anything else is rejected because style tokens are written into a stylesheet verbatim.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\))$`)

// Validate checks a resolved widget configuration.
func Validate(cfg Widget) error {
	var errs []error

	if strings.TrimSpace(cfg.Webhook.URL) == "" {
		errs = append(errs, &Error{Field: "webhook.url", Err: ErrMissingWebhookURL})
	}
	if cfg.Webhook.TimeoutSeconds < 0 {
		errs = append(errs, &Error{Field: "webhook.timeoutSeconds", Err: errors.New("must be >= 0")})
	}
	if cfg.Webhook.Retries < 0 || cfg.Webhook.Retries > 10 {
		errs = append(errs, &Error{Field: "webhook.retries", Err: errors.New("must be between 0 and 10")})
	}

	switch cfg.Style.Position {
	case PositionLeft, PositionRight:
	default:
		errs = append(errs, &Error{Field: "style.position", Err: ErrInvalidPosition})
	}
	colors := []struct{ field, value string }{
		{"style.primaryColor", cfg.Style.PrimaryColor},
		{"style.headerColor", cfg.Style.HeaderColor},
		{"style.backgroundColor", cfg.Style.BackgroundColor},
		{"style.fontColor", cfg.Style.FontColor},
	}
	for _, c := range colors {
		if !colorPattern.MatchString(c.value) {
			errs = append(errs, &Error{Field: c.field, Err: fmt.Errorf("%q: %w", c.value, ErrInvalidColor)})
		}
	}

	switch cfg.Behavior.SendMode {
	case SendModeConcurrent, SendModeQueue:
	default:
		errs = append(errs, &Error{Field: "behavior.sendMode", Err: ErrInvalidSendMode})
	}
	switch cfg.Behavior.MarkdownEngine {
	case "builtin", "gomarkdown":
	default:
		errs = append(errs, &Error{Field: "behavior.markdownEngine", Err: ErrInvalidEngine})
	}

	return errors.Join(errs...)
}

// LoadOverride reads a host configuration file (JSON or YAML) into a partial
// override suitable for Resolve. ${VAR} and ${VAR:-default} are expanded first.
func LoadOverride(path string) (map[string]any, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	data = []byte(ExpandEnvVars(string(data)))

	override := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}
	return override, nil
}

// Load resolves the host configuration file at path onto Defaults().
// An empty path resolves the defaults alone.
func Load(path string) (Widget, error) {
	var override map[string]any
	if path != "" {
		o, err := LoadOverride(path)
		if err != nil {
			return Widget{}, err
		}
		override = o
	}
	return Resolve(Defaults(), override)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty; an unset ${VAR}
// without default is left untouched.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		hasDefault := len(groups) >= 3 && groups[2] != ""

		val, exists := os.LookupEnv(groups[1])
		if !exists || val == "" {
			if hasDefault {
				return groups[2]
			}
			return match
		}
		return val
	})
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
