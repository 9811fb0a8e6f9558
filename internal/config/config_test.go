package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func withURL() map[string]any {
	return map[string]any{"webhook": map[string]any{"url": "https://hooks.example.com/chat"}}
}

// --- Resolve ---

func TestResolve_MissingWebhookURL(t *testing.T) {
	_, err := Resolve(Defaults(), nil)
	if !errors.Is(err, ErrMissingWebhookURL) {
		t.Fatalf("expected ErrMissingWebhookURL, got %v", err)
	}
	var cfgErr *Error
	if !errors.As(err, &cfgErr) || cfgErr.Field != "webhook.url" {
		t.Fatalf("expected *Error for webhook.url, got %#v", err)
	}
}

func TestResolve_BlankWebhookURL(t *testing.T) {
	_, err := Resolve(Defaults(), map[string]any{"webhook": map[string]any{"url": "   "}})
	if !errors.Is(err, ErrMissingWebhookURL) {
		t.Fatalf("expected ErrMissingWebhookURL for blank url, got %v", err)
	}
}

func TestResolve_PartialOverrideKeepsDefaults(t *testing.T) {
	override := withURL()
	override["style"] = map[string]any{"primaryColor": "#112233"}
	override["branding"] = map[string]any{"poweredBy": map[string]any{"text": "Acme"}}

	cfg, err := Resolve(Defaults(), override)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	def := Defaults()

	if cfg.Style.PrimaryColor != "#112233" {
		t.Errorf("primaryColor: got %q", cfg.Style.PrimaryColor)
	}
	if cfg.Style.HeaderColor != def.Style.HeaderColor || cfg.Style.Position != def.Style.Position {
		t.Errorf("untouched style keys should keep defaults, got %+v", cfg.Style)
	}
	if cfg.Branding.PoweredBy.Text != "Acme" {
		t.Errorf("poweredBy.text: got %q", cfg.Branding.PoweredBy.Text)
	}
	if cfg.Branding.PoweredBy.Link != def.Branding.PoweredBy.Link {
		t.Errorf("poweredBy.link should merge key-by-key, got %q", cfg.Branding.PoweredBy.Link)
	}
	if cfg.Branding.Name != def.Branding.Name || cfg.Branding.Logo != def.Branding.Logo {
		t.Errorf("branding defaults lost: %+v", cfg.Branding)
	}
	if !reflect.DeepEqual(cfg.Branding.WelcomeButtons, def.Branding.WelcomeButtons) {
		t.Errorf("welcomeButtons should keep default, got %+v", cfg.Branding.WelcomeButtons)
	}
}

func TestResolve_NoFieldLeftEmpty(t *testing.T) {
	cfg, err := Resolve(Defaults(), withURL())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	fields := map[string]string{
		"branding.logo":          cfg.Branding.Logo,
		"branding.name":          cfg.Branding.Name,
		"branding.welcomeText":   cfg.Branding.WelcomeText,
		"branding.poweredBy":     cfg.Branding.PoweredBy.Text,
		"branding.poweredBy.url": cfg.Branding.PoweredBy.Link,
		"style.primaryColor":     cfg.Style.PrimaryColor,
		"style.headerColor":      cfg.Style.HeaderColor,
		"style.backgroundColor":  cfg.Style.BackgroundColor,
		"style.fontColor":        cfg.Style.FontColor,
		"style.position":         cfg.Style.Position,
		"behavior.fallbackText":  cfg.Behavior.FallbackText,
		"behavior.sendMode":      cfg.Behavior.SendMode,
	}
	for name, v := range fields {
		if v == "" {
			t.Errorf("%s is empty after resolution", name)
		}
	}
}

func TestResolve_ArraysReplaceWholesale(t *testing.T) {
	override := withURL()
	override["branding"] = map[string]any{
		"welcomeButtons": []any{
			map[string]any{"label": "Pricing"},
		},
	}

	cfg, err := Resolve(Defaults(), override)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []WelcomeButton{{Label: "Pricing"}}
	if !reflect.DeepEqual(cfg.Branding.WelcomeButtons, want) {
		t.Fatalf("expected override array verbatim (no element-wise merge), got %+v", cfg.Branding.WelcomeButtons)
	}
}

func TestResolve_EmptyArrayClearsButtons(t *testing.T) {
	override := withURL()
	override["branding"] = map[string]any{"welcomeButtons": []any{}}

	cfg, err := Resolve(Defaults(), override)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cfg.Branding.WelcomeButtons) != 0 {
		t.Fatalf("expected no buttons, got %+v", cfg.Branding.WelcomeButtons)
	}
}

func TestResolve_NullKeepsDefault(t *testing.T) {
	override := withURL()
	override["style"] = map[string]any{"position": nil}
	override["branding"] = nil

	cfg, err := Resolve(Defaults(), override)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Style.Position != PositionRight {
		t.Errorf("null position should keep default, got %q", cfg.Style.Position)
	}
	if cfg.Branding.Name != Defaults().Branding.Name {
		t.Errorf("null branding should keep default, got %q", cfg.Branding.Name)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	override := withURL()
	override["branding"] = map[string]any{
		"name": "Acme",
		"welcomeButtons": []any{
			map[string]any{"label": "A", "initialMessage": "a"},
			map[string]any{"label": "B", "initialMessage": "b"},
		},
	}
	override["style"] = map[string]any{"position": "left"}

	first, err := Resolve(Defaults(), override)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	again, err := Resolve(Defaults(), override)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("same inputs gave different outputs:\n%+v\n%+v", first, again)
	}

	second, err := Resolve(first, map[string]any{})
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolve(resolve(D,O), {}) != resolve(D,O):\n%+v\n%+v", first, second)
	}
}

// The in-place merge variant leaks one override into the next resolution.
// Resolve must not: each call starts from the untouched defaults.
func TestResolve_DoesNotMutateInputs(t *testing.T) {
	defaults := Defaults()
	override := withURL()
	override["style"] = map[string]any{"primaryColor": "#000000"}
	override["branding"] = map[string]any{"welcomeButtons": []any{}}

	if _, err := Resolve(defaults, override); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(defaults, Defaults()) {
		t.Fatalf("defaults were mutated: %+v", defaults)
	}
	style := override["style"].(map[string]any)
	if len(style) != 1 || style["primaryColor"] != "#000000" {
		t.Fatalf("override was mutated: %+v", style)
	}

	cfg, err := Resolve(defaults, withURL())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Style.PrimaryColor != Defaults().Style.PrimaryColor {
		t.Fatalf("previous override leaked into next resolution: %q", cfg.Style.PrimaryColor)
	}
	if len(cfg.Branding.WelcomeButtons) != 1 {
		t.Fatalf("previous override leaked buttons: %+v", cfg.Branding.WelcomeButtons)
	}
}

func TestResolve_ScalarReplacingObjectIsError(t *testing.T) {
	override := withURL()
	override["style"] = "dark"

	_, err := Resolve(Defaults(), override)
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestResolve_InvalidPosition(t *testing.T) {
	override := withURL()
	override["style"] = map[string]any{"position": "center"}

	_, err := Resolve(Defaults(), override)
	if !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestResolve_RejectsStylesheetBreakout(t *testing.T) {
	override := withURL()
	override["style"] = map[string]any{"fontColor": "red;}</style><script>alert(1)</script>"}

	_, err := Resolve(Defaults(), override)
	if !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
}

func TestValidate_AcceptsColorForms(t *testing.T) {
	for _, c := range []string{"#fff", "#f97316", "#f9731680", "tomato", "rgb(1, 2, 3)", "rgba(0,0,0,0.5)", "hsl(120, 50%, 50%)"} {
		cfg := Defaults()
		cfg.Webhook.URL = "http://localhost/hook"
		cfg.Style.PrimaryColor = c
		if err := Validate(cfg); err != nil {
			t.Errorf("color %q should be valid: %v", c, err)
		}
	}
}

func TestValidate_SendModeAndEngine(t *testing.T) {
	cfg := Defaults()
	cfg.Webhook.URL = "http://localhost/hook"
	cfg.Behavior.SendMode = "parallel"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidSendMode) {
		t.Fatalf("expected ErrInvalidSendMode, got %v", err)
	}

	cfg = Defaults()
	cfg.Webhook.URL = "http://localhost/hook"
	cfg.Behavior.MarkdownEngine = "marked"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidEngine) {
		t.Fatalf("expected ErrInvalidEngine, got %v", err)
	}
}

// --- Load ---

func TestLoad_YAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("CW_TEST_HOOK", "https://hooks.example.com/yaml")
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.yaml")
	data := `
webhook:
  url: ${CW_TEST_HOOK}
branding:
  name: ${CW_TEST_NAME:-Acme Support}
  welcomeButtons:
    - label: Hours
      initialMessage: When are you open?
style:
  position: left
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/yaml" {
		t.Errorf("url: got %q", cfg.Webhook.URL)
	}
	if cfg.Branding.Name != "Acme Support" {
		t.Errorf("name default expansion: got %q", cfg.Branding.Name)
	}
	if len(cfg.Branding.WelcomeButtons) != 1 || cfg.Branding.WelcomeButtons[0].Label != "Hours" {
		t.Errorf("buttons: got %+v", cfg.Branding.WelcomeButtons)
	}
	if cfg.Style.Position != PositionLeft || cfg.Style.PrimaryColor != Defaults().Style.PrimaryColor {
		t.Errorf("style: got %+v", cfg.Style)
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.json")
	data := `{"webhook":{"url":"http://localhost:9090/webhook","timeoutSeconds":15},"behavior":{"sendMode":"queue"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Webhook.TimeoutSeconds != 15 || cfg.Behavior.SendMode != SendModeQueue {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Behavior.FallbackText != DefaultFallbackText {
		t.Fatalf("fallback text should keep default, got %q", cfg.Behavior.FallbackText)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/widget.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json}"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestExpandEnvVars_UnsetWithoutDefaultKept(t *testing.T) {
	got := ExpandEnvVars("url: ${CW_DEFINITELY_UNSET_VAR}")
	if got != "url: ${CW_DEFINITELY_UNSET_VAR}" {
		t.Fatalf("expected placeholder kept, got %q", got)
	}
}

// --- Accessor ---

func TestGetByPath(t *testing.T) {
	cfg := Defaults()

	val, err := GetByPath(cfg, "style.position")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "right" {
		t.Fatalf("expected right, got %v", val)
	}

	val, err = GetByPath(cfg, "branding.welcomeButtons.0.label")
	if err != nil {
		t.Fatalf("get array element: %v", err)
	}
	if val != "Send us a message" {
		t.Fatalf("unexpected label %v", val)
	}

	if _, err := GetByPath(cfg, "branding.nope"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := GetByPath(cfg, "branding.welcomeButtons.7"); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestSanitize_MasksSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Webhook.Secret = "supersecretvalue"
	out := Sanitize(cfg)
	if out.Webhook.Secret == cfg.Webhook.Secret {
		t.Fatal("secret should be masked")
	}
	if cfg.Webhook.Secret != "supersecretvalue" {
		t.Fatal("Sanitize must not modify its input")
	}
}

// --- Settings ---

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.SessionTTL != 30*time.Minute {
		t.Errorf("session TTL: got %s", s.SessionTTL)
	}
	if !s.Metrics {
		t.Error("metrics should default to enabled")
	}
}

func TestLoadSettings_FromEnv(t *testing.T) {
	t.Setenv("CHATWIDGET_ADDR", ":9999")
	t.Setenv("CHATWIDGET_LOG_LEVEL", "debug")
	t.Setenv("CHATWIDGET_SESSION_TTL", "5m")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.Addr != ":9999" || s.SessionTTL != 5*time.Minute {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.SlogLevel().String() != "DEBUG" {
		t.Fatalf("expected DEBUG level, got %s", s.SlogLevel())
	}
}
