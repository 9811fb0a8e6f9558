package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatwidget/internal/config"
)

func testConfig() config.Widget {
	cfg := config.Defaults()
	cfg.Webhook.URL = "http://127.0.0.1:1/webhook"
	return cfg
}

func TestRenderPage_Closed(t *testing.T) {
	var buf bytes.Buffer
	if err := renderPage(&buf, testConfig(), "Demo", false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<title>Demo</title>", `data-cw-ref="toggle"`, `data-cw-ref="panel"`, "data-cw-style"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(out, "how can we help?") {
		t.Error("welcome message should only appear after opening")
	}
}

func TestRenderPage_Open(t *testing.T) {
	var buf bytes.Buffer
	if err := renderPage(&buf, testConfig(), "Demo", true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `class="cw-panel open"`) {
		t.Error("panel should carry the open class")
	}
	if !strings.Contains(out, "how can we help?") {
		t.Error("welcome message missing")
	}
}

func TestRenderPage_InvalidConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := renderPage(&buf, config.Defaults(), "Demo", false); err == nil {
		t.Fatal("expected an error without a webhook URL")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", buf.String())
	}
}

func TestLoadWidget_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.yaml")
	data := "webhook:\n  url: https://hooks.example.com/chat\nstyle:\n  position: left\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadWidget(config.Settings{ConfigPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/chat" || cfg.Style.Position != config.PositionLeft {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Branding.Name != config.Defaults().Branding.Name {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoadWidget_MissingURL(t *testing.T) {
	if _, err := loadWidget(config.Settings{}); err == nil {
		t.Fatal("expected an error when no config supplies a webhook URL")
	}
}

func TestRunDoctor_Healthy(t *testing.T) {
	hook := httptest.NewServer(http.NotFoundHandler())
	defer hook.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "widget.json")
	if err := os.WriteFile(path, []byte(`{"webhook":{"url":"`+hook.URL+`/webhook"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runDoctor(&out, config.Settings{
		ConfigPath:   path,
		TranscriptDB: filepath.Join(dir, "transcript.db"),
		Addr:         "127.0.0.1:0",
	})
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out.String())
	}
	for _, want := range []string{"[PASS] Config validation", "[PASS] Webhook", "[PASS] Transcript", "0 failed"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in\n%s", want, out.String())
		}
	}
}

func TestRunDoctor_ReportsFailures(t *testing.T) {
	var out bytes.Buffer
	err := runDoctor(&out, config.Settings{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		Addr:       "127.0.0.1:0",
	})
	if err == nil {
		t.Fatal("expected failed checks")
	}
	if !strings.Contains(out.String(), "[FAIL] Config file") {
		t.Errorf("missing config file failure in\n%s", out.String())
	}
}
