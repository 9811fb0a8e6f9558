package browser

import (
	"testing"
	"time"
)

func TestNewPreview_Defaults(t *testing.T) {
	p := NewPreview(PreviewConfig{})
	if p.cfg.Width != 1280 || p.cfg.Height != 800 {
		t.Errorf("size = %dx%d", p.cfg.Width, p.cfg.Height)
	}
	if p.cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", p.cfg.Timeout)
	}
	if p.logger == nil {
		t.Error("logger should default")
	}
}

func TestAllocatorOptions(t *testing.T) {
	headless := NewPreview(PreviewConfig{Headless: true})
	visible := NewPreview(PreviewConfig{ExecPath: "/usr/bin/chromium"})
	if len(visible.allocatorOptions()) != len(headless.allocatorOptions())+2 {
		t.Fatal("exec path and headless override should add options")
	}
}

func TestSelector(t *testing.T) {
	if got := Selector("toggle"); got != `[data-cw-ref="toggle"]` {
		t.Fatalf("got %s", got)
	}
}

func TestActions(t *testing.T) {
	var buf []byte
	plain := actions("http://x", Shot{}, &buf)
	opened := actions("http://x", Shot{Open: true}, &buf)
	chat := actions("http://x", Shot{Message: "hi"}, &buf)
	if len(plain) != 4 || len(opened) != 6 || len(chat) != 9 {
		t.Fatalf("steps: plain=%d opened=%d chat=%d", len(plain), len(opened), len(chat))
	}
}
