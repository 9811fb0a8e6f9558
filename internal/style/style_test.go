package style

import (
	"strings"
	"testing"

	"chatwidget/internal/config"
	"chatwidget/internal/dom"
)

func TestCSS_InterpolatesTokens(t *testing.T) {
	s := config.StyleConfig{
		PrimaryColor:    "#111111",
		HeaderColor:     "#222222",
		BackgroundColor: "#333333",
		FontColor:       "#444444",
		Position:        config.PositionLeft,
	}
	css, err := CSS(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"background-color: #111111",
		"background-color: #222222",
		"background-color: #333333",
		"color: #444444",
		"left: 20px;",
	} {
		if !strings.Contains(css, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(css, "right: 20px") {
		t.Error("left-positioned widget must not carry a right rule")
	}
}

func TestCSS_DefaultsToRight(t *testing.T) {
	css, err := CSS(config.Defaults().Style)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(css, "right: 20px;") || strings.Contains(css, "left: 20px") {
		t.Fatal("expected right position rule only")
	}
}

func TestInject_AppendsOneStyleToHead(t *testing.T) {
	doc := dom.NewDocument("host")
	el, err := Inject(doc, config.Defaults().Style, "w1")
	if err != nil {
		t.Fatal(err)
	}
	if el.Parent != doc.Head() {
		t.Fatal("style should be a child of head")
	}
	sheets := dom.FindAll(doc.Head(), dom.ByAttr(MarkerAttr, "w1"))
	if len(sheets) != 1 {
		t.Fatalf("expected one stylesheet, got %d", len(sheets))
	}
	if !strings.Contains(doc.String(), ".cw-panel.open") {
		t.Fatal("rules not rendered")
	}
}
