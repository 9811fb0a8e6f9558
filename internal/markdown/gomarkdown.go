package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Gomarkdown renders with github.com/gomarkdown/markdown. It understands more
// than the builtin subset (lists, code, tables); the sanitizer still limits
// what reaches the widget.
type Gomarkdown struct{}

func (Gomarkdown) Render(text string) string {
	// Parsers keep state between documents, so each call gets a fresh one.
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	out := markdown.ToHTML([]byte(Escape(text)), p, r)
	return strings.TrimSpace(unescapeTwice.Replace(string(out)))
}

// gomarkdown escapes the '&' of the entities Escape produced.
var unescapeTwice = strings.NewReplacer("&amp;lt;", "&lt;", "&amp;gt;", "&gt;")
