// Package markdown turns bot replies written in a small markdown subset into
// HTML fragments that are safe to insert into the widget.
//
// Every renderer escapes '<' and '>' before looking at any markdown syntax,
// and its output is passed through a sanitizer policy before it is returned.
package markdown

import (
	"fmt"
	"strings"
)

// Renderer converts untrusted markdown text to an HTML fragment.
type Renderer interface {
	Render(text string) string
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(string) string

func (f RendererFunc) Render(text string) string { return f(text) }

const (
	EngineBuiltin    = "builtin"
	EngineGomarkdown = "gomarkdown"
)

// New returns the sanitized renderer for engine.
func New(engine string) (Renderer, error) {
	switch engine {
	case "", EngineBuiltin:
		return Sanitized(Builtin{}), nil
	case EngineGomarkdown:
		return Sanitized(Gomarkdown{}), nil
	default:
		return nil, fmt.Errorf("unknown markdown engine %q", engine)
	}
}

var escaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Escape replaces the two HTML-significant characters with entities.
func Escape(text string) string {
	return escaper.Replace(text)
}
