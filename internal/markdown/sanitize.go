package markdown

import (
	"github.com/microcosm-cc/bluemonday"
)

// policy keeps the markup both engines can produce for chat bubbles and
// drops everything else. Links keep http, https and mailto targets only.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6", "p", "br", "strong", "em", "b", "i",
		"ul", "ol", "li", "code", "pre", "blockquote", "hr", "del")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.RequireNoReferrerOnLinks(true)
	// Links open in a new tab; an anchor whose href was dropped loses its
	// tag entirely.
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize filters an HTML fragment through the widget policy.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}

// Sanitized wraps r so its output is always sanitized.
func Sanitized(r Renderer) Renderer {
	return RendererFunc(func(text string) string {
		return Sanitize(r.Render(text))
	})
}
