package widget

import (
	"strconv"

	"golang.org/x/net/html"

	"chatwidget/internal/config"
	"chatwidget/internal/dom"
)

// Attributes that tie DOM nodes back to a widget instance and a role.
const (
	RefAttr    = "data-cw-ref"
	WidgetAttr = "data-cw-widget"
)

// Element refs. Welcome buttons use WelcomeRef(i).
const (
	RefToggle   = "toggle"
	RefPanel    = "panel"
	RefClose    = "close"
	RefMessages = "messages"
	RefInput    = "input"
	RefSend     = "send"
	RefWelcome  = "welcome"
)

const openClass = "open"

const (
	openGlyph  = `<svg xmlns="http://www.w3.org/2000/svg" fill="none" viewBox="0 0 24 24" stroke-width="1.5" stroke="currentColor"><path stroke-linecap="round" stroke-linejoin="round" d="M8.25 9.75h7.5m-7.5 3h4.5M3.75 12c0 4.556 3.694 8.25 8.25 8.25 1.13 0 2.2-.227 3.18-.64L20.25 20.25l-.64-5.07A8.21 8.21 0 0 0 20.25 12c0-4.556-3.694-8.25-8.25-8.25S3.75 7.444 3.75 12Z"/></svg>`
	closeGlyph = `<svg xmlns="http://www.w3.org/2000/svg" fill="none" viewBox="0 0 24 24" stroke-width="2" stroke="currentColor"><path stroke-linecap="round" stroke-linejoin="round" d="M6 18 18 6M6 6l12 12"/></svg>`
)

// Elements are the handles the controller needs after building.
type Elements struct {
	Toggle   *html.Node
	Panel    *html.Node
	Messages *html.Node
	Input    *html.Node
	Send     *html.Node
	Close    *html.Node
}

// Roots returns the top-level nodes appended to the document body.
func (e Elements) Roots() []*html.Node {
	return []*html.Node{e.Toggle, e.Panel}
}

// WelcomeRef is the ref of the i-th welcome button.
func WelcomeRef(i int) string {
	return RefWelcome + "-" + strconv.Itoa(i)
}

// Build constructs the detached widget skeleton for instance id: the
// floating toggle and the closed panel with header, message list, input
// row and footer. Branding text is inserted as text nodes; logo and
// attribution link only ever land in src and href.
func Build(id string, b config.BrandingConfig) Elements {
	toggle := dom.Element("button",
		"type", "button",
		"class", "cw-toggle",
		RefAttr, RefToggle,
		WidgetAttr, id,
		"aria-label", "Open chat",
		"aria-expanded", "false",
	)
	setGlyph(toggle, openGlyph)

	panel := dom.Element("div",
		"class", "cw-panel",
		RefAttr, RefPanel,
		WidgetAttr, id,
		"role", "dialog",
		"aria-label", b.Name,
	)

	header := dom.Element("div", "class", "cw-header")
	logo := dom.Element("img", "class", "cw-logo", "src", b.Logo, "alt", "Brand Logo")
	title := dom.Element("h3", "class", "cw-title")
	dom.SetText(title, b.Name)
	closeBtn := dom.Element("button",
		"type", "button",
		"class", "cw-close",
		RefAttr, RefClose,
		"aria-label", "Close chat",
	)
	setGlyph(closeBtn, closeGlyph)
	dom.Append(header, logo, title, closeBtn)

	messages := dom.Element("div",
		"class", "cw-messages",
		RefAttr, RefMessages,
		"role", "log",
		"aria-live", "polite",
	)

	row := dom.Element("div", "class", "cw-input-row")
	input := dom.Element("textarea",
		"class", "cw-input",
		RefAttr, RefInput,
		"placeholder", "Type your message...",
		"rows", "1",
	)
	send := dom.Element("button", "type", "button", "class", "cw-send", RefAttr, RefSend)
	dom.SetText(send, "Send")
	dom.Append(row, input, send)

	footer := dom.Element("div", "class", "cw-footer")
	link := dom.Element("a",
		"href", b.PoweredBy.Link,
		"target", "_blank",
		"rel", "noopener noreferrer",
	)
	dom.SetText(link, b.PoweredBy.Text)
	dom.Append(footer, link)

	dom.Append(panel, header, messages, row, footer)

	return Elements{
		Toggle:   toggle,
		Panel:    panel,
		Messages: messages,
		Input:    input,
		Send:     send,
		Close:    closeBtn,
	}
}

// buildWelcome renders the quick-reply controls for the welcome prompt.
func buildWelcome(buttons []config.WelcomeButton) (*html.Node, []*html.Node) {
	box := dom.Element("div", "class", "cw-welcome", RefAttr, RefWelcome)
	nodes := make([]*html.Node, 0, len(buttons))
	for i, wb := range buttons {
		btn := dom.Element("button",
			"type", "button",
			"class", "cw-welcome-button",
			RefAttr, WelcomeRef(i),
		)
		dom.SetText(btn, wb.Label)
		dom.Append(box, btn)
		nodes = append(nodes, btn)
	}
	return box, nodes
}

func setGlyph(n *html.Node, glyph string) {
	// Glyphs are constants; parsing them cannot fail.
	_ = dom.SetInnerHTML(n, glyph)
}
