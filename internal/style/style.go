// Package style renders the widget stylesheet from the configured theme tokens.
package style

import (
	"bytes"
	"text/template"

	"golang.org/x/net/html"

	"chatwidget/internal/config"
	"chatwidget/internal/dom"
)

// MarkerAttr identifies the stylesheet a widget injected.
const MarkerAttr = "data-cw-style"

var sheet = template.Must(template.New("widget.css").Parse(`
.cw-toggle {
  position: fixed; bottom: 20px; {{.Side}}: 20px;
  background-color: {{.PrimaryColor}}; color: #ffffff; width: 60px; height: 60px;
  border-radius: 50%; border: none; cursor: pointer; display: flex;
  justify-content: center; align-items: center;
  box-shadow: 0 4px 8px rgba(0,0,0,0.2); z-index: 9998;
  transition: transform 0.2s ease-in-out;
}
.cw-toggle:hover { transform: scale(1.1); }
.cw-toggle svg { width: 30px; height: 30px; }

.cw-panel {
  position: fixed; bottom: 90px; {{.Side}}: 20px;
  width: 370px; height: 70vh; max-height: 600px;
  background-color: {{.BackgroundColor}}; border-radius: 12px;
  box-shadow: 0 5px 20px rgba(0,0,0,0.2); display: flex;
  flex-direction: column; overflow: hidden; z-index: 9999;
  transform: translateY(20px) scale(0.95); opacity: 0; visibility: hidden;
  transition: transform 0.3s ease-out, opacity 0.3s ease-out;
}
.cw-panel.open { transform: translateY(0) scale(1); opacity: 1; visibility: visible; }

.cw-header {
  background-color: {{.HeaderColor}}; padding: 16px; display: flex;
  align-items: center; border-bottom: 1px solid #e2e8f0; flex-shrink: 0;
}
.cw-logo { width: 32px; height: 32px; margin-right: 12px; border-radius: 4px; }
.cw-title { margin: 0; flex-grow: 1; font-size: 18px; font-weight: 600; color: {{.FontColor}}; }
.cw-close { background: none; border: none; cursor: pointer; color: {{.FontColor}}; width: 28px; height: 28px; }

.cw-messages { flex-grow: 1; padding: 16px; overflow-y: auto; display: flex; flex-direction: column; }
.cw-message { max-width: 80%; padding: 10px 15px; border-radius: 18px; margin-bottom: 10px; line-height: 1.4; overflow-wrap: anywhere; }
.cw-message.user { background-color: {{.PrimaryColor}}; color: #ffffff; align-self: flex-end; border-bottom-right-radius: 4px; white-space: pre-wrap; }
.cw-message.bot { background-color: #f1f5f9; color: {{.FontColor}}; align-self: flex-start; border-bottom-left-radius: 4px; }
.cw-message.bot a { color: {{.PrimaryColor}}; text-decoration: underline; }
.cw-message.bot h1, .cw-message.bot h2, .cw-message.bot h3, .cw-message.bot p { margin: 0; }

.cw-welcome { display: flex; flex-direction: column; gap: 8px; margin-top: 10px; }
.cw-welcome-button {
  background-color: transparent; border: 1px solid {{.PrimaryColor}}; color: {{.PrimaryColor}};
  padding: 10px; border-radius: 8px; cursor: pointer; text-align: center;
}
.cw-welcome-button:hover { background-color: {{.PrimaryColor}}; color: #ffffff; }

.cw-input-row { padding: 12px; border-top: 1px solid #e2e8f0; display: flex; align-items: flex-end; flex-shrink: 0; }
.cw-input {
  flex-grow: 1; border: 1px solid #cbd5e1; border-radius: 8px; padding: 10px; resize: none;
  font-family: inherit; font-size: 14px; line-height: 1.4; max-height: 150px; overflow-y: auto;
}
.cw-input:focus { outline: none; border-color: {{.PrimaryColor}}; }
.cw-send { background-color: {{.PrimaryColor}}; color: #ffffff; border: none; border-radius: 8px; padding: 10px 20px; margin-left: 10px; cursor: pointer; font-weight: 600; }

.cw-footer { text-align: center; padding: 8px; font-size: 12px; color: #94a3b8; background-color: {{.HeaderColor}}; flex-shrink: 0; }
.cw-footer a { color: #94a3b8; text-decoration: none; }
`))

type tokens struct {
	config.StyleConfig
	Side string
}

// CSS renders the stylesheet text for s.
func CSS(s config.StyleConfig) (string, error) {
	side := config.PositionRight
	if s.Position == config.PositionLeft {
		side = config.PositionLeft
	}
	var buf bytes.Buffer
	if err := sheet.Execute(&buf, tokens{StyleConfig: s, Side: side}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Inject appends one <style> element with the widget rules to the document
// head and returns it so the caller can remove it again.
func Inject(doc *dom.Document, s config.StyleConfig, owner string) (*html.Node, error) {
	css, err := CSS(s)
	if err != nil {
		return nil, err
	}
	el := dom.Element("style", MarkerAttr, owner)
	dom.SetText(el, css)
	dom.Append(doc.Head(), el)
	return el, nil
}
