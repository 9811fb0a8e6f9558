package widget

import (
	"strings"
	"time"

	"golang.org/x/net/html"

	"chatwidget/internal/dom"
	"chatwidget/internal/events"
)

// Everything in this file runs on the widget loop.

func (w *Widget) bind() {
	d := w.doc
	d.AddEventListener(w.els.Toggle, dom.Click, func(*dom.Event) { w.toggle() })
	d.AddEventListener(w.els.Close, dom.Click, func(*dom.Event) { w.close() })
	d.AddEventListener(w.els.Send, dom.Click, func(*dom.Event) {
		w.send(dom.Value(w.els.Input), true)
	})
	d.AddEventListener(w.els.Input, dom.KeyDown, func(ev *dom.Event) {
		if ev.Key == "Enter" && !ev.Shift {
			ev.PreventDefault()
			w.send(dom.Value(w.els.Input), true)
		}
	})
	d.AddEventListener(w.els.Input, dom.Input, func(*dom.Event) { w.hideWelcome() })
}

func (w *Widget) toggle() {
	if w.open {
		w.close()
		return
	}
	w.open = true
	dom.AddClass(w.els.Panel, openClass)
	setGlyph(w.els.Toggle, closeGlyph)
	dom.SetAttr(w.els.Toggle, "aria-label", "Close chat")
	dom.SetAttr(w.els.Toggle, "aria-expanded", "true")

	if len(w.messages) == 0 {
		w.phase = PhaseOpenEmpty
		w.showWelcome()
	} else {
		w.phase = PhaseOpenActive
	}
	w.emit(events.WidgetToggled, map[string]any{"open": true, "phase": w.phase.String()})
}

func (w *Widget) close() {
	if !w.open {
		return
	}
	w.open = false
	w.phase = PhaseClosed
	dom.RemoveClass(w.els.Panel, openClass)
	setGlyph(w.els.Toggle, openGlyph)
	dom.SetAttr(w.els.Toggle, "aria-label", "Open chat")
	dom.SetAttr(w.els.Toggle, "aria-expanded", "false")
	w.emit(events.WidgetToggled, map[string]any{"open": false, "phase": w.phase.String()})
}

func (w *Widget) showWelcome() {
	w.appendMessage(w.cfg.Branding.WelcomeText, SenderBot)

	buttons := w.cfg.Branding.WelcomeButtons
	if len(buttons) == 0 {
		return
	}
	box, nodes := buildWelcome(buttons)
	for i, n := range nodes {
		payload := buttons[i].InitialMessage
		w.doc.AddEventListener(n, dom.Click, func(*dom.Event) { w.send(payload, false) })
	}
	dom.Append(w.els.Messages, box)
	w.welcome = box
}

func (w *Widget) hideWelcome() {
	if w.welcome == nil {
		return
	}
	w.doc.RemoveEventListeners(w.welcome)
	dom.Remove(w.welcome)
	w.welcome = nil
}

// send appends a user message and starts its exchange. fromInput marks text
// read from the input field, which is then cleared; button payloads leave
// the field alone.
func (w *Widget) send(text string, fromInput bool) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if fromInput {
		text = strings.TrimSpace(text)
	}

	w.hideWelcome()
	w.appendMessage(text, SenderUser)
	if fromInput {
		dom.SetValue(w.els.Input, "")
	}
	if w.phase == PhaseOpenEmpty {
		w.phase = PhaseOpenActive
	}
	w.startExchange(text)
}

func (w *Widget) appendMessage(text string, sender Sender) {
	w.messages = append(w.messages, Message{Text: text, Sender: sender})

	bubble := dom.Element("div", "class", "cw-message "+string(sender))
	if sender == SenderBot {
		if err := dom.SetInnerHTML(bubble, w.renderer.Render(text)); err != nil {
			w.logger.Warn("render bot message", "error", err)
			dom.SetText(bubble, text)
		}
	} else {
		dom.SetText(bubble, text)
	}
	dom.Append(w.els.Messages, bubble)

	w.emit(events.MessageAppended, map[string]any{
		"index":  len(w.messages) - 1,
		"sender": string(sender),
		"text":   text,
	})
}

// complete handles the result of one exchange. A failed exchange becomes
// the fallback bot message.
func (w *Widget) complete(message, reply string, err error, took time.Duration) {
	w.pending--
	if !w.mounted {
		return
	}

	payload := map[string]any{
		"message":     message,
		"ok":          err == nil,
		"duration_ms": took.Milliseconds(),
	}
	if err != nil {
		w.logger.Warn("webhook exchange failed", "widget", w.id, "error", err)
		payload["error"] = err.Error()
		w.appendMessage(w.cfg.Behavior.FallbackText, SenderBot)
	} else {
		payload["reply"] = reply
		w.appendMessage(reply, SenderBot)
	}
	w.emit(events.ExchangeCompleted, payload)
}

// target finds the node with ref inside this widget's subtree.
func (w *Widget) target(ref string) *html.Node {
	for _, root := range w.els.Roots() {
		if n := dom.Find(root, dom.ByAttr(RefAttr, ref)); n != nil {
			return n
		}
	}
	return nil
}
