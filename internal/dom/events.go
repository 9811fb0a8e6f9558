package dom

import "golang.org/x/net/html"

// Event types the widget listens for.
const (
	Click   = "click"
	KeyDown = "keydown"
	Input   = "input"
)

// Event is a DOM event delivered to listeners of its target.
type Event struct {
	Type   string
	Key    string // keydown only, e.g. "Enter"
	Shift  bool   // keydown only
	Target *html.Node

	defaultPrevented bool
}

// PreventDefault marks the event's default action as cancelled.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Listener handles one event.
type Listener func(*Event)

// AddEventListener registers fn for events of type typ targeted at n.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Listener) {
	byType, ok := d.listeners[n]
	if !ok {
		byType = make(map[string][]Listener)
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// RemoveEventListeners drops every listener registered on n and its descendants.
func (d *Document) RemoveEventListeners(n *html.Node) {
	for target := range d.listeners {
		if Contains(n, target) {
			delete(d.listeners, target)
		}
	}
}

// ListenerCount returns how many listeners of type typ n has.
func (d *Document) ListenerCount(n *html.Node, typ string) int {
	return len(d.listeners[n][typ])
}

// Dispatch delivers ev to the listeners of target in registration order.
// Events do not bubble: the widget registers listeners on exact targets.
// It returns false if a listener called PreventDefault.
func (d *Document) Dispatch(target *html.Node, ev *Event) bool {
	ev.Target = target
	fns := append([]Listener(nil), d.listeners[target][ev.Type]...)
	for _, fn := range fns {
		fn(ev)
	}
	return !ev.defaultPrevented
}
