package events

import (
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Event is a widget lifecycle or conversation event.
type Event struct {
	Type      string         // e.g. "widget.toggled", "message.appended"
	WidgetID  string         // instance that produced the event
	Payload   map[string]any // event-specific data
	Timestamp time.Time
}

// Handler is a callback for events.
type Handler func(Event)

// Bus is a topic-based publish/subscribe dispatcher shared by widget
// instances and the components that observe them (SSE push, metrics,
// transcript). Events are delivered and forgotten; nothing is retained.
type Bus struct {
	handlers map[string][]namedHandler
	nextID   int
	mu       sync.RWMutex
	logger   *slog.Logger
}

type namedHandler struct {
	ID      string
	Handler Handler
}

// NewBus creates a Bus. A nil logger discards handler panics silently.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		handlers: make(map[string][]namedHandler),
		logger:   logger,
	}
}

// On registers a handler for the given event type.
// Use "*" to listen to all events. Returns the handler ID for Off.
func (b *Bus) On(eventType string, h Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := eventType + "-" + strconv.Itoa(b.nextID)
	b.handlers[eventType] = append(b.handlers[eventType], namedHandler{ID: id, Handler: h})
	return id
}

// Off removes a handler by its ID.
func (b *Bus) Off(eventType, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[eventType]
	for i, h := range hs {
		if h.ID == id {
			b.handlers[eventType] = append(hs[:i:i], hs[i+1:]...)
			return
		}
	}
}

// Emit publishes an event to all registered handlers synchronously, in
// registration order. Specific handlers run before wildcard handlers.
func (b *Bus) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	hs := make([]namedHandler, 0, len(b.handlers[ev.Type])+len(b.handlers["*"]))
	hs = append(hs, b.handlers[ev.Type]...)
	hs = append(hs, b.handlers["*"]...)
	b.mu.RUnlock()

	for _, h := range hs {
		func(nh namedHandler) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panic", "event", ev.Type, "handler", nh.ID, "panic", r)
				}
			}()
			nh.Handler(ev)
		}(h)
	}
}

// Well-known event types.
const (
	WidgetMounted     = "widget.mounted"
	WidgetUnmounted   = "widget.unmounted"
	WidgetToggled     = "widget.toggled"
	MessageAppended   = "message.appended"
	ExchangeCompleted = "exchange.completed"
)
