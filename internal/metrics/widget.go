package metrics

import (
	"time"

	"chatwidget/internal/events"
)

// Widget holds the metrics fed by widget events.
type Widget struct {
	Mounted       *Gauge
	Toggles       *Counter
	UserMessages  *Counter
	BotMessages   *Counter
	ExchangesOK   *Counter
	ExchangesFail *Counter
	Latency       *Histogram
	SSEClients    *Gauge
	Sessions      *Gauge
}

// NewWidget registers the widget metrics on c.
func NewWidget(c *Collector) *Widget {
	return &Widget{
		Mounted:       c.Gauge("chatwidget_widgets_mounted", "Currently mounted widget instances", ""),
		Toggles:       c.Counter("chatwidget_toggles_total", "Panel open/close transitions", ""),
		UserMessages:  c.Counter("chatwidget_messages_total", "Messages appended to conversations", `sender="user"`),
		BotMessages:   c.Counter("chatwidget_messages_total", "Messages appended to conversations", `sender="bot"`),
		ExchangesOK:   c.Counter("chatwidget_exchanges_total", "Completed webhook exchanges", `result="ok"`),
		ExchangesFail: c.Counter("chatwidget_exchanges_total", "Completed webhook exchanges", `result="error"`),
		Latency: c.Histogram("chatwidget_exchange_latency_seconds", "Webhook exchange latency in seconds", "",
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}),
		SSEClients: c.Gauge("chatwidget_sse_clients", "Current SSE connections", ""),
		Sessions:   c.Gauge("chatwidget_sessions", "Live visitor sessions", ""),
	}
}

// Observe subscribes m to bus. The returned function unsubscribes.
func (m *Widget) Observe(bus *events.Bus) func() {
	id := bus.On("*", m.handle)
	return func() { bus.Off("*", id) }
}

func (m *Widget) handle(e events.Event) {
	switch e.Type {
	case events.WidgetMounted:
		m.Mounted.Inc()
	case events.WidgetUnmounted:
		m.Mounted.Dec()
	case events.WidgetToggled:
		m.Toggles.Inc()
	case events.MessageAppended:
		if e.Payload["sender"] == "user" {
			m.UserMessages.Inc()
		} else {
			m.BotMessages.Inc()
		}
	case events.ExchangeCompleted:
		if ok, _ := e.Payload["ok"].(bool); ok {
			m.ExchangesOK.Inc()
		} else {
			m.ExchangesFail.Inc()
		}
		if ms, ok := e.Payload["duration_ms"].(int64); ok {
			m.Latency.Observe((time.Duration(ms) * time.Millisecond).Seconds())
		}
	}
}
