package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"chatwidget/internal/events"
)

func TestCollector_CounterAndGaugeReuse(t *testing.T) {
	c := New()
	a := c.Counter("x_total", "x", "")
	a.Inc()
	a.Inc()
	if c.Counter("x_total", "x", "").Value() != 2 {
		t.Fatal("counter should be reused by name and labels")
	}
	if c.Counter("x_total", "x", `k="v"`).Value() != 0 {
		t.Fatal("different labels should be a different series")
	}

	g := c.Gauge("g", "g", "")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Fatalf("gauge = %d", g.Value())
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Counter("b_total", "b", `k="2"`).Inc()
	c.Counter("b_total", "b", `k="1"`).Inc()
	h := c.Histogram("lat_seconds", "lat", "", []float64{1, 0.5})
	h.Observe(0.2)
	h.Observe(3)

	rr := httptest.NewRecorder()
	c.Handler()(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	out := string(body)

	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if strings.Count(out, "# TYPE b_total counter") != 1 {
		t.Error("help/type should be written once per name")
	}
	if strings.Index(out, `b_total{k="1"}`) > strings.Index(out, `b_total{k="2"}`) {
		t.Error("series should be sorted")
	}
	for _, want := range []string{
		`lat_seconds_bucket{le="0.5"} 1`,
		`lat_seconds_bucket{le="1"} 1`,
		`lat_seconds_bucket{le="+Inf"} 2`,
		"lat_seconds_count 2",
		"chatwidget_uptime_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestWidget_ObserveBus(t *testing.T) {
	c := New()
	m := NewWidget(c)
	bus := events.NewBus(nil)
	stop := m.Observe(bus)

	bus.Emit(events.Event{Type: events.WidgetMounted})
	bus.Emit(events.Event{Type: events.WidgetToggled})
	bus.Emit(events.Event{Type: events.MessageAppended, Payload: map[string]any{"sender": "user"}})
	bus.Emit(events.Event{Type: events.MessageAppended, Payload: map[string]any{"sender": "bot"}})
	bus.Emit(events.Event{Type: events.ExchangeCompleted, Payload: map[string]any{"ok": true, "duration_ms": int64(120)}})
	bus.Emit(events.Event{Type: events.ExchangeCompleted, Payload: map[string]any{"ok": false, "duration_ms": int64(5)}})

	if m.Mounted.Value() != 1 || m.Toggles.Value() != 1 {
		t.Errorf("mounted=%d toggles=%d", m.Mounted.Value(), m.Toggles.Value())
	}
	if m.UserMessages.Value() != 1 || m.BotMessages.Value() != 1 {
		t.Errorf("user=%d bot=%d", m.UserMessages.Value(), m.BotMessages.Value())
	}
	if m.ExchangesOK.Value() != 1 || m.ExchangesFail.Value() != 1 {
		t.Errorf("ok=%d fail=%d", m.ExchangesOK.Value(), m.ExchangesFail.Value())
	}
	if m.Latency.Count() != 2 {
		t.Errorf("latency observations = %d", m.Latency.Count())
	}

	stop()
	bus.Emit(events.Event{Type: events.WidgetToggled})
	if m.Toggles.Value() != 1 {
		t.Error("Observe stop should unsubscribe")
	}
}
