package events

import (
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
)

func testBusLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestBus_EmitAndReceive(t *testing.T) {
	b := NewBus(testBusLogger())

	var got Event
	b.On(WidgetToggled, func(e Event) { got = e })
	b.Emit(Event{Type: WidgetToggled, WidgetID: "w1", Payload: map[string]any{"open": true}})

	if got.WidgetID != "w1" || got.Payload["open"] != true {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should be filled in")
	}
}

func TestBus_WildcardRunsAfterSpecific(t *testing.T) {
	b := NewBus(testBusLogger())

	var order []string
	b.On("*", func(Event) { order = append(order, "wild") })
	b.On(MessageAppended, func(Event) { order = append(order, "specific") })

	b.Emit(Event{Type: MessageAppended})
	b.Emit(Event{Type: WidgetMounted})

	want := []string{"specific", "wild", "wild"}
	if len(order) != len(want) {
		t.Fatalf("got %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestBus_Off(t *testing.T) {
	b := NewBus(testBusLogger())

	var count int32
	id := b.On(WidgetToggled, func(Event) { atomic.AddInt32(&count, 1) })
	b.On(WidgetToggled, func(Event) {})

	b.Emit(Event{Type: WidgetToggled})
	b.Off(WidgetToggled, id)
	b.Emit(Event{Type: WidgetToggled})

	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("expected 1 after Off, got %d", count)
	}
}

func TestBus_OffUsesUniqueIDs(t *testing.T) {
	b := NewBus(testBusLogger())

	first := b.On(WidgetToggled, func(Event) {})
	b.Off(WidgetToggled, first)
	second := b.On(WidgetToggled, func(Event) {})
	if first == second {
		t.Fatalf("handler id reused: %s", first)
	}
}

func TestBus_PanicRecovery(t *testing.T) {
	b := NewBus(testBusLogger())

	var reached bool
	b.On(ExchangeCompleted, func(Event) { panic("boom") })
	b.On(ExchangeCompleted, func(Event) { reached = true })

	b.Emit(Event{Type: ExchangeCompleted})
	if !reached {
		t.Fatal("handler after a panicking one should still run")
	}
}
