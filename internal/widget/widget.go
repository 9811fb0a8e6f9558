// Package widget is the chat widget runtime: it mounts the toggle and panel
// into a document, owns the conversation state and exchanges messages with
// the configured webhook.
//
// A widget's document and state are only touched from its Loop. DOM events
// are delivered with Dispatch, webhook exchanges run on their own
// goroutines and post their completion back to the loop.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"chatwidget/internal/config"
	"chatwidget/internal/dom"
	"chatwidget/internal/events"
	"chatwidget/internal/markdown"
	"chatwidget/internal/style"
	"chatwidget/internal/webhook"
)

var (
	// ErrUnmounted is returned by operations on an unmounted widget.
	ErrUnmounted = errors.New("widget: unmounted")
	// ErrUnknownRef is returned by Dispatch for a ref the widget does not own.
	ErrUnknownRef = errors.New("widget: unknown element ref")
)

// Exchanger sends one user message to the webhook and returns the reply.
type Exchanger interface {
	Exchange(ctx context.Context, message string) (string, error)
}

// Config configures Mount. Only Widget is required.
type Config struct {
	Widget    config.Widget     // resolved configuration
	Exchanger Exchanger         // default: webhook client for Widget.Webhook
	Renderer  markdown.Renderer // default: Widget.Behavior.MarkdownEngine
	Bus       *events.Bus
	Logger    *slog.Logger
}

// Widget is one mounted chat widget.
type Widget struct {
	id        string
	cfg       config.Widget
	doc       *dom.Document
	loop      *Loop
	exchanger Exchanger
	renderer  markdown.Renderer
	bus       *events.Bus
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	// loop-owned
	els      Elements
	sheet    *html.Node
	welcome  *html.Node
	mounted  bool
	open     bool
	phase    Phase
	messages []Message
	pending  int
	tail     chan struct{} // queue mode: closed when the last queued exchange is done
}

// Initialize resolves override onto the built-in defaults and mounts the
// widget. It is the entry point for hosts that only hold a partial
// configuration.
func Initialize(doc *dom.Document, override map[string]any, cfg Config) (*Widget, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolved, err := config.Resolve(config.Defaults(), override)
	if err != nil {
		logger.Error("widget configuration error", "error", err)
		return nil, err
	}
	cfg.Widget = resolved
	cfg.Logger = logger
	return mount(doc, cfg)
}

// Mount validates cfg.Widget, injects the stylesheet and appends the toggle
// and panel to the document body. A configuration error is logged once and
// returned before the document is touched.
func Mount(doc *dom.Document, cfg Config) (*Widget, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := config.Validate(cfg.Widget); err != nil {
		cfg.Logger.Error("widget configuration error", "error", err)
		return nil, err
	}
	return mount(doc, cfg)
}

func mount(doc *dom.Document, cfg Config) (*Widget, error) {
	wc := cfg.Widget
	if wc.Behavior.FallbackText == "" {
		wc.Behavior.FallbackText = config.DefaultFallbackText
	}

	renderer := cfg.Renderer
	if renderer == nil {
		r, err := markdown.New(wc.Behavior.MarkdownEngine)
		if err != nil {
			cfg.Logger.Error("widget configuration error", "error", err)
			return nil, err
		}
		renderer = r
	}

	id := uuid.NewString()
	logger := cfg.Logger.With("widget", id)

	exchanger := cfg.Exchanger
	if exchanger == nil {
		exchanger = webhook.NewClient(webhook.ClientConfig{
			URL:     wc.Webhook.URL,
			Secret:  wc.Webhook.Secret,
			Timeout: time.Duration(wc.Webhook.TimeoutSeconds) * time.Second,
			Retries: wc.Webhook.Retries,
			Logger:  logger,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		id:        id,
		cfg:       wc,
		doc:       doc,
		loop:      NewLoop(logger),
		exchanger: exchanger,
		renderer:  renderer,
		bus:       cfg.Bus,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	var injectErr error
	err := w.loop.Do(func() {
		sheet, err := style.Inject(doc, wc.Style, id)
		if err != nil {
			injectErr = fmt.Errorf("inject stylesheet: %w", err)
			return
		}
		w.sheet = sheet
		w.els = Build(id, wc.Branding)
		dom.Append(doc.Body(), w.els.Roots()...)
		w.bind()
		w.mounted = true
		w.emit(events.WidgetMounted, map[string]any{"position": wc.Style.Position})
	})
	if err == nil {
		err = injectErr
	}
	if err != nil {
		cancel()
		w.loop.Stop()
		<-w.loop.Done()
		return nil, err
	}

	logger.Info("widget mounted", "webhook", wc.Webhook.URL, "send_mode", wc.Behavior.SendMode)
	return w, nil
}

// ID returns the instance id carried in the widget's data-cw-widget attributes.
func (w *Widget) ID() string { return w.id }

// Config returns the resolved configuration.
func (w *Widget) Config() config.Widget { return w.cfg }

// Do runs fn on the widget loop and waits for it.
func (w *Widget) Do(fn func()) error {
	if err := w.loop.Do(fn); err != nil {
		return ErrUnmounted
	}
	return nil
}

// Interaction is a DOM event aimed at one of the widget's elements. Value,
// when set, is the input field's current content and is applied before the
// event is delivered.
type Interaction struct {
	Ref   string  `json:"ref"`
	Type  string  `json:"type"`
	Key   string  `json:"key,omitempty"`
	Shift bool    `json:"shift,omitempty"`
	Value *string `json:"value,omitempty"`
}

// Dispatch delivers in to the widget. It reports whether the event's default
// action should proceed.
func (w *Widget) Dispatch(in Interaction) (bool, error) {
	proceed := true
	var derr error
	err := w.Do(func() {
		if !w.mounted {
			derr = ErrUnmounted
			return
		}
		target := w.target(in.Ref)
		if target == nil {
			derr = fmt.Errorf("%w: %q", ErrUnknownRef, in.Ref)
			return
		}
		if in.Value != nil {
			dom.SetValue(w.els.Input, *in.Value)
		}
		proceed = w.doc.Dispatch(target, &dom.Event{Type: in.Type, Key: in.Key, Shift: in.Shift})
	})
	if err != nil {
		return false, err
	}
	return proceed, derr
}

// Click dispatches a click on ref.
func (w *Widget) Click(ref string) error {
	_, err := w.Dispatch(Interaction{Ref: ref, Type: dom.Click})
	return err
}

// Type sets the input field to text and fires its input event.
func (w *Widget) Type(text string) error {
	_, err := w.Dispatch(Interaction{Ref: RefInput, Type: dom.Input, Value: &text})
	return err
}

// State returns a copy of the conversation state.
func (w *Widget) State() (State, error) {
	var s State
	err := w.Do(func() {
		s = State{
			IsOpen:               w.open,
			Phase:                w.phase,
			Messages:             append([]Message(nil), w.messages...),
			WelcomePromptVisible: w.welcome != nil,
			Pending:              w.pending,
		}
	})
	return s, err
}

// Messages returns a copy of the message list.
func (w *Widget) Messages() ([]Message, error) {
	s, err := w.State()
	return s.Messages, err
}

// Render returns the widget's markup: the toggle followed by the panel.
func (w *Widget) Render() (string, error) {
	var out string
	err := w.Do(func() {
		for _, n := range w.els.Roots() {
			out += dom.OuterHTML(n)
		}
	})
	return out, err
}

// Snapshot returns the parts of the widget that change after mount.
func (w *Widget) Snapshot() (Snapshot, error) {
	var s Snapshot
	err := w.Do(func() {
		s = Snapshot{
			Open:     w.open,
			Toggle:   dom.InnerHTML(w.els.Toggle),
			Messages: dom.InnerHTML(w.els.Messages),
			Input:    dom.Value(w.els.Input),
		}
	})
	return s, err
}

// Unmount removes the widget's nodes, listeners and stylesheet, abandons
// in-flight exchanges and waits for their goroutines. It is safe to call
// more than once and must not be called from a loop callback.
func (w *Widget) Unmount() {
	w.once.Do(func() {
		w.cancel()
		_ = w.loop.Do(func() {
			for _, n := range w.els.Roots() {
				w.doc.RemoveEventListeners(n)
				dom.Remove(n)
			}
			dom.Remove(w.sheet)
			w.welcome = nil
			w.mounted = false
		})
		w.loop.Stop()
		<-w.loop.Done()
		w.wg.Wait()
		w.emit(events.WidgetUnmounted, nil)
		w.logger.Info("widget unmounted")
	})
}

func (w *Widget) emit(typ string, payload map[string]any) {
	if w.bus == nil {
		return
	}
	w.bus.Emit(events.Event{Type: typ, WidgetID: w.id, Payload: payload})
}
