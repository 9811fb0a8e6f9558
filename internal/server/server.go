// Package server hosts the widget for browsers. Each visitor gets a session
// with its own page and widget instance; the browser forwards DOM events to
// the widget and receives re-rendered widget markup over Server-Sent Events.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"net/http"
	"time"

	"chatwidget/internal/config"
	"chatwidget/internal/dom"
	"chatwidget/internal/events"
	"chatwidget/internal/metrics"
	"chatwidget/internal/webhook"
	"chatwidget/internal/widget"
)

const (
	maxEventBody   = 64 << 10
	defaultTTL     = 30 * time.Minute
	sseKeepAlive   = 25 * time.Second
	minReapPeriod  = time.Second
	shutdownPeriod = 5 * time.Second

	defaultEventRate  = 120.0 // per minute and session
	defaultEventBurst = 30
)

//go:embed web/*
var webFS embed.FS

var pageTmpl = htmltemplate.Must(htmltemplate.ParseFS(webFS, "web/page.html"))

// Config configures a Server.
type Config struct {
	Addr       string
	Widget     config.Widget
	Exchanger  widget.Exchanger   // default: one shared webhook client
	Bus        *events.Bus        // default: a private bus
	Metrics    *metrics.Collector // nil disables /metrics
	SessionTTL time.Duration
	EventRate  float64 // widget events per minute and session, default 120
	Version    string
	Logger     *slog.Logger
}

// Server is the widget host.
type Server struct {
	cfg      Config
	bus      *events.Bus
	sessions *sessionStore
	metrics  *metrics.Widget
	logger   *slog.Logger
	mux      *http.ServeMux
	unsub    []func()
}

// New validates the widget configuration and builds the handler tree.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := config.Validate(cfg.Widget); err != nil {
		return nil, fmt.Errorf("widget config: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultTTL
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus(cfg.Logger)
	}
	if cfg.Exchanger == nil {
		cfg.Exchanger = webhook.NewClient(webhook.ClientConfig{
			URL:     cfg.Widget.Webhook.URL,
			Secret:  cfg.Widget.Webhook.Secret,
			Timeout: time.Duration(cfg.Widget.Webhook.TimeoutSeconds) * time.Second,
			Retries: cfg.Widget.Webhook.Retries,
			Logger:  cfg.Logger,
		})
	}

	s := &Server{
		cfg:      cfg,
		bus:      cfg.Bus,
		sessions: newSessionStore(),
		logger:   cfg.Logger,
		mux:      http.NewServeMux(),
	}

	id := s.bus.On("*", s.onWidgetEvent)
	s.unsub = append(s.unsub, func() { s.bus.Off("*", id) })
	if cfg.Metrics != nil {
		s.metrics = metrics.NewWidget(cfg.Metrics)
		s.unsub = append(s.unsub, s.metrics.Observe(s.bus))
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	assets := http.FileServer(http.FS(webFS))
	s.mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		r.URL.Path = "web/" + r.URL.Path
		rw.Header().Set("Cache-Control", "public, max-age=3600")
		assets.ServeHTTP(rw, r)
	})))

	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("POST /widget/events", s.handleEvent)
	s.mux.HandleFunc("GET /widget/stream", s.handleStream)
	s.mux.HandleFunc("GET /widget/state", s.handleState)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	if s.cfg.Metrics != nil {
		s.mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on cfg.Addr until ctx is cancelled, reaping idle sessions
// along the way. All widgets are unmounted before it returns.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	reapCtx, stopReap := context.WithCancel(ctx)
	defer stopReap()
	go s.reapLoop(reapCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("widget host started", "addr", "http://"+s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("widget host shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
		defer cancel()
		runErr = srv.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("widget host: %w", err)
		}
	}
	s.Close()
	return runErr
}

// Close unmounts every session's widget and detaches from the bus.
func (s *Server) Close() {
	for _, sess := range s.sessions.all() {
		s.drop(sess)
	}
	for _, f := range s.unsub {
		f()
	}
	s.unsub = nil
}

func (s *Server) reapLoop(ctx context.Context) {
	period := s.cfg.SessionTTL / 2
	if period < minReapPeriod {
		period = minReapPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.reap(now)
		}
	}
}

// reap unmounts sessions idle for longer than the TTL.
func (s *Server) reap(now time.Time) int {
	idle := s.sessions.idle(now.Add(-s.cfg.SessionTTL))
	for _, sess := range idle {
		s.logger.Info("session expired", "session", sess.id, "widget", sess.w.ID())
		s.drop(sess)
	}
	return len(idle)
}

func (s *Server) drop(sess *session) {
	s.sessions.remove(sess)
	s.countSessions()
	sess.w.Unmount()
	sess.notify()
}

func (s *Server) countSessions() {
	if s.metrics != nil {
		s.metrics.Sessions.Set(int64(s.sessions.len()))
	}
}

// onWidgetEvent wakes the SSE streams of the session that owns the widget.
// It runs on that widget's loop and must not call back into it.
func (s *Server) onWidgetEvent(e events.Event) {
	switch e.Type {
	case events.WidgetToggled, events.MessageAppended:
	default:
		return
	}
	if sess := s.sessions.forWidget(e.WidgetID); sess != nil {
		sess.notify()
	}
}

// session returns the caller's session, creating one with a freshly mounted
// widget when the cookie is missing or stale.
func (s *Server) session(rw http.ResponseWriter, r *http.Request, create bool) (*session, error) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		if sess := s.sessions.lookup(c.Value); sess != nil {
			sess.touch(time.Now())
			return sess, nil
		}
	}
	if !create {
		return nil, nil
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	doc, err := s.newPage()
	if err != nil {
		return nil, err
	}
	w, err := widget.Mount(doc, widget.Config{
		Widget:    s.cfg.Widget,
		Exchanger: s.cfg.Exchanger,
		Bus:       s.bus,
		Logger:    s.logger.With("session", id),
	})
	if err != nil {
		return nil, err
	}
	sess := &session{
		id:       id,
		doc:      doc,
		w:        w,
		limiter:  newRateLimiter(defaultEventBurst, s.cfg.EventRate),
		lastSeen: time.Now(),
		watchers: make(map[chan struct{}]struct{}),
	}
	s.sessions.add(sess)
	s.countSessions()
	setSessionCookie(rw, id, s.cfg.SessionTTL)
	s.logger.Info("new widget session", "session", id, "widget", w.ID())
	return sess, nil
}

func (s *Server) newPage() (*dom.Document, error) {
	var buf bytes.Buffer
	title := s.cfg.Widget.Branding.Name
	if err := pageTmpl.Execute(&buf, map[string]any{"Title": title}); err != nil {
		return nil, fmt.Errorf("render host page: %w", err)
	}
	return dom.Parse(&buf)
}
