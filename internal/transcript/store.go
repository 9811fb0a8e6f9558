// Package transcript keeps an operator-facing log of webhook exchanges in
// SQLite. It is write-only from the widget's point of view: nothing is ever
// read back into a conversation.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"chatwidget/internal/events"
)

// Entry is one recorded exchange.
type Entry struct {
	ID         int64     `json:"id"`
	WidgetID   string    `json:"widgetId"`
	Message    string    `json:"message"`
	Reply      string    `json:"reply,omitempty"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists entries in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.Mutex
	queue  chan Entry
	closed bool
	wg     sync.WaitGroup
	detach func()
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Record inserts e.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (widget_id, message, reply, ok, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.WidgetID, e.Message, e.Reply, e.OK, e.Error, e.DurationMS, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. widgetID filters when set.
func (s *Store) Recent(ctx context.Context, widgetID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, widget_id, message, reply, ok, error, duration_ms, created_at FROM exchanges`
	args := []any{}
	if widgetID != "" {
		query += ` WHERE widget_id = ?`
		args = append(args, widgetID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var reply, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.WidgetID, &e.Message, &reply, &e.OK, &errText, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Reply = reply.String
		e.Error = errText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Attach records every exchange.completed event on bus. Writes happen on a
// background goroutine so the widget loop never waits on the database;
// when the queue is full entries are dropped with a warning.
func (s *Store) Attach(bus *events.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil || s.closed {
		return
	}
	s.queue = make(chan Entry, 256)

	s.wg.Add(1)
	go func(q <-chan Entry) {
		defer s.wg.Done()
		for e := range q {
			if err := s.Record(context.Background(), e); err != nil {
				s.logger.Warn("transcript write failed", "error", err)
			}
		}
	}(s.queue)

	id := bus.On(events.ExchangeCompleted, s.enqueue)
	s.detach = func() { bus.Off(events.ExchangeCompleted, id) }
}

func (s *Store) enqueue(ev events.Event) {
	e := entryFromEvent(ev)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.queue == nil {
		return
	}
	select {
	case s.queue <- e:
	default:
		s.logger.Warn("transcript queue full, dropping entry", "widget", e.WidgetID)
	}
}

func entryFromEvent(ev events.Event) Entry {
	e := Entry{WidgetID: ev.WidgetID, CreatedAt: ev.Timestamp}
	e.Message, _ = ev.Payload["message"].(string)
	e.Reply, _ = ev.Payload["reply"].(string)
	e.OK, _ = ev.Payload["ok"].(bool)
	e.Error, _ = ev.Payload["error"].(string)
	e.DurationMS, _ = ev.Payload["duration_ms"].(int64)
	return e
}

// Close detaches from the bus, flushes queued entries and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.detach != nil {
		s.detach()
	}
	if s.queue != nil {
		close(s.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return s.db.Close()
}
