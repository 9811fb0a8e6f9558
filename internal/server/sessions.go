package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatwidget/internal/dom"
	"chatwidget/internal/widget"
)

const sessionCookieName = "chatwidget_session"

// session is one visitor's page: its own document with a mounted widget.
type session struct {
	id  string
	doc *dom.Document
	w   *widget.Widget

	limiter *rateLimiter

	mu       sync.Mutex
	lastSeen time.Time
	watchers map[chan struct{}]struct{}
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// watch registers a channel that is signalled whenever the widget changes.
func (s *session) watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
	}
}

// notify wakes every watcher without blocking. It runs on the widget loop.
func (s *session) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// html renders the session's page.
func (s *session) html() ([]byte, error) {
	var buf bytes.Buffer
	var rerr error
	if err := s.w.Do(func() { rerr = s.doc.Render(&buf) }); err != nil {
		return nil, err
	}
	return buf.Bytes(), rerr
}

// sessionStore maps session cookies and widget ids to sessions.
type sessionStore struct {
	mu       sync.Mutex
	byID     map[string]*session
	byWidget map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		byID:     make(map[string]*session),
		byWidget: make(map[string]*session),
	}
}

func (st *sessionStore) lookup(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.byID[id]
}

func (st *sessionStore) forWidget(widgetID string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.byWidget[widgetID]
}

func (st *sessionStore) add(s *session) {
	st.mu.Lock()
	st.byID[s.id] = s
	st.byWidget[s.w.ID()] = s
	st.mu.Unlock()
}

func (st *sessionStore) remove(s *session) {
	st.mu.Lock()
	delete(st.byID, s.id)
	delete(st.byWidget, s.w.ID())
	st.mu.Unlock()
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.byID)
}

// idle returns sessions not seen since cutoff.
func (st *sessionStore) idle(cutoff time.Time) []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*session
	for _, s := range st.byID {
		if s.idleSince().Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func (st *sessionStore) all() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*session, 0, len(st.byID))
	for _, s := range st.byID {
		out = append(out, s)
	}
	return out
}

func newSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return "cw_" + strings.ReplaceAll(id.String(), "-", ""), nil
}

func setSessionCookie(rw http.ResponseWriter, id string, ttl time.Duration) {
	http.SetCookie(rw, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
