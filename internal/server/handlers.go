package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatwidget/internal/dom"
	"chatwidget/internal/widget"
)

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}

func (s *Server) handlePage(rw http.ResponseWriter, r *http.Request) {
	sess, err := s.session(rw, r, true)
	if err != nil {
		s.logger.Error("create session", "err", err)
		http.Error(rw, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page, err := sess.html()
	if err != nil {
		s.logger.Error("render page", "session", sess.id, "err", err)
		http.Error(rw, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Header().Set("Cache-Control", "no-store")
	rw.Write(page)
}

var allowedEvents = map[string]bool{dom.Click: true, dom.KeyDown: true, dom.Input: true}

func (s *Server) handleEvent(rw http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(rw, r, false)
	if sess == nil {
		writeError(rw, http.StatusNotFound, "no widget session")
		return
	}
	if !sess.limiter.allow(time.Now()) {
		rw.Header().Set("Retry-After", "1")
		writeError(rw, http.StatusTooManyRequests, "too many events")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody+1))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "read body")
		return
	}
	if len(body) > maxEventBody {
		writeError(rw, http.StatusRequestEntityTooLarge, "event too large")
		return
	}
	var in widget.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !allowedEvents[in.Type] {
		writeError(rw, http.StatusBadRequest, fmt.Sprintf("unsupported event type %q", in.Type))
		return
	}

	proceed, err := sess.w.Dispatch(in)
	switch {
	case errors.Is(err, widget.ErrUnknownRef):
		writeError(rw, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, widget.ErrUnmounted):
		writeError(rw, http.StatusGone, err.Error())
		return
	case err != nil:
		s.logger.Error("dispatch event", "session", sess.id, "err", err)
		writeError(rw, http.StatusInternalServerError, "dispatch failed")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]bool{"proceed": proceed})
}

func (s *Server) handleState(rw http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(rw, r, false)
	if sess == nil {
		writeError(rw, http.StatusNotFound, "no widget session")
		return
	}
	st, err := sess.w.State()
	if err != nil {
		writeError(rw, http.StatusGone, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, st)
}

func (s *Server) handleStream(rw http.ResponseWriter, r *http.Request) {
	flusher, ok := rw.(http.Flusher)
	if !ok {
		http.Error(rw, "SSE not supported", http.StatusInternalServerError)
		return
	}
	sess, _ := s.session(rw, r, false)
	if sess == nil {
		writeError(rw, http.StatusNotFound, "no widget session")
		return
	}

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")

	changed, stop := sess.watch()
	defer stop()
	if s.metrics != nil {
		s.metrics.SSEClients.Inc()
		defer s.metrics.SSEClients.Dec()
	}

	send := func() bool {
		snap, err := sess.w.Snapshot()
		if err != nil {
			return false
		}
		data, _ := json.Marshal(snap)
		fmt.Fprintf(rw, "event: snapshot\ndata: %s\n\n", data)
		flusher.Flush()
		return true
	}
	if !send() {
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			sess.touch(time.Now())
			if !send() {
				return
			}
		case <-keepAlive.C:
			fmt.Fprint(rw, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.cfg.Version,
		"sessions": s.sessions.len(),
		"time":     time.Now().Format(time.RFC3339),
	})
}
