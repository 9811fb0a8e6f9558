package widget

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned when work is submitted to a stopped loop.
var ErrStopped = errors.New("widget: loop stopped")

// Loop is a single-threaded executor. Every callback that touches a widget's
// document or state runs on it, one at a time, in submission order.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
	logger  *slog.Logger
}

// NewLoop starts a loop goroutine. Stop must be called to release it.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			stopped := l.stopped
			l.mu.Unlock()
			if stopped {
				return
			}
			<-l.wake
			continue
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("widget callback panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Post enqueues fn without waiting. It reports false if the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from a loop callback.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Stop discards pending callbacks and ends the loop after the running one,
// if any, returns. It does not wait; see Done.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} { return l.done }
