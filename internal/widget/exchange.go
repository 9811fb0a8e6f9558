package widget

import (
	"time"

	"chatwidget/internal/config"
)

// startExchange posts text to the webhook on its own goroutine. The result
// is handed back to the loop exactly once. In queue mode each exchange
// waits for the previous one, so replies arrive in send order; otherwise
// exchanges overlap and complete in whatever order the webhook answers.
func (w *Widget) startExchange(text string) {
	var prev, next chan struct{}
	if w.cfg.Behavior.SendMode == config.SendModeQueue {
		prev = w.tail
		next = make(chan struct{})
		w.tail = next
	}

	w.pending++
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if next != nil {
			defer close(next)
		}
		if prev != nil {
			select {
			case <-prev:
			case <-w.ctx.Done():
				return
			}
		}

		start := time.Now()
		reply, err := w.exchanger.Exchange(w.ctx, text)
		took := time.Since(start)
		if w.ctx.Err() != nil {
			return
		}
		w.loop.Post(func() { w.complete(text, reply, err, took) })
	}()
}
