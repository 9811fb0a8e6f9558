// Package browser drives headless Chrome against a served widget page to
// produce screenshots.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// PreviewConfig configures Preview.
type PreviewConfig struct {
	ExecPath string // Chrome binary, empty to let chromedp find one
	Headless bool
	Width    int
	Height   int
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Preview takes screenshots of a page hosting the widget.
type Preview struct {
	cfg    PreviewConfig
	logger *slog.Logger
}

// Shot describes what to do on the page before capturing it.
type Shot struct {
	Open    bool   // click the toggle first
	Message string // type and send this message, then wait for the reply
}

func NewPreview(cfg PreviewConfig) *Preview {
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 800
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Preview{cfg: cfg, logger: cfg.Logger}
}

func (p *Preview) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(p.cfg.Width, p.cfg.Height),
	)
	if p.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ExecPath))
	}
	if !p.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	return opts
}

// NewContext creates a chromedp context. The caller must call cancel.
func (p *Preview) NewContext(parent context.Context) (context.Context, context.CancelFunc) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, p.allocatorOptions()...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	return taskCtx, func() {
		taskCancel()
		allocCancel()
	}
}

// Selector returns the CSS selector of a widget element ref.
func Selector(ref string) string {
	return fmt.Sprintf(`[data-cw-ref=%q]`, ref)
}

// actions lists the steps for shot, ending with a screenshot into buf.
func actions(url string, shot Shot, buf *[]byte) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitVisible(Selector("toggle"), chromedp.ByQuery),
	}
	if shot.Open || shot.Message != "" {
		tasks = append(tasks,
			chromedp.Click(Selector("toggle"), chromedp.ByQuery),
			chromedp.WaitVisible(".cw-panel.open", chromedp.ByQuery),
		)
	}
	if shot.Message != "" {
		tasks = append(tasks,
			chromedp.SendKeys(Selector("input"), shot.Message, chromedp.ByQuery),
			chromedp.Click(Selector("send"), chromedp.ByQuery),
			chromedp.WaitVisible(".cw-message.user + .cw-message.bot", chromedp.ByQuery),
		)
	}
	// Let the panel transition finish.
	tasks = append(tasks, chromedp.Sleep(400*time.Millisecond), chromedp.FullScreenshot(buf, 90))
	return tasks
}

// Capture loads url, performs shot and returns a PNG screenshot.
func (p *Preview) Capture(ctx context.Context, url string, shot Shot) ([]byte, error) {
	taskCtx, cancel := p.NewContext(ctx)
	defer cancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, p.cfg.Timeout)
	defer timeoutCancel()

	p.logger.Info("capturing preview", "url", url, "open", shot.Open, "message", shot.Message != "")

	var buf []byte
	if err := chromedp.Run(taskCtx, actions(url, shot, &buf)); err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	return buf, nil
}
