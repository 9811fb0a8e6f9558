package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatwidget/internal/browser"

	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	var (
		url      string
		output   string
		open     bool
		message  string
		chrome   string
		headful  bool
		width    int
		height   int
		deadline time.Duration
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Screenshot a served widget page in headless Chrome",
		Long: `Loads a page hosting the widget (by default the one 'chatwidget serve'
is serving) and saves a PNG screenshot. --open clicks the toggle first;
--message also sends a message and waits for the reply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				s, err := loadSettings()
				if err != nil {
					return err
				}
				url = "http://" + s.Addr + "/"
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := browser.NewPreview(browser.PreviewConfig{
				ExecPath: chrome,
				Headless: !headful,
				Width:    width,
				Height:   height,
				Timeout:  deadline,
				Logger:   logger,
			})
			png, err := p.Capture(ctx, url, browser.Shot{Open: open, Message: message})
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("write screenshot: %w", err)
			}
			logger.Info("preview saved", "file", output, "bytes", len(png))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "page to load (default: http://$CHATWIDGET_ADDR/)")
	cmd.Flags().StringVarP(&output, "output", "o", "widget.png", "PNG file to write")
	cmd.Flags().BoolVar(&open, "open", false, "open the panel before capturing")
	cmd.Flags().StringVarP(&message, "message", "m", "", "send this message before capturing")
	cmd.Flags().StringVar(&chrome, "chrome", "", "Chrome executable (default: search PATH)")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	cmd.Flags().IntVar(&width, "width", 1280, "viewport width")
	cmd.Flags().IntVar(&height, "height", 800, "viewport height")
	cmd.Flags().DurationVar(&deadline, "timeout", 30*time.Second, "give up after this long")
	return cmd
}
