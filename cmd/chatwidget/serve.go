package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chatwidget/internal/config"
	"chatwidget/internal/events"
	"chatwidget/internal/metrics"
	"chatwidget/internal/server"
	"chatwidget/internal/transcript"
	"chatwidget/internal/webhook"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		mockAddr string
		dbPath   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host a page with the widget mounted",
		Long: `Serves a page carrying the widget. Each visitor gets their own widget
instance; browser events are forwarded to it and the re-rendered widget is
pushed back over Server-Sent Events. Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if addr != "" {
				s.Addr = addr
			}
			if mockAddr != "" {
				s.MockWebhookAddr = mockAddr
			}
			if dbPath != "" {
				s.TranscriptDB = dbPath
			}
			return runServe(s)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default: $CHATWIDGET_ADDR)")
	cmd.Flags().StringVar(&mockAddr, "mock-webhook", "", "also run the mock webhook on this address")
	cmd.Flags().StringVar(&dbPath, "transcript-db", "", "record exchanges in this SQLite file")
	return cmd
}

func runServe(s config.Settings) error {
	cfg, err := loadWidget(s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(logger)

	if s.TranscriptDB != "" {
		store, err := transcript.Open(config.ExpandPath(s.TranscriptDB), logger)
		if err != nil {
			return fmt.Errorf("transcript store: %w", err)
		}
		defer store.Close()
		store.Attach(bus)
	}

	var collector *metrics.Collector
	if s.Metrics {
		collector = metrics.New()
	}

	srv, err := server.New(server.Config{
		Addr:       s.Addr,
		Widget:     cfg,
		Bus:        bus,
		Metrics:    collector,
		SessionTTL: s.SessionTTL,
		EventRate:  s.EventRate,
		Version:    version,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.MockWebhookAddr != "" {
		mock := webhook.NewMock(webhook.MockConfig{Secret: cfg.Webhook.Secret, Logger: logger})
		g.Go(func() error { return mock.ListenAndServe(gctx, s.MockWebhookAddr) })
	}
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}

func mockWebhookCmd() *cobra.Command {
	var (
		addr   string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "mock-webhook",
		Short: "Run a webhook that echoes every message",
		Long:  `Answers POST /webhook with {"reply": "You said: **<message>**"}. Useful while developing a widget page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			mock := webhook.NewMock(webhook.MockConfig{Secret: secret, Logger: logger})
			return mock.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8081", "listen address")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("CHATWIDGET_WEBHOOK_SECRET"), "require requests signed with this secret")
	return cmd
}
