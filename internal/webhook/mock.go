package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MockConfig configures the development webhook.
type MockConfig struct {
	Secret string // when set, requests must carry a valid signature
	Logger *slog.Logger
}

// Mock is a stand-in webhook for local development. It answers every
// message with an echo rendered in bold.
type Mock struct {
	secret string
	logger *slog.Logger
}

// NewMock creates a mock webhook handler.
func NewMock(cfg MockConfig) *Mock {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Mock{secret: cfg.Secret, logger: cfg.Logger}
}

func (m *Mock) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}

	if m.secret != "" {
		sig := r.Header.Get(SignatureHeader)
		if sig == "" {
			http.Error(rw, "Missing signature", http.StatusUnauthorized)
			return
		}
		if !Verify(body, m.secret, sig) {
			http.Error(rw, "Invalid signature", http.StatusForbidden)
			return
		}
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(rw, "message is required", http.StatusBadRequest)
		return
	}

	m.logger.Info("mock webhook received", "message_len", len(req.Message))

	reply := "You said: **" + req.Message + "**"
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(Response{Reply: &reply})
}

// ListenAndServe serves the mock on addr until ctx is cancelled.
func (m *Mock) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/webhook", m)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	m.logger.Info("mock webhook starting", "addr", addr, "path", "/webhook")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		m.logger.Info("mock webhook shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("mock webhook: %w", err)
	}
}
