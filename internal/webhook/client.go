// Package webhook implements the message exchange with the host's webhook:
// one JSON POST per user message, answered with a JSON reply.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// SignatureHeader carries the HMAC-SHA256 of the request body when a
	// secret is configured.
	SignatureHeader = "X-Signature-256"

	maxResponseBytes = 1 << 20
	defaultBackoff   = 500 * time.Millisecond
)

// Request is the body posted for every user message.
type Request struct {
	Message string `json:"message"`
}

// Response is the body a webhook answers with. Reply is a pointer so a
// missing field can be told apart from an empty reply.
type Response struct {
	Reply *string `json:"reply"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	URL        string
	Secret     string        // optional HMAC secret
	Timeout    time.Duration // per exchange, 0 means none
	Retries    int
	Backoff    time.Duration // base retry delay, default 500ms
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client posts messages to one webhook URL. It is safe for concurrent use.
type Client struct {
	url     string
	secret  string
	timeout time.Duration
	retries int
	backoff time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a webhook client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = NewHTTPClient()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Client{
		url:     cfg.URL,
		secret:  cfg.Secret,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		backoff: cfg.Backoff,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
}

// URL returns the webhook endpoint.
func (c *Client) URL() string { return c.url }

// Exchange posts message and returns the reply text. Failures are a
// *NetworkError or a *ResponseFormatError.
func (c *Client) Exchange(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(Request{Message: message})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.secret != "" {
			req.Header.Set(SignatureHeader, Sign(body, c.secret))
		}
		return req, nil
	})
	if err != nil {
		return "", &NetworkError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &NetworkError{URL: c.url, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("webhook exchange", "status", resp.StatusCode, "duration", time.Since(start), "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ResponseFormatError{Status: resp.StatusCode, Reason: "non-success status"}
	}
	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &ResponseFormatError{Status: resp.StatusCode, Reason: "invalid json", Err: err}
	}
	if out.Reply == nil {
		return "", &ResponseFormatError{Status: resp.StatusCode, Reason: "missing reply"}
	}
	return *out.Reply, nil
}

// Sign returns the signature header value for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(body []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}
