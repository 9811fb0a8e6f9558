package webhook

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// doWithRetry executes a request, retrying network failures, 5xx and 429
// with exponential backoff and jitter. When retries run out on a retryable
// status the last response is returned for the caller to classify.
func (c *Client) doWithRetry(ctx context.Context, buildReq func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			base := time.Duration(attempt*attempt) * c.backoff
			jitter := time.Duration(rand.Int64N(int64(base/2 + 1)))
			wait := base + jitter
			c.logger.Warn("retrying webhook request", "attempt", attempt+1, "backoff", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt < c.retries && ctx.Err() == nil {
				c.logger.Warn("webhook request failed, will retry", "error", err)
				continue
			}
			return nil, err
		}

		if retryableStatus(resp.StatusCode) && attempt < c.retries {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
			resp.Body.Close()
			c.logger.Warn("webhook server error, will retry", "status", resp.StatusCode)
			continue
		}
		return resp, nil
	}
}
