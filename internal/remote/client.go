package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"boardgame/internal/config"
)

const maxBodyExcerpt = 200

// Client downloads match logs published over HTTP(S), such as a raw GitHub
// link to an xlsx file.
type Client struct {
	httpClient  *http.Client
	limiter     *RateLimiter
	maxAttempts int
	baseBackoff time.Duration
	logger      *log.Logger
}

func NewClient(cfg config.Config, logger *log.Logger) *Client {
	attempts := cfg.HTTPMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
		limiter:     NewRateLimiter(cfg.HTTPRateLimitRPS),
		maxAttempts: attempts,
		baseBackoff: 250 * time.Millisecond,
		logger:      logger,
	}
}

// IsURL reports whether source should be fetched over HTTP.
func IsURL(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Download fetches rawURL, retrying transport errors and retryable statuses
// with exponential backoff.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if !IsURL(rawURL) {
		return nil, fmt.Errorf("not an http(s) url: %s", rawURL)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "*/*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.retryWait(ctx, attempt, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			c.retryWait(ctx, attempt, readErr)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := fmt.Errorf("download status=%d body=%s", resp.StatusCode, excerpt(body))
			if isRetryableStatus(resp.StatusCode) {
				lastErr = statusErr
				c.retryWait(ctx, attempt, statusErr)
				continue
			}
			return nil, statusErr
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("download failed")
	}
	return nil, fmt.Errorf("download %s after %d attempt(s): %w", rawURL, c.maxAttempts, lastErr)
}

func (c *Client) retryWait(ctx context.Context, attempt int, cause error) {
	if attempt >= c.maxAttempts {
		return
	}
	backoff := c.baseBackoff*time.Duration(1<<(attempt-1)) + time.Duration(rand.Intn(100))*time.Millisecond
	if c.logger != nil {
		c.logger.Warn("download retry", "attempt", attempt, "backoff", backoff, "err", cause)
	}
	_ = sleepCtx(ctx, backoff)
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodyExcerpt {
		return s[:maxBodyExcerpt] + "..."
	}
	return s
}
