// Package eshop implements the integration.Dispatcher contract against the
// remote e-shop REST API.
package eshop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/symmy/integrator/internal/domain/integration"
)

const (
	// DefaultBaseURL is the production e-shop API endpoint.
	DefaultBaseURL = "https://api.fake-eshop.cz/v1"

	defaultMaxRetries = 5
	defaultBaseDelay  = time.Second
	defaultTimeout    = 30 * time.Second
)

var (
	ErrConfigMissingAPIKey = errors.New("eshop: missing API key")
	ErrConfigInvalidRetry  = errors.New("eshop: max retries must be positive")
)

// Config holds client configuration. All values come from the process
// configuration at startup; the client reads no ambient settings.
type Config struct {
	BaseURL    string
	APIKey     string
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.MaxRetries < 0 {
		return ErrConfigInvalidRetry
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

// Client dispatches product payloads to the e-shop API.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger

	sleep func(time.Duration) // injected for tests
}

// NewClient creates an e-shop client with the given configuration.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		sleep:  time.Sleep,
	}, nil
}

// Session is a per-run dispatch channel. The auth headers are assembled once
// when the session is opened and reused for every request in the run.
type Session struct {
	client  *Client
	headers http.Header
}

// NewSession establishes the per-run authentication headers.
func (c *Client) NewSession(ctx context.Context) (integration.Session, error) {
	headers := make(http.Header)
	headers.Set("X-Api-Key", c.config.APIKey)
	headers.Set("Content-Type", "application/json")
	return &Session{client: c, headers: headers}, nil
}

// Send delivers one payload: POST {base}/products/ for a create, PATCH
// {base}/products/{sku}/ for an update.
//
// HTTP 429 is the only retried condition. On 429 the client waits
// max(Retry-After, BaseDelay*2^attempt) and retries, up to MaxRetries
// attempts; exhaustion fails with ErrRateLimitExhausted. Any other non-2xx
// status fails immediately with ErrRequestFailed carrying the status, and
// transport-level failures fail immediately with ErrEshopUnreachable.
func (s *Session) Send(ctx context.Context, payload integration.Payload, isUpdate bool) (*integration.SendResult, error) {
	c := s.client
	sku := payload.SKU

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("eshop: encode payload for %s: %w", sku, err)
	}

	method := http.MethodPost
	url := c.config.BaseURL + "/products/"
	if isUpdate {
		method = http.MethodPatch
		url = c.config.BaseURL + "/products/" + sku + "/"
	}

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("eshop: build request for %s: %w", sku, err)
		}
		req.Header = s.headers.Clone()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", integration.ErrEshopUnreachable, sku, err)
		}
		retryAfter := resp.Header.Get("Retry-After")
		status := resp.StatusCode
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if status == http.StatusTooManyRequests {
			delay := c.backoffDelay(retryAfter, attempt)
			c.logger.Warn("Rate limited by e-shop API",
				zap.String("sku", sku),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.config.MaxRetries),
				zap.Duration("delay", delay),
			)
			c.sleep(delay)
			continue
		}

		if status >= 200 && status < 300 {
			return &integration.SendResult{StatusCode: status, Attempts: attempt + 1}, nil
		}

		return nil, fmt.Errorf("%w: HTTP %d for %s", integration.ErrRequestFailed, status, sku)
	}

	return nil, fmt.Errorf("%w: rate limit exceeded after %d retries for %s",
		integration.ErrRateLimitExhausted, c.config.MaxRetries, sku)
}

// backoffDelay computes the wait before the next attempt: the larger of the
// server's Retry-After hint (seconds) and the exponential term
// BaseDelay*2^attempt.
func (c *Client) backoffDelay(retryAfter string, attempt int) time.Duration {
	exponential := c.config.BaseDelay * time.Duration(1<<attempt)

	if retryAfter = strings.TrimSpace(retryAfter); retryAfter != "" {
		if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil {
			hinted := time.Duration(seconds * float64(time.Second))
			if hinted > exponential {
				return hinted
			}
		}
	}
	return exponential
}

var _ integration.Dispatcher = (*Client)(nil)
var _ integration.Session = (*Session)(nil)
