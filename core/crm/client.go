package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client sends requests to the CRM API.
// Send never returns a nil Response; failures are carried inside it.
type Client interface {
	Send(ctx context.Context, method, path string, body any) *Response
}

// Response is the outcome of a request after all attempts.
type Response struct {
	// StatusCode is the HTTP status of the last attempt (0 if no response was received).
	StatusCode int
	// Body is the raw response body of the last attempt.
	Body string
	// Err is set when the last attempt failed before a response was read.
	Err error
	// Attempts is the number of attempts made.
	Attempts int
	// RequestToken is the correlation token of the last attempt.
	RequestToken string
}

// OK reports whether the last attempt returned a 2xx status.
func (r *Response) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Describe renders a failed response for the staging record's response column.
func (r *Response) Describe() string {
	if r.Err != nil {
		return fmt.Sprintf("API error status: %d %s %v", r.StatusCode, r.Body, r.Err)
	}
	return fmt.Sprintf("API error status: %d %s", r.StatusCode, r.Body)
}

// HTTPClient is the retrying Client implementation.
type HTTPClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient creates a client for the configured API.
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	if cfg.RequestTokenHeader == "" {
		cfg.RequestTokenHeader = "MT-Request-Token"
	}

	c := &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
		logger: logger,
		sleep:  sleepContext,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// Send implements Client. The whole request is retried on transport failure or
// any non-2xx status, up to MaxRetries attempts with a fixed delay in between.
func (c *HTTPClient) Send(ctx context.Context, method, path string, body any) *Response {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Response{Err: fmt.Errorf("failed to encode request body: %w", err)}
		}
	}

	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	resp := &Response{}
	for attempt := 1; attempt <= attempts; attempt++ {
		resp = c.attempt(ctx, method, url, payload)
		resp.Attempts = attempt
		if resp.OK() {
			return resp
		}

		c.logger.Warn("CRM request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Int("status", resp.StatusCode),
			zap.String("request_token", resp.RequestToken),
			zap.Error(resp.Err),
		)

		if attempt < attempts {
			if err := c.sleep(ctx, c.cfg.RetryWait); err != nil {
				resp.Err = err
				return resp
			}
		}
	}
	return resp
}

func (c *HTTPClient) attempt(ctx context.Context, method, url string, payload []byte) *Response {
	token := uuid.NewString()
	resp := &Response{RequestToken: token}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			resp.Err = fmt.Errorf("rate limiter: %w", err)
			return resp
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		resp.Err = fmt.Errorf("failed to build request: %w", err)
		return resp
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Token", c.cfg.APIKey)
	req.Header.Set(c.cfg.RequestTokenHeader, token)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		resp.Err = err
		return resp
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(data)
	if err != nil {
		resp.Err = fmt.Errorf("failed to read response body: %w", err)
	}
	return resp
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
