package crm

import "time"

// Config holds configuration for the CRM API client.
type Config struct {
	// BaseURL is the API root, e.g. https://account.api-us1.com/api/3.
	BaseURL string `mapstructure:"base_url" default:""`
	// APIKey is sent in the Api-Token header.
	APIKey string `mapstructure:"api_key" default:""`
	// ConnectionID scopes customers and orders to one e-commerce connection.
	ConnectionID string `mapstructure:"connection_id" default:""`
	// MaxRetries is the number of attempts per request. Values below 1 mean one attempt.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// RetryWait is the fixed delay between attempts.
	RetryWait time.Duration `mapstructure:"retry_wait" default:"3s"`
	// TimeoutSeconds bounds each individual attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// RateLimit is the maximum number of requests per second (0 disables limiting).
	RateLimit float64 `mapstructure:"rate_limit" default:"5"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"ecomm-sync/1.0"`
	// RequestTokenHeader carries the per-attempt correlation token.
	RequestTokenHeader string `mapstructure:"request_token_header" default:"MT-Request-Token"`
}
