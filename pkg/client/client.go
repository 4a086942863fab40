// Package client provides the Web3 Shield API client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/web3shield/shield-sdk/pkg/audit"
	"github.com/web3shield/shield-sdk/pkg/core"
	"github.com/web3shield/shield-sdk/pkg/errors"
)

// API paths. The free and pro scan endpoints take the same request body and
// differ only in analysis depth and entitlement checks server-side.
const (
	pathScanFree    = "/scan/free"
	pathScanPro     = "/scan/pro"
	pathAudit       = "/audit"
	pathGeneratePDF = "/generate-pdf"
	pathCredits     = "/credits"
)

// Client is the Web3 Shield API client. Scan calls are single-attempt:
// scans are short-lived and the caller surfaces failures to the user
// directly, so there is no retry loop here.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     core.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`

	// Rate limiting for outbound calls. Zero disables it.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// DefaultConfig returns default client config.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           60 * time.Second,
		UserAgent:         "shield-sdk/1.0",
		RequestsPerSecond: 5,
		Burst:             5,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := core.NewValidator()
	v.Required("base_url", c.BaseURL)
	v.URL("base_url", c.BaseURL)
	v.MinDuration("timeout", c.Timeout, time.Second)
	return v.Validate()
}

// New creates a new Web3 Shield API client.
func New(cfg *Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "shield-sdk/1.0"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst == 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     core.NopLogger{},
	}
}

// Option is a function that configures the client.
type Option func(*Client)

// NewWithOptions creates a new client using functional options.
// Example:
//
//	client := client.NewWithOptions(
//	    client.WithBaseURL("https://api.web3shield.io"),
//	    client.WithTimeout(30 * time.Second),
//	)
func NewWithOptions(opts ...Option) *Client {
	c := New(DefaultConfig())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l core.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRateLimit sets the outbound request rate. A non-positive rps disables
// limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Scan submits an address for analysis. Quick mode hits the free endpoint,
// deep mode the pro one. A 402 response surfaces as a payment-required
// error; any other non-2xx response carries the server's detail message.
func (c *Client) Scan(ctx context.Context, mode audit.Mode, req audit.ScanRequest) (*audit.ScanResult, error) {
	const op = "client.Scan"

	if !mode.Valid() {
		return nil, errors.E(op, errors.KindValidation, fmt.Sprintf("unknown scan mode %q", mode))
	}

	path := pathScanFree
	if mode == audit.ModeDeep {
		path = pathScanPro
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.E(op, errors.KindInternal, "marshal scan request", err)
	}

	c.logger.Debug("scan %s -> %s", req.Address, path)

	data, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, errors.E(op, err)
	}

	var result audit.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.E(op, errors.KindServer, "unmarshal scan response", err)
	}
	return &result, nil
}

// Credits fetches the user's remaining deep-scan balance.
func (c *Client) Credits(ctx context.Context, userID string) (int, error) {
	const op = "client.Credits"

	if userID == "" {
		return 0, errors.E(op, errors.KindValidation, "user id is required")
	}

	data, err := c.doRequest(ctx, http.MethodGet, pathCredits+"/"+userID, nil)
	if err != nil {
		return 0, errors.E(op, err)
	}

	var resp struct {
		Credits int `json:"credits"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, errors.E(op, errors.KindServer, "unmarshal credits response", err)
	}
	return resp.Credits, nil
}

// AuditAddress runs the lightweight one-shot audit used by the browser
// extension. It needs no session and returns a compact risk summary.
func (c *Client) AuditAddress(ctx context.Context, address string) (*audit.ExtensionReport, error) {
	const op = "client.AuditAddress"

	body, err := json.Marshal(map[string]string{"address": address})
	if err != nil {
		return nil, errors.E(op, errors.KindInternal, err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, pathAudit, body)
	if err != nil {
		return nil, errors.E(op, err)
	}

	var report audit.ExtensionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.E(op, errors.KindServer, "unmarshal audit response", err)
	}
	return &report, nil
}

// DownloadReport renders the PDF report server-side and returns the raw
// bytes. The payload is opaque to the client; callers write it out as-is.
func (c *Client) DownloadReport(ctx context.Context, req audit.DownloadRequest) ([]byte, error) {
	const op = "client.DownloadReport"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.E(op, errors.KindInternal, "marshal download request", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, pathGeneratePDF, body)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return data, nil
}

// doRequest performs a single HTTP request against the API. There is no
// retry loop; the one scheduled retry in this SDK lives in the entitlement
// manager's credit refresh.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.E(errors.KindTransport, "rate limiter", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.E(errors.KindInternal, "create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.E(errors.KindTransport, "http request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.E(errors.KindTransport, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

// apiError maps a non-2xx response to a typed error. The server reports
// failures as {"detail": "..."} and that message is surfaced verbatim.
func apiError(status int, body []byte) error {
	apiErr := &errors.APIError{StatusCode: status}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	}

	if status == http.StatusPaymentRequired {
		return errors.E(errors.KindPayment, apiErr)
	}
	return errors.E(errors.KindServer, apiErr)
}
