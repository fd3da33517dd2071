// Package clients provides the HTTP client used to talk to the Admin API and to
// download connector packages.
package clients

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/metrics"
	"github.com/ajitpratap0/nebula-io/pkg/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// RequestIDHeader carries a per-request id for correlating CLI and server logs.
const RequestIDHeader = "X-Request-Id"

// HTTPClient wraps net/http with TLS trust settings, authentication, request
// ids, trace propagation and request metrics.
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport

	auth    Authenticator
	metrics *metrics.Collector
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`

	// HTTP/2 settings
	EnableHTTP2 bool `json:"enable_http2"`

	// Timeouts
	DialTimeout         time.Duration `json:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout"`
	RequestTimeout      time.Duration `json:"request_timeout"`
	KeepAlive           time.Duration `json:"keep_alive"`

	// TLS settings
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	TLSMinVersion      uint16 `json:"tls_min_version"`
	// TrustCertPath is a PEM bundle added to the system roots
	TrustCertPath string `json:"trust_cert_path"`

	UserAgent string `json:"user_agent"`
}

// DefaultHTTPConfig returns the default configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		EnableHTTP2:         true,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		RequestTimeout:      30 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSMinVersion:       tls.VersionTLS12,
		UserAgent:           "nebula-io/1.0",
	}
}

// HTTPConfigFromClient derives the HTTP settings from the CLI client settings.
func HTTPConfigFromClient(c *config.ClientConfig) *HTTPConfig {
	cfg := DefaultHTTPConfig()
	if c == nil {
		return cfg
	}
	if c.RequestTimeout > 0 {
		cfg.RequestTimeout = c.RequestTimeout
	}
	cfg.InsecureSkipVerify = c.TLSAllowInsecure
	cfg.TrustCertPath = c.TLSTrustCertPath
	return cfg
}

// NewHTTPClient creates a new HTTP client. It fails only when the trust
// certificate bundle cannot be loaded.
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) (*HTTPClient, error) {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // operator opt-in via tls_allow_insecure
		MinVersion:         config.TLSMinVersion,
	}
	if config.TrustCertPath != "" {
		pool, err := loadCertPool(config.TrustCertPath)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	client := &HTTPClient{
		config:  config,
		logger:  logger.With(zap.String("component", "http_client")),
		metrics: metrics.Default,
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       tlsConfig,
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return client, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read TLS trust certificates %s: %w", path, err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// SetAuthenticator sets the authenticator applied to every request.
func (c *HTTPClient) SetAuthenticator(auth Authenticator) {
	c.auth = auth
}

// SetMetrics replaces the request metrics collector.
func (c *HTTPClient) SetMetrics(m *metrics.Collector) {
	c.metrics = m
}

// Get performs an HTTP GET request
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post performs an HTTP POST request
func (c *HTTPClient) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Put performs an HTTP PUT request
func (c *HTTPClient) Put(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPut, url, body, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Delete performs an HTTP DELETE request
func (c *HTTPClient) Delete(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, url, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do authenticates and sends req, recording its outcome.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if c.auth != nil {
		if err := c.auth.Apply(req); err != nil {
			return nil, fmt.Errorf("failed to authenticate request: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	c.metrics.RecordRequest(req.Method, code, duration)

	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.String("request_id", req.Header.Get(RequestIDHeader)),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("request complete",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", code),
		zap.Duration("duration", duration))
	return resp, nil
}

// newRequest creates a new HTTP request carrying headers and the trace context of ctx.
func (c *HTTPClient) newRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	trace := make(map[string]string, 2)
	observability.InjectHeaders(ctx, trace)
	for key, value := range trace {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return req, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
