package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/idmclient/pkg/config"
	"github.com/getmockd/idmclient/pkg/identity"
	"github.com/getmockd/idmclient/pkg/logging"
	"github.com/getmockd/idmclient/pkg/metrics"
	"github.com/getmockd/idmclient/pkg/ratelimit"
	"github.com/getmockd/idmclient/pkg/resource"
)

// DefaultUserAgent is sent when WithUserAgent is not used.
const DefaultUserAgent = "idmclient-go"

// Client is the HTTP DataStore for the identity service. It turns hrefs
// into resources and writes resources back.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keyID      string
	keySecret  string
	userAgent  string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cache      *responseCache
	limiter    *ratelimit.Bucket

	cacheSize int
	cacheTTL  time.Duration
}

var _ identity.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey sends id and secret as HTTP basic credentials.
func WithAPIKey(id, secret string) Option {
	return func(c *Client) {
		c.keyID = id
		c.keySecret = secret
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records requests, fetches and cache activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithCache caches up to size GET responses for ttl. Writes through the
// client evict the affected entries.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithRateLimit paces requests to rate per second, allowing bursts of
// burst requests. A non-positive burst means max(rate, 1); a non-positive
// rate disables pacing.
func WithRateLimit(rate float64, burst int) Option {
	return func(c *Client) {
		if rate <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = ratelimit.NewBucket(rate, burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the service at baseURL. Relative hrefs are
// resolved against it.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.DefaultTimeout,
		},
		userAgent: DefaultUserAgent,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize > 0 {
		c.cache = newResponseCache(c.cacheSize, c.cacheTTL, c.metrics)
	}
	return c
}

// NewFromConfig validates cfg and creates a client from it. opts are
// applied after the options derived from cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.ResolveAPIKey(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{WithTimeout(cfg.Timeout)}
	if cfg.APIKeyID != "" {
		base = append(base, WithAPIKey(cfg.APIKeyID, cfg.APIKeySecret))
	}
	if cfg.CacheSize > 0 {
		base = append(base, WithCache(cfg.CacheSize, cfg.CacheTTL))
	}
	if cfg.RateLimit > 0 {
		base = append(base, WithRateLimit(cfg.RateLimit, 0))
	}
	return New(cfg.BaseURL, append(base, opts...)...), nil
}

// BaseURL returns the URL relative hrefs resolve against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Instantiate builds a resource of kind without contacting the service.
func (c *Client) Instantiate(kind resource.Kind, props map[string]any) (resource.Resource, error) {
	return identity.New(c, kind, props)
}

// GetResource fetches href and returns it as a materialized resource of kind.
func (c *Client) GetResource(ctx context.Context, href string, kind resource.Kind) (resource.Resource, error) {
	props, err := c.getJSON(ctx, href)
	c.metrics.ObserveMaterialization(kind.String(), err)
	if err != nil {
		return nil, err
	}
	return identity.New(c, kind, props)
}

// CurrentTenant returns the tenant that owns the client's API key.
func (c *Client) CurrentTenant(ctx context.Context) (*identity.Tenant, error) {
	r, err := c.GetResource(ctx, identity.CurrentTenantHref, identity.KindTenant)
	if err != nil {
		return nil, err
	}
	return r.(*identity.Tenant), nil
}

// Create posts r to the collection at parentHref and replaces r's
// properties with the created resource.
func (c *Client) Create(ctx context.Context, parentHref string, r resource.Resource, query url.Values) error {
	target := c.resolve(parentHref)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	props, err := c.send(ctx, http.MethodPost, target, r.Properties())
	if err != nil {
		return err
	}
	c.cache.invalidate(c.resolve(parentHref))
	r.SetProperties(props)
	return nil
}

// Save posts r's properties to its href and replaces them with the response.
func (c *Client) Save(ctx context.Context, r resource.Resource) error {
	href := r.Href()
	if href == "" {
		return resource.ErrNewResource
	}

	props, err := c.send(ctx, http.MethodPost, c.resolve(href), r.Properties())
	if err != nil {
		return err
	}
	c.cache.invalidate(c.resolve(href))
	r.SetProperties(props)
	return nil
}

// Delete removes r from the service.
func (c *Client) Delete(ctx context.Context, r resource.Resource) error {
	href := r.Href()
	if href == "" {
		return resource.ErrNewResource
	}

	resp, err := c.do(ctx, http.MethodDelete, c.resolve(href), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	c.cache.invalidate(c.resolve(href))
	return nil
}

// resolve makes href absolute. Absolute hrefs pass through.
func (c *Client) resolve(href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	return c.baseURL + "/" + strings.TrimPrefix(href, "/")
}

func (c *Client) getJSON(ctx context.Context, href string) (map[string]any, error) {
	target := c.resolve(href)
	if body, ok := c.cache.get(target); ok {
		return decodeProps(bytes.NewReader(body))
	}

	resp, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	props, err := decodeProps(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", target, err)
	}
	c.cache.add(target, body)
	return props, nil
}

func (c *Client) send(ctx context.Context, method, target string, props map[string]any) (map[string]any, error) {
	resp, err := c.do(ctx, method, target, props)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, parseError(resp)
	}
	out, err := decodeProps(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, body map[string]any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Debug("rate limited", "method", method, "href", target, "available", c.limiter.Available())
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.keyID != "" {
		req.SetBasicAuth(c.keyID, c.keySecret)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, elapsed)
		c.logger.Warn("identity request failed", "method", method, "href", target, "requestId", requestID, "error", err)
		return nil, err
	}

	c.metrics.ObserveRequest(method, resp.StatusCode, elapsed)
	level := slog.LevelDebug
	if resp.StatusCode >= http.StatusBadRequest {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "identity request",
		"method", method,
		"href", target,
		"status", resp.StatusCode,
		"duration", elapsed,
		"requestId", requestID,
	)
	return resp, nil
}

func decodeProps(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, err
	}
	return props, nil
}
