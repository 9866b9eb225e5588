// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/sonnibytes/aura-github-sync/internal/cache"
	apperrors "github.com/sonnibytes/aura-github-sync/internal/errors"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "aura-github-sync"
	acceptHeader     = "application/vnd.github.v3+json"
)

// Config holds the knobs for the API client. Everything that used to be
// ambient (base URL, token, timeout, cache TTL) is passed in explicitly.
type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client issues authenticated requests against the GitHub REST API with a
// response cache in front. All JSON GET traffic funnels through request;
// the conditional weekly-activity fetch bypasses the cache because the ETag
// protocol is its freshness mechanism.
type Client struct {
	rest     *resty.Client
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewClient creates and configures a Client. An empty token yields an
// unauthenticated client (useful against test servers); otherwise the token
// is attached via an oauth2 transport as "Authorization: token <TOKEN>".
func NewClient(cfg Config, c cache.Cache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	hc := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "token"})
		hc = oauth2.NewClient(context.Background(), ts)
	}

	rest := resty.NewWithClient(hc).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", acceptHeader).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Client{
		rest:     rest,
		cache:    c,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}
}

// request performs a cache-checked GET against endpoint and returns the raw
// JSON body. On a cache hit no network call is made. A 403 with the rate
// limit exhausted surfaces as *errors.RateLimitError so callers can abort
// the batch; every other failure is a generic *errors.APIError.
func (c *Client) request(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	key := cache.BuildKey(endpoint, params)

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		c.logger.Info("github cache hit", "endpoint", endpoint)
		return json.RawMessage(data), nil
	}

	c.logger.Info("github request", "endpoint", endpoint)

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return nil, &apperrors.APIError{Endpoint: endpoint, Err: err}
	}

	if err := checkRateLimit(endpoint, resp); err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &apperrors.APIError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}

	body := resp.Body()
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		c.logger.Warn("github cache write failed", "endpoint", endpoint, "error", err)
	}

	return json.RawMessage(body), nil
}

// get runs request and unmarshals the body into out.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	raw, err := c.request(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apperrors.APIError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func checkRateLimit(endpoint string, resp *resty.Response) error {
	if resp.StatusCode() != http.StatusForbidden {
		return nil
	}
	if resp.Header().Get("X-RateLimit-Remaining") != "0" {
		return nil
	}
	var resetAt time.Time
	if ts, err := strconv.ParseInt(resp.Header().Get("X-RateLimit-Reset"), 10, 64); err == nil {
		resetAt = time.Unix(ts, 0)
	}
	return &apperrors.RateLimitError{Endpoint: endpoint, ResetAt: resetAt}
}
