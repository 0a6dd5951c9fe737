// Package mealdb is a read-only client for TheMealDB JSON API.
package mealdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"recipebox/metrics"
	"recipebox/models"
)

const (
	DefaultBaseURL       = "https://www.themealdb.com/api/json/v1/1"
	defaultTimeout       = 15 * time.Second
	defaultRetryElapsed  = 10 * time.Second
	defaultRatePerSecond = 5
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetryMaxElapsed bounds the time spent retrying transient failures.
// Zero disables retries.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) { c.maxElapsed = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:    rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultRatePerSecond),
		maxElapsed: defaultRetryElapsed,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type mealsEnvelope struct {
	Meals []models.Recipe `json:"meals"`
}

type categoriesEnvelope struct {
	Categories []models.Category `json:"categories"`
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var env categoriesEnvelope
	if err := c.get(ctx, "categories", "/categories.php", nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Categories), nil
}

// SearchRecipes searches meals by name. An empty query lists the default set.
func (c *Client) SearchRecipes(ctx context.Context, query string) ([]models.Recipe, error) {
	var env mealsEnvelope
	params := url.Values{"s": {strings.TrimSpace(query)}}
	if err := c.get(ctx, "search", "/search.php", params, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Meals), nil
}

// FilterByCategory lists the meals in a category. Filter results carry only
// the ID, name and thumbnail.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]models.Recipe, error) {
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("category is required")
	}
	var env mealsEnvelope
	params := url.Values{"c": {strings.TrimSpace(category)}}
	if err := c.get(ctx, "filter", "/filter.php", params, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Meals), nil
}

// GetRecipeByID looks up a full meal record. It returns nil, nil when the
// catalog has no such meal.
func (c *Client) GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("recipe id is required")
	}
	var env mealsEnvelope
	params := url.Values{"i": {strings.TrimSpace(id)}}
	if err := c.get(ctx, "lookup", "/lookup.php", params, &env); err != nil {
		return nil, err
	}
	if len(env.Meals) == 0 {
		return nil, nil
	}
	r := env.Meals[0]
	return &r, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := c.do(ctx, target, out)
		if err == nil {
			return nil
		}
		if isRetryable(ctx, err) {
			c.logger.Debug("retrying recipe api request",
				zap.String("endpoint", endpoint), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx))
	if err != nil {
		c.metrics.IncAPIRequest(endpoint, "error")
		return fmt.Errorf("mealdb %s: %w", endpoint, err)
	}
	c.metrics.IncAPIRequest(endpoint, "ok")
	return nil
}

func (c *Client) newBackoff() backoff.BackOff {
	if c.maxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = c.maxElapsed
	return bo
}

func (c *Client) do(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var decErr *decodeError
	if errors.As(err, &decErr) {
		return false
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	// Transport-level failures: connection refused, resets, timeouts.
	return true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
