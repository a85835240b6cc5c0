// Package catalog reads products from the remote catalog service. Every call is a single
// best-effort request: failures are logged and degrade to empty results.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/krislybeauty/storefront/pkg/config"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/logger"
)

const (
	defaultBaseURL              = "http://localhost:8000/api"
	defaultTimeout              = 10 * time.Second
	DefaultFeaturedLimit        = 6
	responseBodyReadLimit int64 = 1 << 20
	errorBodyReadLimit    int64 = 1024
)

type FeaturedCriteria string

const (
	CriteriaFeatured FeaturedCriteria = "featured"
	CriteriaRating   FeaturedCriteria = "rating"
	CriteriaSales    FeaturedCriteria = "sales"
)

// ParseCriteria maps user input onto a criterion, defaulting to featured.
func ParseCriteria(raw string) FeaturedCriteria {
	switch c := FeaturedCriteria(strings.ToLower(strings.TrimSpace(raw))); c {
	case CriteriaRating, CriteriaSales:
		return c
	default:
		return CriteriaFeatured
	}
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	cb         *gobreaker.CircuitBreaker
	logg       *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each catalog call, breaker included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(cfg config.BreakerConfig) Option {
	return func(c *Client) {
		c.cb = newBreaker(cfg, c.logg)
	}
}

// NewClient builds a catalog client rooted at baseURL (e.g. http://host/api).
func NewClient(baseURL string, logg *logger.Logger, opts ...Option) *Client {
	if logg == nil {
		logg = logger.Nop()
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logg:       logg,
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	client.cb = newBreaker(config.BreakerConfig{}, logg)
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

func newBreaker(cfg config.BreakerConfig, logg *logger.Logger) *gobreaker.CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 5
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CatalogService",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsCode(err, pkgerrors.CodeNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logg != nil {
				logg.Warn(context.Background(), fmt.Sprintf("catalog.breaker_state_changed %s: %s -> %s", name, from, to))
			}
		},
	})
}

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}

// List returns every product, or nil when the catalog is unavailable.
func (c *Client) List(ctx context.Context) []Product {
	raw, err := c.get(ctx, "/products")
	if err != nil {
		c.logg.WarnErr(ctx, "catalog.list_failed", err)
		return nil
	}
	products, err := decodeProductList(raw)
	if err != nil {
		c.logg.WarnErr(ctx, "catalog.list_decode_failed", err)
		return nil
	}
	return products
}

// Get returns the product with id. ok is false when it does not exist or cannot be fetched.
func (c *Client) Get(ctx context.Context, id int64) (*Product, bool) {
	if id <= 0 {
		return nil, false
	}
	raw, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10))
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			c.logg.WarnErr(ctx, "catalog.get_failed", err)
		}
		return nil, false
	}
	product, err := decodeProduct(raw)
	if err != nil {
		c.logg.WarnErr(ctx, "catalog.get_decode_failed", err)
		return nil, false
	}
	return &product, true
}

// ByCategory lists products and keeps those in category.
func (c *Client) ByCategory(ctx context.Context, category Category) []Product {
	return FilterByCategory(c.List(ctx), category)
}

// Featured passes criteria and limit through to the catalog service; ranking is its concern.
func (c *Client) Featured(ctx context.Context, criteria FeaturedCriteria, limit int) []Product {
	criteria = ParseCriteria(string(criteria))
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	query := url.Values{}
	query.Set("criteria", string(criteria))
	query.Set("limit", strconv.Itoa(limit))

	raw, err := c.get(ctx, "/products/featured/by-criteria?"+query.Encode())
	if err != nil {
		c.logg.WarnErr(ctx, "catalog.featured_failed", err)
		return nil
	}
	products, err := decodeProductList(raw)
	if err != nil {
		c.logg.WarnErr(ctx, "catalog.featured_decode_failed", err)
		return nil
	}
	return products
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.doGet(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read catalog response")
	}
	return body, nil
}
