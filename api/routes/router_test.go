package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/krislybeauty/storefront/internal/checkout"
	"github.com/krislybeauty/storefront/pkg/config"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryIdempotencyStore struct {
	data map[string]string
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type countingCheckout struct {
	calls int
}

func (c *countingCheckout) CreateSession(_ context.Context, req checkout.Request) (*checkout.Session, error) {
	c.calls++
	return &checkout.Session{ID: fmt.Sprintf("cs_%d", c.calls), URL: fmt.Sprintf("https://pay.example/cs_%d", c.calls)}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test", Port: "0"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestRouter(svc checkout.Service, store *memoryIdempotencyStore) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(reg)
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		store,
		svc,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(&countingCheckout{}, &memoryIdempotencyStore{data: map[string]string{}})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(&countingCheckout{}, &memoryIdempotencyStore{data: map[string]string{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCheckoutRouteReplaysWithIdempotencyKey(t *testing.T) {
	svc := &countingCheckout{}
	router := newTestRouter(svc, &memoryIdempotencyStore{data: map[string]string{}})

	post := func() string {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"items":[{"id":"1","quantity":1}]}`))
		req.Header.Set("Idempotency-Key", "cart-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
		}
		var body struct {
			CheckoutURL string `json:"checkoutUrl"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.CheckoutURL
	}

	first := post()
	second := post()
	if first != second {
		t.Fatalf("expected replayed url, got %q then %q", first, second)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one session, got %d", svc.calls)
	}
}

func TestCheckoutRouteRejectsGet(t *testing.T) {
	router := newTestRouter(&countingCheckout{}, &memoryIdempotencyStore{data: map[string]string{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/checkout", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.Code)
	}
}
