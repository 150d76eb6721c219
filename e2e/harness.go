// Package e2e provides end-to-end testing infrastructure for stocksense.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stocksense/config"
	"stocksense/e2e/mocks"
	"stocksense/internal/api"
	"stocksense/internal/app"
	"stocksense/observability"
	"stocksense/services"
)

// TestHarness runs the full router against a mock Alpha Vantage server.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	server     *httptest.Server
	dash       *app.Dashboard
	router     http.Handler
	config     *config.Config
	metrics    *observability.Metrics
	breakers   *services.CircuitBreakerRegistry
}

// HarnessOption customizes the harness configuration before Setup.
type HarnessOption func(*config.Config)

// WithFallback toggles the reference table fallback
func WithFallback(enabled bool) HarnessOption {
	return func(c *config.Config) { c.Provider.Fallback = enabled }
}

// WithDefaultSymbols seeds the watchlist on startup
func WithDefaultSymbols(symbols ...string) HarnessOption {
	return func(c *config.Config) { c.Dashboard.DefaultSymbols = symbols }
}

// NewTestHarness creates a new test harness. Call Setup before use.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

	h := &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig()
	for _, opt := range opts {
		opt(h.config)
	}
	return h
}

// Setup starts the dashboard and builds the router.
func (h *TestHarness) Setup() error {
	if err := h.config.Validate(); err != nil {
		return err
	}

	h.metrics = observability.NewMetrics(prometheus.NewRegistry())
	h.breakers = services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig)
	h.breakers.SetMetrics(h.metrics)

	providers, err := services.NewProviders(h.config, services.ClientOptions{
		Breakers: h.breakers,
		Retry: &services.RetryConfig{
			MaxRetries:     1,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
		Metrics: h.metrics,
	})
	if err != nil {
		return err
	}

	h.dash = app.New(h.config, providers.Quotes, providers.News, app.WithMetrics(h.metrics))
	h.dash.Startup(h.ctx)

	handler := api.NewHandler(h.dash, h.config, api.WithBreakers(providers.Breakers))
	h.router = api.NewRouter(handler, h.config)
	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.dash != nil {
		h.dash.Shutdown(context.Background())
	}
	if h.server != nil {
		h.server.Close()
	}
	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// Dashboard returns the dashboard instance.
func (h *TestHarness) Dashboard() *app.Dashboard {
	return h.dash
}

// Metrics returns the harness metrics.
func (h *TestHarness) Metrics() *observability.Metrics {
	return h.metrics
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// Serve exposes the router on a real listener for websocket tests and
// returns its base URL.
func (h *TestHarness) Serve() string {
	if h.server == nil {
		h.server = httptest.NewServer(h.router)
	}
	return h.server.URL
}

// DoRequest performs a JSON request and returns the response.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	req := newRequest(method, path, body, "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// DoHTMXRequest performs an HTMX form request and returns the response.
func (h *TestHarness) DoHTMXRequest(method, path string, form string) *httptest.ResponseRecorder {
	req := newRequest(method, path, form, "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func newRequest(method, path, body, contentType string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, path, nil)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return req
}

func (h *TestHarness) createTestConfig() *config.Config {
	cfg := config.NewTestConfig()
	cfg.Provider.Quotes = config.ProviderAlphaVantage
	cfg.Provider.News = config.ProviderAlphaVantage
	cfg.Provider.Fallback = true
	cfg.AlphaVantage.APIKey = "e2e-key"
	cfg.AlphaVantage.BaseURL = h.mockServer.URL()
	cfg.Dashboard.LookupTimeoutSeconds = 5
	return cfg
}
