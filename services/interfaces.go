package services

import (
	"context"
	"net/http"
	"time"

	"stocksense/models"
	"stocksense/observability"
)

// QuoteResolver resolves a normalized symbol into quote data.
// Unknown symbols yield models.ErrSymbolNotFound.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error)
}

// NewsSource provides the headlines shown on the dashboard
type NewsSource interface {
	GetNews(ctx context.Context) ([]models.NewsItem, error)
}

// ClientOptions holds collaborators shared by the live data services.
// Zero values fall back to defaults.
type ClientOptions struct {
	HTTPClient *http.Client
	Breakers   *CircuitBreakerRegistry
	Retry      *RetryConfig
	Metrics    *observability.Metrics
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Breakers == nil {
		o.Breakers = GetGlobalRegistry()
	}
	if o.Retry == nil {
		cfg := DefaultRetryConfig
		o.Retry = &cfg
	}
	return o
}

// Compile-time interface verification
var _ QuoteResolver = (*ReferenceTable)(nil)
var _ QuoteResolver = (*AlphaVantageService)(nil)
var _ QuoteResolver = (*AlpacaService)(nil)
var _ QuoteResolver = (*FMPService)(nil)
var _ QuoteResolver = (*FallbackLookup)(nil)
var _ NewsSource = (*StaticNews)(nil)
var _ NewsSource = (*AlphaVantageService)(nil)
var _ NewsSource = (*NewsAPIService)(nil)
