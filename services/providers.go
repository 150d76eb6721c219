package services

import (
	"fmt"

	"stocksense/config"
)

// Providers are the collaborators selected by configuration
type Providers struct {
	Quotes   QuoteResolver
	News     NewsSource
	Breakers *CircuitBreakerRegistry // guards the live providers
}

// NewProviders builds the quote resolver and news source named by cfg.
// With fallback enabled a live quote provider is backed by the reference table.
func NewProviders(cfg *config.Config, opts ClientOptions) (*Providers, error) {
	opts = opts.withDefaults()
	reference := NewReferenceTable()
	p := &Providers{Breakers: opts.Breakers}

	switch cfg.Provider.Quotes {
	case config.ProviderStatic:
		p.Quotes = reference
	case config.ProviderAlphaVantage:
		p.Quotes = NewAlphaVantageService(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL, opts)
	case config.ProviderAlpaca:
		p.Quotes = NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL, opts)
	case config.ProviderFMP:
		p.Quotes = NewFMPService(cfg.FMP.APIKey, cfg.FMP.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unknown quote provider %q", cfg.Provider.Quotes)
	}

	if cfg.Provider.Fallback && cfg.Provider.Quotes != config.ProviderStatic {
		p.Quotes = NewFallbackLookup(cfg.Provider.Quotes, p.Quotes, reference)
	}

	switch cfg.Provider.News {
	case config.ProviderStatic:
		p.News = NewStaticNews()
	case config.ProviderAlphaVantage:
		p.News = NewAlphaVantageService(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL, opts)
	case config.ProviderNewsAPI:
		p.News = NewNewsAPIService(cfg.NewsAPI.APIKey, cfg.NewsAPI.BaseURL, cfg.NewsAPI.Country, opts)
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.Provider.News)
	}

	return p, nil
}
