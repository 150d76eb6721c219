package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"stocksense/models"
	"stocksense/observability"
)

// DefaultFMPURL is the Financial Modeling Prep v3 API root
const DefaultFMPURL = "https://financialmodelingprep.com/api/v3"

// FMPService resolves quotes from the Financial Modeling Prep quote endpoint
type FMPService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breakers   *CircuitBreakerRegistry
	retry      RetryConfig
	metrics    *observability.Metrics
}

// NewFMPService creates a new FMPService instance.
// An empty baseURL selects the public API.
func NewFMPService(apiKey, baseURL string, opts ClientOptions) *FMPService {
	opts = opts.withDefaults()
	if baseURL == "" {
		baseURL = DefaultFMPURL
	}
	return &FMPService{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: opts.HTTPClient,
		breakers:   opts.Breakers,
		retry:      *opts.Retry,
		metrics:    opts.Metrics,
	}
}

// fmpQuoteResponse represents one entry of the FMP quote endpoint
type fmpQuoteResponse struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	ChangesPercentage float64 `json:"changesPercentage"`
	Change            float64 `json:"change"`
	Volume            float64 `json:"volume"`
	AvgVolume         float64 `json:"avgVolume"`
	MarketCap         float64 `json:"marketCap"`
	PE                float64 `json:"pe"`
	PreviousClose     float64 `json:"previousClose"`
	Exchange          string  `json:"exchange"`
}

// fmpErrorResponse is returned with HTTP 200 for key and plan problems
type fmpErrorResponse struct {
	ErrorMessage string `json:"Error Message"`
}

// Resolve fetches the latest quote for a symbol
func (s *FMPService) Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error) {
	return ExecuteWith(ctx, s.breakers, BreakerFMP, func() (*models.QuoteSeed, error) {
		var quote fmpQuoteResponse

		err := WithRetry(ctx, s.retry, func() error {
			quotes, err := s.getQuote(ctx, symbol)
			if err != nil {
				return err
			}
			if len(quotes) == 0 || quotes[0].Symbol == "" {
				return fmt.Errorf("fmp %s: %w", symbol, models.ErrSymbolNotFound)
			}
			quote = quotes[0]
			return nil
		})
		if err != nil {
			return nil, err
		}

		return quoteSeedFromFMP(symbol, quote), nil
	})
}

func (s *FMPService) getQuote(ctx context.Context, symbol string) ([]fmpQuoteResponse, error) {
	const operation = "quote"

	s.metrics.RecordExternalAPIRequest(BreakerFMP, operation)
	timer := s.metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerFMP, operation)

	reqURL := fmt.Sprintf("%s/quote/%s?apikey=%s", s.baseURL, url.PathEscape(symbol), url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create quote request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.RecordExternalAPIError(BreakerFMP, operation, "network")
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		s.metrics.RecordExternalAPIError(BreakerFMP, operation, "status")
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		s.metrics.RecordExternalAPIError(BreakerFMP, operation, "status")
		return nil, Permanent(fmt.Errorf("quote API returned status %d", resp.StatusCode))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		s.metrics.RecordExternalAPIError(BreakerFMP, operation, "decode")
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	// Errors arrive as an object, quotes as an array.
	var apiErr fmpErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.ErrorMessage != "" {
		s.metrics.RecordExternalAPIError(BreakerFMP, operation, "api")
		return nil, Permanent(fmt.Errorf("quote API: %s", apiErr.ErrorMessage))
	}

	var quotes []fmpQuoteResponse
	if err := json.Unmarshal(raw, &quotes); err != nil {
		s.metrics.RecordExternalAPIError(BreakerFMP, operation, "decode")
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}
	return quotes, nil
}

func quoteSeedFromFMP(symbol string, q fmpQuoteResponse) *models.QuoteSeed {
	name := q.Name
	if name == "" {
		name = symbol
	}
	return &models.QuoteSeed{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.NewFromFloat(q.Price).Round(2),
		Change:        decimal.NewFromFloat(q.Change).Round(2),
		ChangePercent: decimal.NewFromFloat(q.ChangesPercentage).Round(2),
		Volume:        CompactNumber(q.Volume),
		PERatio:       q.PE,
		MarketCap:     CompactNumber(q.MarketCap),
	}
}
