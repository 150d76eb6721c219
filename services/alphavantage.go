package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"stocksense/models"
	"stocksense/observability"
)

// DefaultAlphaVantageURL is the public Alpha Vantage query endpoint
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// defaultNewsTopics are the NEWS_SENTIMENT topics shown on the dashboard
const defaultNewsTopics = "financial_markets,economy_macro"

// AlphaVantageService handles communication with Alpha Vantage API
type AlphaVantageService struct {
	apiKey     string
	baseURL    string
	newsTopics string
	newsLimit  int
	httpClient *http.Client
	breakers   *CircuitBreakerRegistry
	retry      RetryConfig
	metrics    *observability.Metrics
}

// NewAlphaVantageService creates a new AlphaVantageService instance.
// An empty baseURL selects the public endpoint.
func NewAlphaVantageService(apiKey, baseURL string, opts ClientOptions) *AlphaVantageService {
	opts = opts.withDefaults()
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	return &AlphaVantageService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		newsTopics: defaultNewsTopics,
		newsLimit:  10,
		httpClient: opts.HTTPClient,
		breakers:   opts.Breakers,
		retry:      *opts.Retry,
		metrics:    opts.Metrics,
	}
}

// apiMessage captures the informational bodies Alpha Vantage returns with HTTP 200
type apiMessage struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// OverviewResponse represents the company overview response from Alpha Vantage
type OverviewResponse struct {
	Symbol    string `json:"Symbol"`
	Name      string `json:"Name"`
	Exchange  string `json:"Exchange"`
	Currency  string `json:"Currency"`
	Sector    string `json:"Sector"`
	MarketCap string `json:"MarketCapitalization"`
	PERatio   string `json:"PERatio"`
}

// QuoteResponse represents a quote from Alpha Vantage
type QuoteResponse struct {
	apiMessage
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// NewsResponse represents the news response from Alpha Vantage
type NewsResponse struct {
	apiMessage
	Items string `json:"items"`
	Feed  []struct {
		Title            string   `json:"title"`
		URL              string   `json:"url"`
		Summary          string   `json:"summary"`
		Source           string   `json:"source"`
		TimePublished    string   `json:"time_published"`
		Authors          []string `json:"authors"`
		OverallSentiment string   `json:"overall_sentiment_label"`
		SentimentScore   float64  `json:"overall_sentiment_score"`
		Topics           []struct {
			Topic     string `json:"topic"`
			Relevance string `json:"relevance_score"`
		} `json:"topics"`
	} `json:"feed"`
}

// get performs one query and decodes the body into out
func (s *AlphaVantageService) get(ctx context.Context, operation string, params url.Values, out any) error {
	params.Set("apikey", s.apiKey)

	s.metrics.RecordExternalAPIRequest(BreakerAlphaVantage, operation)
	timer := s.metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerAlphaVantage, operation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Permanent(fmt.Errorf("failed to build %s request: %w", operation, err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.RecordExternalAPIError(BreakerAlphaVantage, operation, "network")
		return fmt.Errorf("failed to fetch %s: %w", operation, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		s.metrics.RecordExternalAPIError(BreakerAlphaVantage, operation, "status")
		return fmt.Errorf("%s returned status %d", operation, resp.StatusCode)
	case resp.StatusCode >= 400:
		s.metrics.RecordExternalAPIError(BreakerAlphaVantage, operation, "status")
		return Permanent(fmt.Errorf("%s returned status %d", operation, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		s.metrics.RecordExternalAPIError(BreakerAlphaVantage, operation, "decode")
		return fmt.Errorf("failed to decode %s: %w", operation, err)
	}
	return nil
}

// checkMessage turns Alpha Vantage's in-band messages into errors
func (s *AlphaVantageService) checkMessage(operation string, msg apiMessage) error {
	switch {
	case msg.Note != "":
		s.metrics.RecordExternalAPIError(BreakerAlphaVantage, operation, "rate_limit")
		return fmt.Errorf("%s rate limited: %s", operation, msg.Note)
	case msg.Information != "":
		s.metrics.RecordExternalAPIError(BreakerAlphaVantage, operation, "rate_limit")
		return fmt.Errorf("%s: %s", operation, msg.Information)
	}
	return nil
}

// Resolve fetches GLOBAL_QUOTE and, best-effort, OVERVIEW for a symbol
func (s *AlphaVantageService) Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error) {
	return ExecuteWith(ctx, s.breakers, BreakerAlphaVantage, func() (*models.QuoteSeed, error) {
		var quoteResp QuoteResponse
		err := WithRetry(ctx, s.retry, func() error {
			params := url.Values{}
			params.Set("function", "GLOBAL_QUOTE")
			params.Set("symbol", symbol)

			quoteResp = QuoteResponse{}
			if err := s.get(ctx, "global_quote", params, &quoteResp); err != nil {
				return err
			}
			if err := s.checkMessage("global_quote", quoteResp.apiMessage); err != nil {
				return err
			}
			if quoteResp.ErrorMessage != "" || quoteResp.GlobalQuote.Symbol == "" {
				return fmt.Errorf("alphavantage %s: %w", symbol, models.ErrSymbolNotFound)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		seed, err := quoteSeedFromGlobalQuote(symbol, quoteResp)
		if err != nil {
			return nil, err
		}
		s.enrichFromOverview(ctx, seed)
		return seed, nil
	})
}

func quoteSeedFromGlobalQuote(symbol string, resp QuoteResponse) (*models.QuoteSeed, error) {
	gq := resp.GlobalQuote

	price, err := decimal.NewFromString(gq.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", gq.Price, err)
	}
	change, err := decimal.NewFromString(gq.Change)
	if err != nil {
		change = decimal.Zero
	}
	pct, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(gq.ChangePercent), "%"))
	if err != nil {
		pct = decimal.Zero
	}

	volume := gq.Volume
	if v, err := strconv.ParseFloat(gq.Volume, 64); err == nil {
		volume = CompactNumber(v)
	}

	return &models.QuoteSeed{
		Symbol:        symbol,
		Name:          symbol,
		Price:         price,
		Change:        change,
		ChangePercent: pct.Round(2),
		Volume:        volume,
	}, nil
}

// enrichFromOverview fills name, P/E and market cap. Failures leave the
// seed as is.
func (s *AlphaVantageService) enrichFromOverview(ctx context.Context, seed *models.QuoteSeed) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", seed.Symbol)

	var overview OverviewResponse
	if err := s.get(ctx, "overview", params, &overview); err != nil {
		observability.WithSymbol(seed.Symbol).Debug("overview unavailable", "error", err)
		return
	}

	if overview.Name != "" {
		seed.Name = overview.Name
	}
	if overview.PERatio != "" && overview.PERatio != "None" {
		if pe, err := strconv.ParseFloat(overview.PERatio, 64); err == nil {
			seed.PERatio = pe
		} else {
			observability.Warn("failed to parse P/E ratio", "symbol", seed.Symbol, "value", overview.PERatio)
		}
	}
	if mc, err := strconv.ParseFloat(overview.MarketCap, 64); err == nil {
		seed.MarketCap = CompactNumber(mc)
	}
}

// GetNews returns recent market headlines with their sentiment
func (s *AlphaVantageService) GetNews(ctx context.Context) ([]models.NewsItem, error) {
	return ExecuteWith(ctx, s.breakers, BreakerAlphaVantage, func() ([]models.NewsItem, error) {
		var newsResp NewsResponse
		err := WithRetry(ctx, s.retry, func() error {
			params := url.Values{}
			params.Set("function", "NEWS_SENTIMENT")
			params.Set("topics", s.newsTopics)
			params.Set("sort", "LATEST")
			params.Set("limit", strconv.Itoa(s.newsLimit))

			newsResp = NewsResponse{}
			if err := s.get(ctx, "news_sentiment", params, &newsResp); err != nil {
				return err
			}
			if newsResp.ErrorMessage != "" {
				return Permanent(fmt.Errorf("news_sentiment: %s", newsResp.ErrorMessage))
			}
			return s.checkMessage("news_sentiment", newsResp.apiMessage)
		})
		if err != nil {
			return nil, err
		}

		items := make([]models.NewsItem, 0, len(newsResp.Feed))
		for _, item := range newsResp.Feed {
			published := "recently"
			if t, err := time.Parse("20060102T150405", item.TimePublished); err == nil {
				published = humanize.Time(t)
			} else {
				observability.Debug("failed to parse news timestamp", "value", item.TimePublished)
			}

			category := ""
			if len(item.Topics) > 0 {
				category = strings.ToLower(item.Topics[0].Topic)
			}

			items = append(items, models.NewsItem{
				Title:     item.Title,
				Summary:   item.Summary,
				Sentiment: SentimentFromLabel(item.OverallSentiment),
				Time:      published,
				Source:    item.Source,
				Category:  category,
			})
		}
		return items, nil
	})
}

// SentimentFromLabel maps an Alpha Vantage sentiment label onto a Sentiment
func SentimentFromLabel(label string) models.Sentiment {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "bullish", "somewhat-bullish", "somewhat_bullish":
		return models.SentimentPositive
	case "bearish", "somewhat-bearish", "somewhat_bearish":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
