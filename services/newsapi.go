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

	"stocksense/models"
	"stocksense/observability"
)

// DefaultNewsAPIURL is the NewsAPI.org v2 root
const DefaultNewsAPIURL = "https://newsapi.org/v2"

// NewsAPIService provides business headlines from NewsAPI.org
type NewsAPIService struct {
	apiKey     string
	baseURL    string
	country    string
	pageSize   int
	httpClient *http.Client
	breakers   *CircuitBreakerRegistry
	retry      RetryConfig
	metrics    *observability.Metrics
}

// NewNewsAPIService creates a new NewsAPIService instance.
// An empty baseURL selects the public API; an empty country means "us".
func NewNewsAPIService(apiKey, baseURL, country string, opts ClientOptions) *NewsAPIService {
	opts = opts.withDefaults()
	if baseURL == "" {
		baseURL = DefaultNewsAPIURL
	}
	if country == "" {
		country = "us"
	}
	return &NewsAPIService{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		country:    country,
		pageSize:   10,
		httpClient: opts.HTTPClient,
		breakers:   opts.Breakers,
		retry:      *opts.Retry,
		metrics:    opts.Metrics,
	}
}

// NewsAPIResponse represents the response from NewsAPI
type NewsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// GetNews returns the current top business headlines. NewsAPI carries no
// sentiment, so each headline is scored with HeadlineSentiment.
func (s *NewsAPIService) GetNews(ctx context.Context) ([]models.NewsItem, error) {
	return ExecuteWith(ctx, s.breakers, BreakerNewsAPI, func() ([]models.NewsItem, error) {
		var newsResp NewsAPIResponse
		err := WithRetry(ctx, s.retry, func() error {
			newsResp = NewsAPIResponse{}
			return s.getHeadlines(ctx, &newsResp)
		})
		if err != nil {
			return nil, err
		}

		items := make([]models.NewsItem, 0, len(newsResp.Articles))
		for _, a := range newsResp.Articles {
			if a.Title == "" || a.Title == "[Removed]" {
				continue
			}

			published := "recently"
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				published = humanize.Time(t)
			} else {
				observability.Debug("failed to parse news timestamp", "value", a.PublishedAt)
			}

			items = append(items, models.NewsItem{
				Title:     a.Title,
				Summary:   a.Description,
				Sentiment: HeadlineSentiment(a.Title + " " + a.Description),
				Time:      published,
				Source:    a.Source.Name,
				Category:  "business",
			})
		}
		return items, nil
	})
}

func (s *NewsAPIService) getHeadlines(ctx context.Context, out *NewsAPIResponse) error {
	const operation = "top_headlines"

	s.metrics.RecordExternalAPIRequest(BreakerNewsAPI, operation)
	timer := s.metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerNewsAPI, operation)

	params := url.Values{}
	params.Set("country", s.country)
	params.Set("category", "business")
	params.Set("pageSize", strconv.Itoa(s.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/top-headlines?"+params.Encode(), nil)
	if err != nil {
		return Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.RecordExternalAPIError(BreakerNewsAPI, operation, "network")
		return fmt.Errorf("failed to fetch headlines: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode == http.StatusOK {
		s.metrics.RecordExternalAPIError(BreakerNewsAPI, operation, "decode")
		return fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		s.metrics.RecordExternalAPIError(BreakerNewsAPI, operation, "status")
		return fmt.Errorf("NewsAPI returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400 || out.Status == "error":
		s.metrics.RecordExternalAPIError(BreakerNewsAPI, operation, "status")
		return Permanent(fmt.Errorf("NewsAPI returned status %d: %s", resp.StatusCode, out.Message))
	}
	return nil
}

var (
	positiveWords = []string{
		"beat", "beats", "gain", "gains", "growth", "jump", "jumps", "rally", "rallies",
		"record", "rise", "rises", "soar", "soars", "surge", "surges", "upgrade", "profit",
	}
	negativeWords = []string{
		"cut", "cuts", "decline", "declines", "drop", "drops", "fall", "falls", "loss",
		"losses", "miss", "misses", "plunge", "plunges", "slide", "slides", "slump", "downgrade",
	}
)

// HeadlineSentiment scores text by counting market-moving words. Ties are neutral.
func HeadlineSentiment(text string) models.Sentiment {
	score := 0
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		for _, p := range positiveWords {
			if w == p {
				score++
			}
		}
		for _, n := range negativeWords {
			if w == n {
				score--
			}
		}
	}

	switch {
	case score > 0:
		return models.SentimentPositive
	case score < 0:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
