package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider kinds for quote lookups and news
const (
	ProviderStatic       = "static"
	ProviderAlphaVantage = "alphavantage"
	ProviderAlpaca       = "alpaca"
	ProviderFMP          = "fmp"
	ProviderNewsAPI      = "newsapi"
)

// Config holds all application configuration
type Config struct {
	// Dashboard behaviour
	Dashboard DashboardConfig

	// Data providers
	Provider     ProviderConfig
	AlphaVantage AlphaVantageConfig
	Alpaca       AlpacaConfig
	FMP          FMPConfig
	NewsAPI      NewsAPIConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Logging configuration
	Logging LoggingConfig
}

// DashboardConfig holds refresh, notification and seeding configuration
type DashboardConfig struct {
	RefreshIntervalSeconds     int
	NotificationDisplaySeconds int
	NotificationTransitionMS   int
	NotificationHistory        int
	LookupTimeoutSeconds       int
	DefaultSymbols             []string
	SentimentScore             int // 0-100, drives the Bullish/Bearish gauge
	StreamBuffer               int // per-subscriber snapshot buffer
}

// ProviderConfig selects the quote and news collaborators
type ProviderConfig struct {
	Quotes   string // static, alphavantage, alpaca or fmp
	News     string // static, alphavantage or newsapi
	Fallback bool   // fall back to the reference table when a live provider fails
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	DataURL   string
}

// FMPConfig holds Financial Modeling Prep configuration
type FMPConfig struct {
	APIKey  string
	BaseURL string
}

// NewsAPIConfig holds NewsAPI.org configuration
type NewsAPIConfig struct {
	APIKey  string
	BaseURL string
	Country string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr                  string
	CORSAllowedOrigins    string
	RequestTimeoutSeconds int
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Production bool
	Level      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Dashboard: DashboardConfig{
			RefreshIntervalSeconds:     getEnvInt("REFRESH_INTERVAL_SECONDS", 30),
			NotificationDisplaySeconds: getEnvInt("NOTIFICATION_DISPLAY_SECONDS", 3),
			NotificationTransitionMS:   getEnvIntRange("NOTIFICATION_TRANSITION_MS", 300, 0, 60000),
			NotificationHistory:        getEnvInt("NOTIFICATION_HISTORY", 20),
			LookupTimeoutSeconds:       getEnvInt("LOOKUP_TIMEOUT_SECONDS", 10),
			DefaultSymbols:             getEnvList("DEFAULT_SYMBOLS", []string{"RELIANCE", "TCS", "HDFCBANK"}),
			SentimentScore:             getEnvIntRange("SENTIMENT_SCORE", 65, 0, 100),
			StreamBuffer:               getEnvInt("STREAM_BUFFER", 16),
		},
		Provider: ProviderConfig{
			Quotes:   strings.ToLower(getEnvString("QUOTE_PROVIDER", ProviderStatic)),
			News:     strings.ToLower(getEnvString("NEWS_PROVIDER", ProviderStatic)),
			Fallback: getEnvBool("PROVIDER_FALLBACK", true),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
			BaseURL: getEnvString("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
			BaseURL:   getEnvString("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
			DataURL:   getEnvString("ALPACA_DATA_URL", "https://data.alpaca.markets"),
		},
		FMP: FMPConfig{
			APIKey:  os.Getenv("FMP_API_KEY"),
			BaseURL: getEnvString("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		},
		NewsAPI: NewsAPIConfig{
			APIKey:  os.Getenv("NEWS_API_KEY"),
			BaseURL: getEnvString("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
			Country: strings.ToLower(getEnvString("NEWS_API_COUNTRY", "us")),
		},
		HTTP: HTTPConfig{
			Addr:                  getEnvString("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins:    getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSeconds: getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logging: LoggingConfig{
			Production: getEnvBool("LOG_PRODUCTION", false),
			Level:      strings.ToLower(getEnvString("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Dashboard.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL_SECONDS must be positive, got %d", c.Dashboard.RefreshIntervalSeconds)
	}
	if c.Dashboard.NotificationDisplaySeconds <= 0 {
		return fmt.Errorf("NOTIFICATION_DISPLAY_SECONDS must be positive, got %d", c.Dashboard.NotificationDisplaySeconds)
	}
	if c.Dashboard.NotificationTransitionMS < 0 {
		return fmt.Errorf("NOTIFICATION_TRANSITION_MS must not be negative, got %d", c.Dashboard.NotificationTransitionMS)
	}
	if c.Dashboard.LookupTimeoutSeconds <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT_SECONDS must be positive, got %d", c.Dashboard.LookupTimeoutSeconds)
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.RequestTimeoutSeconds)
	}

	switch c.Provider.Quotes {
	case ProviderStatic:
	case ProviderAlphaVantage:
		if !c.HasAlphaVantage() {
			return fmt.Errorf("QUOTE_PROVIDER=alphavantage requires ALPHA_VANTAGE_API_KEY")
		}
	case ProviderAlpaca:
		if !c.HasAlpaca() {
			return fmt.Errorf("QUOTE_PROVIDER=alpaca requires ALPACA_API_KEY and ALPACA_API_SECRET")
		}
	case ProviderFMP:
		if !c.HasFMP() {
			return fmt.Errorf("QUOTE_PROVIDER=fmp requires FMP_API_KEY")
		}
	default:
		return fmt.Errorf("QUOTE_PROVIDER must be one of static, alphavantage, alpaca, fmp, got %q", c.Provider.Quotes)
	}

	switch c.Provider.News {
	case ProviderStatic:
	case ProviderAlphaVantage:
		if !c.HasAlphaVantage() {
			return fmt.Errorf("NEWS_PROVIDER=alphavantage requires ALPHA_VANTAGE_API_KEY")
		}
	case ProviderNewsAPI:
		if !c.HasNewsAPI() {
			return fmt.Errorf("NEWS_PROVIDER=newsapi requires NEWS_API_KEY")
		}
	default:
		return fmt.Errorf("NEWS_PROVIDER must be one of static, alphavantage, newsapi, got %q", c.Provider.News)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	return nil
}

// HasAlphaVantage returns true if Alpha Vantage configuration is available
func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantage.APIKey != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasFMP returns true if Financial Modeling Prep configuration is available
func (c *Config) HasFMP() bool {
	return c.FMP.APIKey != ""
}

// HasNewsAPI returns true if NewsAPI configuration is available
func (c *Config) HasNewsAPI() bool {
	return c.NewsAPI.APIKey != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvIntRange(key string, defaultValue, minVal, maxVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= minVal && parsed <= maxVal {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList parses a comma separated list, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Dashboard: DashboardConfig{
			RefreshIntervalSeconds:     30,
			NotificationDisplaySeconds: 3,
			NotificationTransitionMS:   300,
			NotificationHistory:        20,
			LookupTimeoutSeconds:       10,
			DefaultSymbols:             nil,
			SentimentScore:             65,
			StreamBuffer:               16,
		},
		Provider: ProviderConfig{
			Quotes:   ProviderStatic,
			News:     ProviderStatic,
			Fallback: true,
		},
		AlphaVantage: AlphaVantageConfig{
			BaseURL: "https://www.alphavantage.co/query",
		},
		Alpaca: AlpacaConfig{
			BaseURL: "https://paper-api.alpaca.markets",
			DataURL: "https://data.alpaca.markets",
		},
		FMP: FMPConfig{
			BaseURL: "https://financialmodelingprep.com/api/v3",
		},
		NewsAPI: NewsAPIConfig{
			BaseURL: "https://newsapi.org/v2",
			Country: "us",
		},
		HTTP: HTTPConfig{
			Addr:                  ":8080",
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
