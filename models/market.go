package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sentiment score thresholds for the market mood label
const (
	BullishThreshold = 60
	BearishThreshold = 40
)

// MarketSentiment is the overall market mood gauge
type MarketSentiment struct {
	Score     int       `json:"score"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// SentimentLabel maps a 0-100 score to Bullish, Bearish or Neutral
func SentimentLabel(score int) string {
	switch {
	case score > BullishThreshold:
		return "Bullish"
	case score < BearishThreshold:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// MarketStatus describes whether the capital market is currently open
type MarketStatus struct {
	Market        string          `json:"market"`
	Status        string          `json:"marketStatus"`
	TradeDate     string          `json:"tradeDate"`
	Index         string          `json:"index"`
	Last          decimal.Decimal `json:"last"`
	Variation     decimal.Decimal `json:"variation"`
	PercentChange decimal.Decimal `json:"percentChange"`
	Message       string          `json:"marketStatusMessage"`
}

// Market hours, local time
const (
	MarketOpenHour  = 9
	MarketCloseHour = 16
)

// IsMarketOpen reports whether t falls within trading hours
func IsMarketOpen(t time.Time) bool {
	return t.Hour() >= MarketOpenHour && t.Hour() < MarketCloseHour
}

// Snapshot is the full dashboard state emitted to presentation collaborators
type Snapshot struct {
	Quotes        []Quote        `json:"quotes"`
	News          []NewsItem     `json:"news"`
	Filter        NewsFilter     `json:"filter"`
	Indices       []MarketIndex  `json:"indices"`
	Notifications []Notification `json:"notifications"`
	Capacity      int            `json:"capacity"`
	GeneratedAt   time.Time      `json:"generated_at"`
}
