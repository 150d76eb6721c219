package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Bullish"},
		{65, "Bullish"},
		{61, "Bullish"},
		{60, "Neutral"},
		{50, "Neutral"},
		{40, "Neutral"},
		{39, "Bearish"},
		{0, "Bearish"},
	}

	for _, tt := range tests {
		if got := SentimentLabel(tt.score); got != tt.want {
			t.Errorf("SentimentLabel(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestIsMarketOpen(t *testing.T) {
	day := func(hour, min int) time.Time {
		return time.Date(2024, 1, 15, hour, min, 0, 0, time.Local)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", day(8, 59), false},
		{"at open", day(9, 0), true},
		{"midday", day(12, 30), true},
		{"last minute", day(15, 59), true},
		{"at close", day(16, 0), false},
		{"night", day(23, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarketOpen(tt.at); got != tt.want {
				t.Errorf("IsMarketOpen(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestQuoteSeed_ToQuote(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	seed := QuoteSeed{
		Symbol:        "TCS",
		Name:          "Tata Consultancy Services",
		Price:         decimal.RequireFromString("3678.90"),
		Change:        decimal.RequireFromString("-23.45"),
		ChangePercent: decimal.RequireFromString("-0.63"),
		Volume:        "1.8M",
		PERatio:       28.9,
		MarketCap:     "13.4T",
	}

	q := seed.ToQuote(at)

	if q.Symbol != "TCS" || q.Name != seed.Name || q.Volume != "1.8M" || q.MarketCap != "13.4T" {
		t.Errorf("ToQuote() did not copy descriptive fields: %+v", q)
	}
	if !q.Price.Equal(seed.Price) || !q.Change.Equal(seed.Change) {
		t.Errorf("ToQuote() did not copy price fields: %+v", q)
	}
	if !q.LastUpdated.Equal(at) {
		t.Errorf("LastUpdated = %v, want %v", q.LastUpdated, at)
	}
	if q.IsGain() {
		t.Error("negative change should not be a gain")
	}
}
