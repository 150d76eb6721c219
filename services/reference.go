package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"stocksense/models"
)

// ReferenceTable resolves symbols from a fixed set of NSE listings.
// It is the default quote source and the fallback for live providers.
type ReferenceTable struct {
	seeds map[string]models.QuoteSeed
}

func seed(symbol, name, price, change, pct, volume string, pe float64, marketCap string) models.QuoteSeed {
	return models.QuoteSeed{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Change:        decimal.RequireFromString(change),
		ChangePercent: decimal.RequireFromString(pct),
		Volume:        volume,
		PERatio:       pe,
		MarketCap:     marketCap,
	}
}

// NewReferenceTable creates the table with the built-in listings
func NewReferenceTable() *ReferenceTable {
	rows := []models.QuoteSeed{
		seed("RELIANCE", "Reliance Industries", "2456.78", "45.23", "1.88", "2.3M", 24.5, "16.7T"),
		seed("TCS", "Tata Consultancy Services", "3123.45", "-23.67", "-0.75", "1.8M", 28.3, "11.4T"),
		seed("HDFCBANK", "HDFC Bank", "1567.89", "12.34", "0.79", "3.1M", 19.8, "8.9T"),
		seed("INFY", "Infosys", "1456.23", "-8.45", "-0.58", "2.7M", 22.1, "6.2T"),
		seed("SBIN", "State Bank of India", "567.34", "15.67", "2.84", "5.2M", 12.4, "5.1T"),
		seed("TATAMOTORS", "Tata Motors", "613.35", "8.45", "1.40", "4.1M", 15.7, "2.1T"),
		seed("ICICIBANK", "ICICI Bank", "987.65", "-4.32", "-0.44", "2.9M", 18.9, "6.8T"),
		seed("KOTAKBANK", "Kotak Mahindra Bank", "1789.23", "23.45", "1.33", "1.5M", 25.6, "3.5T"),
		seed("HINDUNILVR", "Hindustan Unilever", "2345.67", "-12.34", "-0.52", "1.2M", 65.3, "5.5T"),
		seed("ITC", "ITC Limited", "456.78", "7.89", "1.76", "8.3M", 21.4, "5.7T"),
	}

	t := &ReferenceTable{seeds: make(map[string]models.QuoteSeed, len(rows))}
	for _, r := range rows {
		t.seeds[r.Symbol] = r
	}
	return t
}

// Resolve returns the listing for symbol, or models.ErrSymbolNotFound
func (t *ReferenceTable) Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := t.seeds[symbol]
	if !ok {
		return nil, models.ErrSymbolNotFound
	}
	return &s, nil
}

// Symbols returns every listed symbol in alphabetical order
func (t *ReferenceTable) Symbols() []string {
	out := make([]string, 0, len(t.seeds))
	for s := range t.seeds {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// StaticNews serves the built-in headlines
type StaticNews struct {
	items []models.NewsItem
}

// NewStaticNews creates a news source over the built-in headlines
func NewStaticNews() *StaticNews {
	return &StaticNews{items: SampleNews()}
}

// GetNews returns a copy of the built-in headlines
func (s *StaticNews) GetNews(ctx context.Context) ([]models.NewsItem, error) {
	out := make([]models.NewsItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

// SampleNews returns the built-in headlines, newest first
func SampleNews() []models.NewsItem {
	return []models.NewsItem{
		{
			Title:     "RBI keeps repo rate unchanged at 6.5% for fifth consecutive time",
			Summary:   "The Monetary Policy Committee decided to maintain the status quo on policy rates.",
			Sentiment: models.SentimentPositive,
			Time:      "2 hours ago",
			Source:    "Economic Times",
			Category:  "economy",
		},
		{
			Title:     "TCS reports 12% YoY growth in Q2 profit",
			Summary:   "India's largest IT services company beat analyst estimates with strong performance.",
			Sentiment: models.SentimentPositive,
			Time:      "4 hours ago",
			Source:    "Moneycontrol",
			Category:  "earnings",
		},
		{
			Title:     "Crude oil prices surge amid Middle East tensions",
			Summary:   "Oil prices jumped 3% following geopolitical developments in the region.",
			Sentiment: models.SentimentNegative,
			Time:      "6 hours ago",
			Source:    "Reuters",
			Category:  "commodities",
		},
		{
			Title:     "India's GDP growth expected at 6.8% for FY25",
			Summary:   "Economists predict steady growth momentum despite global headwinds.",
			Sentiment: models.SentimentPositive,
			Time:      "8 hours ago",
			Source:    "Bloomberg",
			Category:  "economy",
		},
		{
			Title:     "FIIs sell ₹2,500 crore worth of Indian equities",
			Summary:   "Foreign institutional investors continued their selling streak for the third consecutive day.",
			Sentiment: models.SentimentNegative,
			Time:      "10 hours ago",
			Source:    "Business Standard",
			Category:  "markets",
		},
	}
}

// SampleIndices returns the built-in benchmark values
func SampleIndices() []models.MarketIndex {
	index := func(name, value, change, pct string) models.MarketIndex {
		return models.MarketIndex{
			Name:          name,
			Value:         decimal.RequireFromString(value),
			Change:        decimal.RequireFromString(change),
			ChangePercent: decimal.RequireFromString(pct),
		}
	}
	return []models.MarketIndex{
		index("NIFTY 50", "21349.4", "94.35", "0.44"),
		index("SENSEX", "71345.2", "-156.78", "-0.22"),
		index("BANK NIFTY", "45678.9", "234.56", "0.52"),
		index("NIFTY IT", "34567.8", "-89.12", "-0.26"),
	}
}

// SampleIndexSeries returns the NIFTY 50 intraday series for the chart
func SampleIndexSeries() models.IndexSeries {
	labels := []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}
	values := []string{"21255", "21345", "21289", "21367", "21323", "21378", "21349", "21349.4"}

	points := make([]models.SeriesPoint, len(labels))
	for i := range labels {
		points[i] = models.SeriesPoint{Label: labels[i], Value: decimal.RequireFromString(values[i])}
	}
	return models.IndexSeries{Name: "NIFTY 50", Points: points}
}
