package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSymbolNotFound is returned by lookup collaborators when a symbol is not
// part of the universe they can resolve.
var ErrSymbolNotFound = errors.New("symbol not found")

// Quote represents the tracked state for one symbol
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Volume        string          `json:"volume"`
	PERatio       float64         `json:"pe"`
	MarketCap     string          `json:"marketCap"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// IsGain reports whether the last change was non-negative
func (q Quote) IsGain() bool {
	return !q.Change.IsNegative()
}

// QuoteSeed is the data a lookup collaborator resolves for a symbol
type QuoteSeed struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Volume        string          `json:"volume"`
	PERatio       float64         `json:"pe"`
	MarketCap     string          `json:"marketCap"`
}

// ToQuote builds a tracked quote from the seed
func (s QuoteSeed) ToQuote(at time.Time) Quote {
	return Quote{
		Symbol:        s.Symbol,
		Name:          s.Name,
		Price:         s.Price,
		Change:        s.Change,
		ChangePercent: s.ChangePercent,
		Volume:        s.Volume,
		PERatio:       s.PERatio,
		MarketCap:     s.MarketCap,
		LastUpdated:   at,
	}
}

// MarketIndex represents an aggregate benchmark value
type MarketIndex struct {
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// IsGain reports whether the index moved up or stayed flat
func (i MarketIndex) IsGain() bool {
	return !i.Change.IsNegative()
}

// SeriesPoint is a single labelled value of an index series
type SeriesPoint struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// IndexSeries is the time-series handed to the charting collaborator
type IndexSeries struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}
