package models

import (
	"fmt"
	"strings"
)

// Sentiment is the categorical tag attached to a news item
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Sentiments lists every sentiment in display order
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// IsValid checks if the sentiment is one of the known values
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// NewsItem is an immutable headline record
type NewsItem struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
	Time      string    `json:"time"`
	Source    string    `json:"source"`
	Category  string    `json:"category,omitempty"`
}

// NewsFilter selects which news items are shown: "all" or a sentiment
type NewsFilter string

// FilterAll shows every news item
const FilterAll NewsFilter = "all"

// ParseNewsFilter parses a filter criterion. Blank input means all.
func ParseNewsFilter(s string) (NewsFilter, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == string(FilterAll) {
		return FilterAll, nil
	}
	if Sentiment(v).IsValid() {
		return NewsFilter(v), nil
	}
	return "", fmt.Errorf("invalid news filter %q (expected all, positive, negative or neutral)", s)
}

// Matches reports whether an item passes the filter
func (f NewsFilter) Matches(item NewsItem) bool {
	return f == FilterAll || f == "" || Sentiment(f) == item.Sentiment
}
