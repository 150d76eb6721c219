// Package mocks provides an Alpha Vantage mock server for E2E tests.
package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockServer answers GLOBAL_QUOTE, OVERVIEW and NEWS_SENTIMENT queries.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	quotes    map[string]GlobalQuote
	overviews map[string]Overview
	news      []NewsArticle

	// Error injection keyed by function name
	faults map[string]Fault

	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Function string
	Symbol   string
	APIKey   string
}

// NewMockServer creates a new mock server with default responses.
func NewMockServer() *MockServer {
	m := &MockServer{
		quotes:    make(map[string]GlobalQuote),
		overviews: make(map[string]Overview),
		faults:    make(map[string]Fault),
	}
	m.setDefaults()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the query endpoint of the mock.
func (m *MockServer) URL() string {
	return m.server.URL + "/query"
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP routes on the function query parameter.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	function := strings.ToUpper(q.Get("function"))
	symbol := strings.ToUpper(q.Get("symbol"))

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Function: function,
		Symbol:   symbol,
		APIKey:   q.Get("apikey"),
	})
	fault, faulty := m.faults[function]
	m.mu.Unlock()

	if faulty {
		if fault.StatusCode != 0 {
			http.Error(w, http.StatusText(fault.StatusCode), fault.StatusCode)
			return
		}
		writeJSON(w, map[string]string{"Note": fault.Note})
		return
	}

	switch function {
	case "GLOBAL_QUOTE":
		m.handleGlobalQuote(w, symbol)
	case "OVERVIEW":
		m.handleOverview(w, symbol)
	case "NEWS_SENTIMENT":
		m.handleNews(w)
	default:
		writeJSON(w, map[string]string{"Error Message": "Invalid API call."})
	}
}

func (m *MockServer) handleGlobalQuote(w http.ResponseWriter, symbol string) {
	m.mu.RLock()
	quote, ok := m.quotes[symbol]
	m.mu.RUnlock()

	// Unknown symbols get an empty quote object, like the live API.
	if !ok {
		writeJSON(w, map[string]any{"Global Quote": map[string]string{}})
		return
	}
	writeJSON(w, map[string]any{"Global Quote": quote})
}

func (m *MockServer) handleOverview(w http.ResponseWriter, symbol string) {
	m.mu.RLock()
	overview, ok := m.overviews[symbol]
	m.mu.RUnlock()

	if !ok {
		writeJSON(w, map[string]string{})
		return
	}
	writeJSON(w, overview)
}

func (m *MockServer) handleNews(w http.ResponseWriter) {
	m.mu.RLock()
	feed := append([]NewsArticle{}, m.news...)
	m.mu.RUnlock()

	writeJSON(w, map[string]any{
		"items": len(feed),
		"feed":  feed,
	})
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// CountRequests returns how many requests hit function
func (m *MockServer) CountRequests(function string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requestLog {
		if r.Function == function {
			n++
		}
	}
	return n
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = nil
}

// SetQuote configures the GLOBAL_QUOTE response for a symbol.
func (m *MockServer) SetQuote(quote GlobalQuote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToUpper(quote.Symbol)] = quote
}

// SetOverview configures the OVERVIEW response for a symbol.
func (m *MockServer) SetOverview(overview Overview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overviews[strings.ToUpper(overview.Symbol)] = overview
}

// SetNews configures the NEWS_SENTIMENT feed.
func (m *MockServer) SetNews(articles []NewsArticle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news = articles
}

// SetFault makes every request for function fail.
func (m *MockServer) SetFault(function string, fault Fault) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[strings.ToUpper(function)] = fault
}

// ClearFaults removes all injected faults.
func (m *MockServer) ClearFaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = make(map[string]Fault)
}

func (m *MockServer) setDefaults() {
	for _, q := range []GlobalQuote{
		{Symbol: "IBM", Open: "184.0000", High: "187.1000", Low: "183.5000", Price: "186.4000",
			Volume: "4120000", LatestDay: "2024-01-12", PrevClose: "184.0000", Change: "2.4000", ChangePercent: "1.3043%"},
		{Symbol: "AAPL", Open: "186.0000", High: "186.7400", Low: "185.1900", Price: "185.9200",
			Volume: "40477782", LatestDay: "2024-01-12", PrevClose: "185.5900", Change: "0.3300", ChangePercent: "0.1778%"},
		{Symbol: "MSFT", Open: "385.4900", High: "388.6800", Low: "384.6500", Price: "388.4700",
			Volume: "21661157", LatestDay: "2024-01-12", PrevClose: "384.6300", Change: "3.8400", ChangePercent: "0.9983%"},
		{Symbol: "TSLA", Open: "220.0800", High: "225.3400", Low: "217.1500", Price: "218.8900",
			Volume: "123043812", LatestDay: "2024-01-12", PrevClose: "227.2200", Change: "-8.3300", ChangePercent: "-3.6660%"},
		{Symbol: "NVDA", Open: "546.2000", High: "549.7000", Low: "541.3000", Price: "547.1000",
			Volume: "35263500", LatestDay: "2024-01-12", PrevClose: "543.5000", Change: "3.6000", ChangePercent: "0.6624%"},
		{Symbol: "AMZN", Open: "155.3900", High: "156.2000", Low: "154.0100", Price: "154.6200",
			Volume: "40460300", LatestDay: "2024-01-12", PrevClose: "155.1800", Change: "-0.5600", ChangePercent: "-0.3609%"},
	} {
		m.quotes[q.Symbol] = q
	}

	m.overviews["IBM"] = Overview{Symbol: "IBM", Name: "International Business Machines", Exchange: "NYSE",
		Currency: "USD", MarketCap: "170000000000", PERatio: "22.8"}
	m.overviews["AAPL"] = Overview{Symbol: "AAPL", Name: "Apple Inc", Exchange: "NASDAQ",
		Currency: "USD", MarketCap: "2890000000000", PERatio: "30.1"}

	m.news = []NewsArticle{
		{Title: "Stocks rally as inflation cools", Summary: "Indices close higher.", Source: "Reuters",
			TimePublished: "20240112T143000", OverallSentiment: "Bullish", SentimentScore: 0.42,
			Topics: []Topic{{Topic: "Financial Markets", Relevance: "0.9"}}},
		{Title: "Chipmakers slide on export curbs", Summary: "Semiconductor shares fall.", Source: "Bloomberg",
			TimePublished: "20240112T120000", OverallSentiment: "Somewhat-Bearish", SentimentScore: -0.2,
			Topics: []Topic{{Topic: "Technology", Relevance: "0.8"}}},
		{Title: "Fed minutes due next week", Summary: "Markets await guidance.", Source: "CNBC",
			TimePublished: "not-a-timestamp", OverallSentiment: "Neutral", SentimentScore: 0.01,
			Topics: []Topic{{Topic: "Economy - Monetary", Relevance: "0.7"}}},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
