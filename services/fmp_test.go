package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"stocksense/models"
)

const fmpQuoteBody = `[
	{
		"symbol": "AAPL",
		"name": "Apple Inc.",
		"price": 185.924,
		"changesPercentage": 0.17786,
		"change": 0.33,
		"volume": 40477782,
		"avgVolume": 53000000,
		"marketCap": 2890000000000,
		"pe": 30.12,
		"previousClose": 185.59,
		"exchange": "NASDAQ"
	}
]`

func TestNewFMPService_Defaults(t *testing.T) {
	service := NewFMPService("test-api-key", "", ClientOptions{})
	if service.apiKey != "test-api-key" {
		t.Errorf("apiKey = %v, want 'test-api-key'", service.apiKey)
	}
	if service.baseURL != DefaultFMPURL {
		t.Errorf("baseURL = %v, want %v", service.baseURL, DefaultFMPURL)
	}
	if service.httpClient == nil || service.breakers == nil {
		t.Error("expected default collaborators")
	}
}

func TestFMP_Resolve(t *testing.T) {
	server := newAlphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/AAPL" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("apikey") != "key" {
			t.Error("missing apikey parameter")
		}
		w.Write([]byte(fmpQuoteBody))
	})

	service := NewFMPService("key", server.URL+"/", fastOptions())
	seed, err := service.Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if seed.Name != "Apple Inc." {
		t.Errorf("Name = %s", seed.Name)
	}
	if seed.Price.String() != "185.92" {
		t.Errorf("Price = %s, want 185.92", seed.Price)
	}
	if seed.Change.String() != "0.33" || seed.ChangePercent.String() != "0.18" {
		t.Errorf("Change = %s (%s%%)", seed.Change, seed.ChangePercent)
	}
	if seed.Volume != "40.5M" || seed.MarketCap != "2.9T" {
		t.Errorf("Volume = %s, MarketCap = %s", seed.Volume, seed.MarketCap)
	}
	if seed.PERatio != 30.12 {
		t.Errorf("PERatio = %v", seed.PERatio)
	}
}

func TestFMP_UnknownSymbol(t *testing.T) {
	var calls atomic.Int32
	server := newAlphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	})

	service := NewFMPService("key", server.URL, fastOptions())
	_, err := service.Resolve(context.Background(), "ZZZZ")
	if !errors.Is(err, models.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestFMP_ErrorMessageNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := newAlphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"Error Message": "Invalid API KEY."}`))
	})

	service := NewFMPService("bad", server.URL, fastOptions())
	if _, err := service.Resolve(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestFMP_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := newAlphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream", http.StatusBadGateway)
			return
		}
		w.Write([]byte(fmpQuoteBody))
	})

	service := NewFMPService("key", server.URL, fastOptions())
	if _, err := service.Resolve(context.Background(), "AAPL"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}
