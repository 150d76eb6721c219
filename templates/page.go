// Package templates renders the dashboard page
//
//go:generate templ generate
package templates

import (
	"encoding/json"
	"time"

	"stocksense/models"
)

// Page is everything the full dashboard page needs on first render
type Page struct {
	Snapshot  models.Snapshot
	Counts    map[models.Sentiment]int
	Series    models.IndexSeries
	Sentiment models.MarketSentiment
	Status    models.MarketStatus
	PollEvery time.Duration
}

// chartData is the Plotly trace handed to the client through a data attribute
type chartData struct {
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

func seriesJSON(s models.IndexSeries) string {
	data := chartData{Name: s.Name, X: make([]string, 0, len(s.Points)), Y: make([]float64, 0, len(s.Points))}
	for _, p := range s.Points {
		v, _ := p.Value.Float64()
		data.X = append(data.X, p.Label)
		data.Y = append(data.Y, v)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
