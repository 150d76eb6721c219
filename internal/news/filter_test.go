package news

import (
	"reflect"
	"testing"

	"stocksense/models"
)

var sampleItems = []models.NewsItem{
	{Title: "one", Sentiment: models.SentimentPositive},
	{Title: "two", Sentiment: models.SentimentNegative},
	{Title: "three", Sentiment: models.SentimentPositive},
	{Title: "four", Sentiment: models.SentimentNeutral},
	{Title: "five", Sentiment: models.SentimentPositive},
}

func titles(items []models.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name      string
		criterion models.NewsFilter
		want      []string
	}{
		{"all", models.FilterAll, []string{"one", "two", "three", "four", "five"}},
		{"empty criterion", "", []string{"one", "two", "three", "four", "five"}},
		{"positive keeps order", "positive", []string{"one", "three", "five"}},
		{"negative", "negative", []string{"two"}},
		{"neutral", "neutral", []string{"four"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Filter(sampleItems, tt.criterion))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.criterion, got, tt.want)
			}
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	before := titles(sampleItems)
	Filter(sampleItems, "negative")
	if !reflect.DeepEqual(titles(sampleItems), before) {
		t.Error("Filter should not modify its input")
	}
}

func TestFilter_NoMatches(t *testing.T) {
	items := []models.NewsItem{{Title: "only", Sentiment: models.SentimentPositive}}
	got := Filter(items, "negative")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Negative")
	if err != nil || f != "negative" {
		t.Errorf("ParseFilter(Negative) = %q, %v", f, err)
	}
	if _, err := ParseFilter("mixed"); err == nil {
		t.Error("expected an error for an unknown criterion")
	}
}

func TestCounts(t *testing.T) {
	got := Counts(sampleItems)
	want := map[models.Sentiment]int{
		models.SentimentPositive: 3,
		models.SentimentNegative: 1,
		models.SentimentNeutral:  1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Counts() = %v, want %v", got, want)
	}

	empty := Counts(nil)
	if empty[models.SentimentNegative] != 0 || len(empty) != 3 {
		t.Errorf("Counts(nil) = %v, want zero for every sentiment", empty)
	}
}
