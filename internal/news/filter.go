// Package news selects headlines by sentiment for display.
package news

import "stocksense/models"

// Filter returns the items matching criterion in their original order.
// FilterAll returns items unchanged.
func Filter(items []models.NewsItem, criterion models.NewsFilter) []models.NewsItem {
	if criterion == models.FilterAll || criterion == "" {
		return items
	}
	out := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		if criterion.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// ParseFilter parses a user-supplied criterion, case-insensitively
func ParseFilter(s string) (models.NewsFilter, error) {
	return models.ParseNewsFilter(s)
}

// Counts tallies items per sentiment, for labelling the filter controls
func Counts(items []models.NewsItem) map[models.Sentiment]int {
	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	for _, s := range models.Sentiments {
		counts[s] = 0
	}
	for _, item := range items {
		counts[item.Sentiment]++
	}
	return counts
}
