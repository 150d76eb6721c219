package mocks

// GlobalQuote is the "Global Quote" object of a GLOBAL_QUOTE response.
type GlobalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	LatestDay     string `json:"07. latest trading day"`
	PrevClose     string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

// Overview is an OVERVIEW response.
type Overview struct {
	Symbol    string `json:"Symbol"`
	Name      string `json:"Name"`
	Exchange  string `json:"Exchange"`
	Currency  string `json:"Currency"`
	MarketCap string `json:"MarketCapitalization"`
	PERatio   string `json:"PERatio"`
}

// NewsArticle is one entry of a NEWS_SENTIMENT feed.
type NewsArticle struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	Summary          string  `json:"summary"`
	Source           string  `json:"source"`
	TimePublished    string  `json:"time_published"`
	OverallSentiment string  `json:"overall_sentiment_label"`
	SentimentScore   float64 `json:"overall_sentiment_score"`
	Topics           []Topic `json:"topics"`
}

// Topic tags a news article.
type Topic struct {
	Topic     string `json:"topic"`
	Relevance string `json:"relevance_score"`
}

// Fault makes the mock answer a function with an error.
type Fault struct {
	// StatusCode is written when non-zero.
	StatusCode int
	// Note is returned as a rate limit message with HTTP 200 when set.
	Note string
}
