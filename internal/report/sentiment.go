package report

import (
	"strings"

	"tastymetrics/internal/catalog"
)

// Sentiment is the keyword classification of a single review text.
type Sentiment int

const (
	SentimentNone Sentiment = iota
	SentimentPositive
	SentimentNegative
	SentimentMixed
)

func (s Sentiment) String() string {
	switch s {
	case SentimentPositive:
		return "positive"
	case SentimentNegative:
		return "negative"
	case SentimentMixed:
		return "mixed"
	default:
		return "none"
	}
}

// ClassifySentiment applies the same case-insensitive substring match the
// brand-reviews query runs in SQL. A review matching both word lists is
// mixed and counts toward both totals; one matching neither counts toward
// neither.
func ClassifySentiment(review string) Sentiment {
	lower := strings.ToLower(review)
	pos := containsAny(lower, catalog.PositiveWords)
	neg := containsAny(lower, catalog.NegativeWords)

	switch {
	case pos && neg:
		return SentimentMixed
	case pos:
		return SentimentPositive
	case neg:
		return SentimentNegative
	default:
		return SentimentNone
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
