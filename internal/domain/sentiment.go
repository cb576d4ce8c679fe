package domain

import "strings"

// Sentiment is the closed label set a classified feedback can carry.
type Sentiment string

const (
	// SentimentPositive marks clearly favorable feedback.
	SentimentPositive Sentiment = "positive"
	// SentimentNeutral marks mixed or indifferent feedback.
	SentimentNeutral Sentiment = "neutral"
	// SentimentNegative marks clearly unfavorable feedback.
	SentimentNegative Sentiment = "negative"
	// SentimentUnclassified marks a label the classifier returned outside the closed set.
	SentimentUnclassified Sentiment = "unclassified"
)

// NormalizeSentiment maps raw classifier output onto the closed label set.
// The model occasionally answers with extra whitespace, different casing or
// a trailing period; anything that still does not match becomes unclassified.
func NormalizeSentiment(raw string) Sentiment {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.TrimSuffix(label, ".")
	switch Sentiment(label) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(label)
	default:
		return SentimentUnclassified
	}
}
