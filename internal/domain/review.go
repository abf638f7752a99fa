package domain

import (
	"strings"
	"time"
)

// SentimentLabel is the coarse polarity of a single review.
type SentimentLabel string

const (
	// SentimentPositive marks a favorable review.
	SentimentPositive SentimentLabel = "Positive"
	// SentimentNegative marks an unfavorable review.
	SentimentNegative SentimentLabel = "Negative"
	// SentimentNeutral marks a review with no clear polarity.
	SentimentNeutral SentimentLabel = "Neutral"
	// SentimentUnknown is the degraded result when classification failed
	// or produced text outside the label set.
	SentimentUnknown SentimentLabel = "Unknown"
)

// ParseSentiment maps raw model output onto a SentimentLabel.
// Anything that is not exactly one of the three known labels
// (after trimming and case folding) collapses to SentimentUnknown.
func ParseSentiment(s string) SentimentLabel {
	switch strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "."))) {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	case "neutral":
		return SentimentNeutral
	default:
		return SentimentUnknown
	}
}

// ReviewRecord is one extracted review enriched with its sentiment.
// Records are immutable once written and feed the analytics record store;
// they are independent of the chunks indexed for retrieval.
type ReviewRecord struct {
	EntityName string         `json:"entityName,omitempty"`
	Comment    string         `json:"comment"`
	Sentiment  SentimentLabel `json:"sentiment"`
	CapturedAt time.Time      `json:"capturedAt"`
	SourceURL  string         `json:"sourceUrl"`
}
