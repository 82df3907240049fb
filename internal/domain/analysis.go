package domain

import "strings"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentDoubtful Sentiment = "doubtful"
)

// Sentiments lists the review-level tags in report order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentDoubtful}

// SummarySentiments are the buckets that get a narrative summary. Neutral and
// doubtful reviews only show up in the statistics block.
var SummarySentiments = []Sentiment{SentimentPositive, SentimentNegative}

// ParseSentiment lower-cases s. Values outside the known set are kept as-is so
// the statistics can still count them.
func ParseSentiment(s string) Sentiment {
	return Sentiment(strings.ToLower(strings.TrimSpace(s)))
}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentDoubtful:
		return true
	}
	return false
}

type Dimension string

const (
	DimensionServiceQuality     Dimension = "Service Quality"
	DimensionFacilityExperience Dimension = "Facility Experience"
	DimensionClinicalCare       Dimension = "Clinical Care"
	DimensionOperations         Dimension = "Operations"
	DimensionTrustSafety        Dimension = "Trust & Safety"
)

var Dimensions = []Dimension{
	DimensionServiceQuality,
	DimensionFacilityExperience,
	DimensionClinicalCare,
	DimensionOperations,
	DimensionTrustSafety,
}

// DimensionDescriptions feed the classification prompt.
var DimensionDescriptions = map[Dimension]string{
	DimensionServiceQuality:     "Staff behavior, communication, responsiveness",
	DimensionFacilityExperience: "Cleanliness, infrastructure, amenities",
	DimensionClinicalCare:       "Treatment quality, medical outcomes",
	DimensionOperations:         "Scheduling, billing, administrative processes",
	DimensionTrustSafety:        "Safety protocols, privacy, reliability",
}

// IsCanonical reports whether d is one of the five fixed dimensions. The model
// may emit other names; those are passed through, not rejected.
func (d Dimension) IsCanonical() bool {
	for _, c := range Dimensions {
		if d == c {
			return true
		}
	}
	return false
}

type DimensionFinding struct {
	Name      Dimension `json:"name"`
	Sentiment Sentiment `json:"sentiment"` // positive, negative or neutral
	KeyPoints []string  `json:"key_points"`
}

const (
	MaxSeverity = 5
	// UnknownValue backfills string fields the model left out.
	UnknownValue = "unknown"
)

type Analysis struct {
	Sentiment      Sentiment          `json:"sentiment"`
	Confidence     float64            `json:"confidence"`
	SentimentScore float64            `json:"sentiment_score"`
	Dimensions     []DimensionFinding `json:"dimensions"`
	KeyThemes      []string           `json:"key_themes"`
	Severity       int                `json:"severity"` // 0..5, meaningful only for negative
	Summary        string             `json:"summary"`
}
