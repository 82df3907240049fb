package domain

import (
	"encoding/json"
	"time"
)

type Metadata struct {
	RunID                   string    `json:"run_id"`
	Provider                string    `json:"provider,omitempty"`
	Model                   string    `json:"model,omitempty"`
	InputReviews            int       `json:"input_reviews"`
	TotalReviews            int       `json:"total_reviews"`
	SuccessfullyAnalyzed    int       `json:"successfully_analyzed"`
	FailedAnalyses          int       `json:"failed_analyses"`
	AnalysisDate            time.Time `json:"analysis_date"`
	ProcessingTimePerReview float64   `json:"processing_time_per_review"` // configured delay between calls, seconds
	DurationSeconds         float64   `json:"duration_seconds"`
	SecondsPerReview        float64   `json:"seconds_per_review"` // measured
	Interrupted             bool      `json:"interrupted,omitempty"`
}

type SentimentDistribution struct {
	Counts      map[Sentiment]int     `json:"counts"`
	Percentages map[Sentiment]float64 `json:"percentages"`
}

// RankedCount is one row of a top-N frequency table.
type RankedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Statistics struct {
	TotalReviews          int                   `json:"total_reviews"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	AverageSentimentScore float64               `json:"average_sentiment_score"`
	RatingDistribution    map[int]int           `json:"rating_distribution"`
	AverageRating         float64               `json:"average_rating"`
	TopThemes             []RankedCount         `json:"top_themes"`
	TopDimensions         []RankedCount         `json:"top_dimensions"`
	AverageSeverity       float64               `json:"average_severity"`
	HighSeverityCount     int                   `json:"high_severity_count"`
}

func (s Statistics) Empty() bool {
	return s.TotalReviews == 0
}

// MarshalJSON renders an empty block as {} rather than a set of zeroes.
func (s Statistics) MarshalJSON() ([]byte, error) {
	if s.Empty() {
		return []byte("{}"), nil
	}
	type plain Statistics
	return json.Marshal(plain(s))
}

// NarrativeSummary is the model-written digest of one bucket. ReviewCount is
// only set for dimension-level buckets.
type NarrativeSummary struct {
	ReviewCount     *int     `json:"review_count,omitempty"`
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"key_insights"`
	Recommendations []string `json:"recommendations"`
}

type SentimentSummaries map[Sentiment]NarrativeSummary

type DimensionSummaries map[Dimension]map[Sentiment]NarrativeSummary

// Report is the persisted output document of one batch run.
type Report struct {
	Metadata           Metadata           `json:"metadata"`
	SummaryStatistics  Statistics         `json:"summary_statistics"`
	SentimentSummaries SentimentSummaries `json:"sentiment_summaries"`
	DimensionSummaries DimensionSummaries `json:"dimension_summaries"`
	AnalyzedReviews    []ClassifiedReview `json:"analyzed_reviews"`
}
