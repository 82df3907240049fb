package analyzer

import "reviewsentiment/internal/domain"

// AssembleReport composes the output document. It does no computation of its
// own.
func AssembleReport(
	meta domain.Metadata,
	stats domain.Statistics,
	sentiment domain.SentimentSummaries,
	dimension domain.DimensionSummaries,
	records []domain.ClassifiedReview,
) domain.Report {
	if records == nil {
		records = []domain.ClassifiedReview{}
	}
	if sentiment == nil {
		sentiment = domain.SentimentSummaries{}
	}
	if dimension == nil {
		dimension = domain.DimensionSummaries{}
	}
	return domain.Report{
		Metadata:           meta,
		SummaryStatistics:  stats,
		SentimentSummaries: sentiment,
		DimensionSummaries: dimension,
		AnalyzedReviews:    records,
	}
}
