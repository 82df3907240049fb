package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reviewsentiment/internal/domain"
	"reviewsentiment/internal/integrations/llm"
)

// Options control one batch run. Provider and Model only label the report.
type Options struct {
	MaxRetries int
	Delay      time.Duration
	Provider   string
	Model      string
}

// Analyzer runs the whole pipeline over a list of reviews.
type Analyzer struct {
	classifier *Classifier
	summarizer *Summarizer
	opts       Options
	sleep      func(context.Context, time.Duration) bool
	now        func() time.Time
}

func New(c llm.Completer, opts Options) *Analyzer {
	return &Analyzer{
		classifier: NewClassifier(c, opts.MaxRetries),
		summarizer: NewSummarizer(c),
		opts:       opts,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

// RunBatch classifies reviews one at a time, pausing Delay between items, then
// aggregates and summarises. If ctx is cancelled between items, the reviews
// processed so far are returned in a report flagged interrupted, without
// narrative summaries.
func (a *Analyzer) RunBatch(ctx context.Context, reviews []domain.Review) domain.Report {
	start := a.now()
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Int("reviews", len(reviews)).Msg("starting batch")

	records := make([]domain.ClassifiedReview, 0, len(reviews))
	failed := 0
	interrupted := false
	for i, review := range reviews {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		res := a.classifier.Classify(ctx, review)
		records = append(records, res.Record)
		if res.Record.Failed() {
			failed++
		}
		logger.Info().
			Int("index", i+1).
			Int("total", len(reviews)).
			Str("review_id", res.Record.ReviewID).
			Str("sentiment", string(res.Record.Analysis.Sentiment)).
			Str("outcome", res.Outcome.String()).
			Int("attempts", res.Attempts).
			Msg("review processed")

		if i < len(reviews)-1 && a.opts.Delay > 0 {
			if !a.sleep(ctx, a.opts.Delay) {
				interrupted = true
				break
			}
		}
	}
	if ctx.Err() != nil {
		interrupted = true
	}

	stats := Aggregate(records)
	sentimentSummaries := domain.SentimentSummaries{}
	dimensionSummaries := domain.DimensionSummaries{}
	if interrupted {
		logger.Warn().Int("processed", len(records)).Int("reviews", len(reviews)).Msg("batch interrupted, skipping summaries")
	} else {
		sentimentSummaries = a.summarizer.SentimentSummaries(ctx, records)
		dimensionSummaries = a.summarizer.DimensionSummaries(ctx, records)
	}

	elapsed := a.now().Sub(start)
	meta := domain.Metadata{
		RunID:                   runID,
		Provider:                a.opts.Provider,
		Model:                   a.opts.Model,
		InputReviews:            len(reviews),
		TotalReviews:            len(records),
		SuccessfullyAnalyzed:    len(records) - failed,
		FailedAnalyses:          failed,
		AnalysisDate:            a.now().UTC(),
		ProcessingTimePerReview: a.opts.Delay.Seconds(),
		DurationSeconds:         round(elapsed.Seconds(), 3),
		Interrupted:             interrupted,
	}
	if len(records) > 0 {
		meta.SecondsPerReview = round(elapsed.Seconds()/float64(len(records)), 3)
	}

	logger.Info().
		Int("total", meta.TotalReviews).
		Int("failed", meta.FailedAnalyses).
		Float64("duration_seconds", meta.DurationSeconds).
		Bool("interrupted", interrupted).
		Msg("batch finished")
	return AssembleReport(meta, stats, sentimentSummaries, dimensionSummaries, records)
}
