package analyzer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"reviewsentiment/internal/domain"
	"reviewsentiment/internal/integrations/llm"
	"reviewsentiment/internal/observability"
)

const maxSummaryItems = 10

// dimensionBreakdown is one row of the per-dimension table in a sentiment
// summary prompt.
type dimensionBreakdown struct {
	Dimension domain.Dimension `json:"dimension"`
	Mentions  int              `json:"mentions"`
	Sentiment domain.Sentiment `json:"sentiment"` // from the first finding seen
	KeyPoints []string         `json:"key_points"`
}

type summaryPayload struct {
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"key_insights"`
	Recommendations []string `json:"recommendations"`
}

// Summarizer turns buckets of classified reviews into narrative summaries,
// one model call per non-empty bucket and no retries.
type Summarizer struct {
	llm llm.Completer
}

func NewSummarizer(c llm.Completer) *Summarizer {
	return &Summarizer{llm: c}
}

// SentimentSummaries covers the positive and negative buckets.
func (s *Summarizer) SentimentSummaries(ctx context.Context, records []domain.ClassifiedReview) domain.SentimentSummaries {
	out := make(domain.SentimentSummaries, len(domain.SummarySentiments))
	for _, sentiment := range domain.SummarySentiments {
		var bucket []domain.ClassifiedReview
		for _, r := range records {
			if r.Analysis.Sentiment == sentiment {
				bucket = append(bucket, r)
			}
		}
		if len(bucket) == 0 {
			out[sentiment] = domain.NarrativeSummary{
				Summary:         fmt.Sprintf("No %s reviews found.", sentiment),
				KeyInsights:     []string{},
				Recommendations: []string{},
			}
			observability.ObserveBucket("sentiment", "empty")
			continue
		}

		breakdown, keyPoints := breakdownOf(bucket)
		prompt := sentimentSummaryPrompt(sentiment, len(bucket), breakdown, keyPoints)
		summary, err := s.summarize(ctx, "sentiment_summary", prompt)
		if err != nil {
			log.Error().Err(err).Str("sentiment", string(sentiment)).Int("reviews", len(bucket)).Msg("sentiment summary failed")
			observability.ObserveBucket("sentiment", "error")
			out[sentiment] = domain.NarrativeSummary{
				Summary:         fmt.Sprintf("Error generating %s summary: %v", sentiment, err),
				KeyInsights:     []string{fmt.Sprintf("Analysis failed for %d %s reviews", len(bucket), sentiment)},
				Recommendations: []string{"Manual review recommended due to analysis failure"},
			}
			continue
		}
		log.Info().Str("sentiment", string(sentiment)).Int("reviews", len(bucket)).Msg("sentiment summary generated")
		observability.ObserveBucket("sentiment", "ok")
		out[sentiment] = summary
	}
	return out
}

// DimensionSummaries covers the five canonical dimensions crossed with
// positive and negative. review_count counts findings, so a review that lists
// the same dimension and sentiment twice contributes two mentions.
func (s *Summarizer) DimensionSummaries(ctx context.Context, records []domain.ClassifiedReview) domain.DimensionSummaries {
	out := make(domain.DimensionSummaries, len(domain.Dimensions))
	for _, dim := range domain.Dimensions {
		perSentiment := make(map[domain.Sentiment]domain.NarrativeSummary, len(domain.SummarySentiments))
		for _, sentiment := range domain.SummarySentiments {
			mentions := 0
			keyPoints := []string{}
			for _, r := range records {
				for _, f := range r.Analysis.Dimensions {
					if f.Name == dim && f.Sentiment == sentiment {
						mentions++
						keyPoints = append(keyPoints, f.KeyPoints...)
					}
				}
			}
			count := mentions

			if mentions == 0 {
				perSentiment[sentiment] = domain.NarrativeSummary{
					ReviewCount:    &count,
					Summary:         fmt.Sprintf("No %s mentions found for %s.", sentiment, dim),
					KeyInsights:     []string{},
					Recommendations: []string{},
				}
				observability.ObserveBucket("dimension", "empty")
				continue
			}

			prompt := dimensionSummaryPrompt(dim, sentiment, mentions, keyPoints)
			summary, err := s.summarize(ctx, "dimension_summary", prompt)
			if err != nil {
				log.Error().Err(err).Str("dimension", string(dim)).Str("sentiment", string(sentiment)).Msg("dimension summary failed")
				observability.ObserveBucket("dimension", "error")
				perSentiment[sentiment] = domain.NarrativeSummary{
					ReviewCount:    &count,
					Summary:         fmt.Sprintf("Error generating %s summary for %s: %v", sentiment, dim, err),
					KeyInsights:     []string{fmt.Sprintf("Analysis failed for %d %s mentions in %s", mentions, sentiment, dim)},
					Recommendations: []string{"Manual review recommended due to analysis failure"},
				}
				continue
			}
			observability.ObserveBucket("dimension", "ok")
			summary.ReviewCount = &count
			perSentiment[sentiment] = summary
		}
		out[dim] = perSentiment
	}
	return out
}

func (s *Summarizer) summarize(ctx context.Context, purpose, prompt string) (domain.NarrativeSummary, error) {
	raw, err := s.llm.Complete(ctx, llm.Request{
		Purpose:     purpose,
		System:      summarySystemPrompt,
		User:        prompt,
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return domain.NarrativeSummary{}, err
	}
	p, err := llm.Decode[summaryPayload](raw)
	if err != nil {
		return domain.NarrativeSummary{}, err
	}
	return domain.NarrativeSummary{
		Summary:         p.Summary,
		KeyInsights:     capItems(p.KeyInsights),
		Recommendations: capItems(p.Recommendations),
	}, nil
}

// breakdownOf groups the findings of a bucket by dimension name in first-seen
// order and collects every key point.
func breakdownOf(bucket []domain.ClassifiedReview) ([]dimensionBreakdown, []string) {
	rows := []dimensionBreakdown{}
	index := map[domain.Dimension]int{}
	keyPoints := []string{}
	for _, r := range bucket {
		for _, f := range r.Analysis.Dimensions {
			i, ok := index[f.Name]
			if !ok {
				i = len(rows)
				index[f.Name] = i
				rows = append(rows, dimensionBreakdown{Dimension: f.Name, Sentiment: f.Sentiment, KeyPoints: []string{}})
			}
			rows[i].Mentions++
			rows[i].KeyPoints = append(rows[i].KeyPoints, f.KeyPoints...)
			keyPoints = append(keyPoints, f.KeyPoints...)
		}
	}
	return rows, keyPoints
}

func capItems(items []string) []string {
	if items == nil {
		return []string{}
	}
	if len(items) > maxSummaryItems {
		return items[:maxSummaryItems]
	}
	return items
}

