// Package report renders a finished analysis for people: the console summary
// printed after a run and the short digest posted to Slack.
package report

import (
	"fmt"
	"sort"
	"strings"

	"reviewsentiment/internal/domain"
)

const (
	consoleThemes   = 5
	consoleInsights = 3
)

// FormatSummary renders the console run summary.
func FormatSummary(rep domain.Report, outputPath string) string {
	m := rep.Metadata
	s := rep.SummaryStatistics
	rule := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nANALYSIS SUMMARY\n%s\n", rule, rule)
	if m.Interrupted {
		fmt.Fprintf(&b, "Run interrupted: %d of %d reviews processed\n", m.TotalReviews, m.InputReviews)
	}
	fmt.Fprintf(&b, "Total Reviews: %d\n", m.TotalReviews)
	fmt.Fprintf(&b, "Successfully Analyzed: %d\n", m.SuccessfullyAnalyzed)
	fmt.Fprintf(&b, "Failed Analyses: %d\n", m.FailedAnalyses)
	fmt.Fprintf(&b, "Average Rating: %s/5\n", formatNumber(s.AverageRating))
	fmt.Fprintf(&b, "Average Sentiment Score: %s\n", formatNumber(s.AverageSentimentScore))

	b.WriteString("\nSentiment Distribution:\n")
	for _, sentiment := range orderedSentiments(s.SentimentDistribution.Percentages) {
		fmt.Fprintf(&b, "  %s: %s%%\n", titleCase(string(sentiment)), formatNumber(s.SentimentDistribution.Percentages[sentiment]))
	}

	b.WriteString("\nTop Themes:\n")
	for i, theme := range s.TopThemes {
		if i == consoleThemes {
			break
		}
		fmt.Fprintf(&b, "  %s: %d mentions\n", theme.Name, theme.Count)
	}

	if len(rep.SentimentSummaries) > 0 {
		b.WriteString("\nOVERALL SENTIMENT INSIGHTS:\n")
		for _, sentiment := range domain.SummarySentiments {
			sum, ok := rep.SentimentSummaries[sentiment]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n%s REVIEWS:\n", strings.ToUpper(string(sentiment)))
			fmt.Fprintf(&b, "  Summary: %s\n", orNA(sum.Summary))
			b.WriteString("  Key Insights:\n")
			for i, insight := range sum.KeyInsights {
				if i == consoleInsights {
					break
				}
				fmt.Fprintf(&b, "    • %s\n", insight)
			}
		}
	}

	if len(rep.DimensionSummaries) > 0 {
		b.WriteString("\nDIMENSION-WISE INSIGHTS:\n")
		for _, dim := range domain.Dimensions {
			perSentiment, ok := rep.DimensionSummaries[dim]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(dim)))
			for _, sentiment := range domain.SummarySentiments {
				sum, ok := perSentiment[sentiment]
				if !ok || sum.ReviewCount == nil || *sum.ReviewCount == 0 {
					continue
				}
				fmt.Fprintf(&b, "  %s (%d reviews):\n", titleCase(string(sentiment)), *sum.ReviewCount)
				fmt.Fprintf(&b, "    Summary: %s\n", orNA(sum.Summary))
				if len(sum.KeyInsights) > 0 {
					fmt.Fprintf(&b, "    Top Insight: %s\n", sum.KeyInsights[0])
				}
			}
		}
	}

	if outputPath != "" {
		fmt.Fprintf(&b, "\nResults saved to: %s\n", outputPath)
	}
	return b.String()
}

// SlackDigest is the short mrkdwn message posted after a run.
func SlackDigest(rep domain.Report) string {
	m := rep.Metadata
	s := rep.SummaryStatistics

	var b strings.Builder
	fmt.Fprintf(&b, "*Review sentiment report* (%s)\n", m.AnalysisDate.Format("2006-01-02 15:04 MST"))
	if m.Interrupted {
		fmt.Fprintf(&b, ":warning: run interrupted after %d of %d reviews\n", m.TotalReviews, m.InputReviews)
	}
	fmt.Fprintf(&b, "Reviews: %d analysed, %d fallback\n", m.SuccessfullyAnalyzed, m.FailedAnalyses)
	if s.Empty() {
		return b.String()
	}
	fmt.Fprintf(&b, "Average rating: %s/5 · average score: %s\n", formatNumber(s.AverageRating), formatNumber(s.AverageSentimentScore))

	var parts []string
	for _, sentiment := range orderedSentiments(s.SentimentDistribution.Percentages) {
		parts = append(parts, fmt.Sprintf("%s %s%%", sentiment, formatNumber(s.SentimentDistribution.Percentages[sentiment])))
	}
	fmt.Fprintf(&b, "Sentiment: %s\n", strings.Join(parts, ", "))
	if s.HighSeverityCount > 0 {
		fmt.Fprintf(&b, "High severity complaints: %d\n", s.HighSeverityCount)
	}
	if neg, ok := rep.SentimentSummaries[domain.SentimentNegative]; ok && len(neg.Recommendations) > 0 {
		b.WriteString("Top recommendations:\n")
		for i, rec := range neg.Recommendations {
			if i == consoleInsights {
				break
			}
			fmt.Fprintf(&b, "• %s\n", rec)
		}
	}
	return b.String()
}

// orderedSentiments lists the known tags first, then any other tag in sorted
// order.
func orderedSentiments(m map[domain.Sentiment]float64) []domain.Sentiment {
	out := make([]domain.Sentiment, 0, len(m))
	for _, s := range domain.Sentiments {
		if _, ok := m[s]; ok {
			out = append(out, s)
		}
	}
	var extra []domain.Sentiment
	for s := range m {
		if !s.Valid() {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func formatNumber(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
