package analyzer

import (
	"math"
	"sort"

	"reviewsentiment/internal/domain"
)

const (
	topThemes         = 10
	topDimensions     = 5
	highSeverityFloor = 4
)

// Aggregate computes the summary statistics over every classified record,
// fallbacks included. An empty slice yields the empty block.
func Aggregate(records []domain.ClassifiedReview) domain.Statistics {
	if len(records) == 0 {
		return domain.Statistics{}
	}
	total := len(records)

	counts := make(map[domain.Sentiment]int, len(domain.Sentiments))
	for _, s := range domain.Sentiments {
		counts[s] = 0
	}
	histogram := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	themes := newCounter()
	dims := newCounter()

	var scoreSum float64
	var severitySum, negatives, highSeverity int
	for _, r := range records {
		a := r.Analysis
		counts[a.Sentiment]++
		scoreSum += a.SentimentScore

		if r.Rating != nil {
			v := *r.Rating
			if v == math.Trunc(v) && v >= 1 && v <= 5 {
				histogram[int(v)]++
			}
		}
		for _, t := range a.KeyThemes {
			themes.add(t)
		}
		for _, f := range a.Dimensions {
			dims.add(string(f.Name))
		}
		if a.Sentiment == domain.SentimentNegative {
			negatives++
			severitySum += a.Severity
			if a.Severity >= highSeverityFloor {
				highSeverity++
			}
		}
	}

	percentages := make(map[domain.Sentiment]float64, len(counts))
	for s, n := range counts {
		percentages[s] = round(100*float64(n)/float64(total), 2)
	}

	var rated, ratingSum int
	for stars, n := range histogram {
		rated += n
		ratingSum += stars * n
	}
	var avgRating float64
	if rated > 0 {
		avgRating = round(float64(ratingSum)/float64(rated), 2)
	}
	var avgSeverity float64
	if negatives > 0 {
		avgSeverity = round(float64(severitySum)/float64(negatives), 2)
	}

	return domain.Statistics{
		TotalReviews: total,
		SentimentDistribution: domain.SentimentDistribution{
			Counts:      counts,
			Percentages: percentages,
		},
		AverageSentimentScore: round(scoreSum/float64(total), 3),
		RatingDistribution:    histogram,
		AverageRating:         avgRating,
		TopThemes:             themes.top(topThemes),
		TopDimensions:         dims.top(topDimensions),
		AverageSeverity:       avgSeverity,
		HighSeverityCount:     highSeverity,
	}
}

// counter tallies names and remembers the order they were first seen in, so
// equal counts rank by first appearance.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(name string) {
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) top(n int) []domain.RankedCount {
	out := make([]domain.RankedCount, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, domain.RankedCount{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
