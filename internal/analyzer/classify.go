package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"reviewsentiment/internal/domain"
	"reviewsentiment/internal/integrations/llm"
	"reviewsentiment/internal/observability"
)

const (
	DefaultMaxRetries  = 2
	fallbackConfidence = 0.3
)

type Outcome int

const (
	OutcomeClassified Outcome = iota
	OutcomeFallback
)

func (o Outcome) String() string {
	if o == OutcomeFallback {
		return "fallback"
	}
	return "classified"
}

// Result is what Classify hands back: always a usable record, plus how it was
// obtained.
type Result struct {
	Record   domain.ClassifiedReview
	Outcome  Outcome
	Attempts int
}

// Classifier sends one review at a time to the model. It never returns an
// error: anything that goes wrong ends in the rating-only fallback.
type Classifier struct {
	llm        llm.Completer
	maxRetries int
	sleep      func(context.Context, time.Duration) bool
	now        func() time.Time
}

func NewClassifier(c llm.Completer, maxRetries int) *Classifier {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Classifier{
		llm:        c,
		maxRetries: maxRetries,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

func (c *Classifier) Classify(ctx context.Context, review domain.Review) Result {
	reviewID := ReviewID(review)
	req := llm.Request{
		Purpose:     "classify",
		System:      classifySystemPrompt,
		User:        classificationPrompt(review),
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	}

	var lastErr string
	attempts := 0
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := retryBackoff(attempt)
			log.Info().
				Str("review_id", reviewID).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("retrying classification")
			observability.ObserveRetry()
			if !c.sleep(ctx, wait) {
				break
			}
		}

		attempts++
		analysis, err := c.attempt(ctx, req)
		if err == nil {
			for _, f := range analysis.Dimensions {
				if !f.Name.IsCanonical() {
					log.Debug().Str("review_id", reviewID).Str("dimension", string(f.Name)).Msg("dimension outside the fixed set kept as-is")
				}
			}
			observability.ObserveReview(OutcomeClassified.String())
			return Result{
				Record:   c.record(review, reviewID, analysis, ""),
				Outcome:  OutcomeClassified,
				Attempts: attempts,
			}
		}

		lastErr = fmt.Sprintf("%s (attempt %d): %v", errorKind(err), attempt+1, err)
		log.Warn().
			Str("review_id", reviewID).
			Int("attempt", attempt+1).
			Int("max_attempts", c.maxRetries+1).
			Err(err).
			Msg("classification attempt failed")
	}

	log.Warn().Str("review_id", reviewID).Str("error", lastErr).Msg("using fallback classification")
	observability.ObserveReview(OutcomeFallback.String())
	return Result{
		Record:   c.record(review, reviewID, fallbackAnalysis(review.RatingValue(), lastErr), lastErr),
		Outcome:  OutcomeFallback,
		Attempts: attempts,
	}
}

func (c *Classifier) attempt(ctx context.Context, req llm.Request) (domain.Analysis, error) {
	raw, err := c.llm.Complete(ctx, req)
	if err != nil {
		return domain.Analysis{}, err
	}
	cleaned, err := llm.ExtractJSON(raw)
	if err != nil {
		return domain.Analysis{}, err
	}
	return parseAnalysis(cleaned)
}

func (c *Classifier) record(r domain.Review, id string, a domain.Analysis, errMsg string) domain.ClassifiedReview {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return domain.ClassifiedReview{
		ReviewID:    id,
		Author:      r.Name,
		Rating:      r.Rating,
		Text:        r.Text,
		Date:        r.Date,
		Images:      images,
		Analysis:    a,
		ProcessedAt: c.now(),
		Error:       errMsg,
	}
}

// retryBackoff is the wait before retry number attempt (1-based): 2^attempt+1 seconds.
func retryBackoff(attempt int) time.Duration {
	return time.Duration((1<<attempt)+1) * time.Second
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, llm.ErrDecode):
		return "JSON parsing error"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "Empty response"
	default:
		return "API error"
	}
}

type wireFinding struct {
	Name      string   `json:"name"`
	Sentiment string   `json:"sentiment"`
	KeyPoints []string `json:"key_points"`
}

type wireAnalysis struct {
	Sentiment      string        `json:"sentiment"`
	Confidence     float64       `json:"confidence"`
	SentimentScore float64       `json:"sentiment_score"`
	Dimensions     []wireFinding `json:"dimensions"`
	KeyThemes      []string      `json:"key_themes"`
	Severity       float64       `json:"severity"`
	Summary        string        `json:"summary"`
}

// parseAnalysis decodes the model's JSON object and backfills any of the seven
// required fields it left out: containers become empty, numbers 0, and strings
// "unknown".
func parseAnalysis(cleaned string) (domain.Analysis, error) {
	if !gjson.Valid(cleaned) || !gjson.Parse(cleaned).IsObject() {
		return domain.Analysis{}, fmt.Errorf("%w: response is not a JSON object: %s", llm.ErrDecode, truncateText(cleaned, 200))
	}
	var w wireAnalysis
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %w", llm.ErrDecode, err)
	}

	present := func(key string) bool {
		r := gjson.Get(cleaned, key)
		return r.Exists() && r.Type != gjson.Null
	}

	a := domain.Analysis{
		Sentiment:      domain.ParseSentiment(w.Sentiment),
		Confidence:     clamp(w.Confidence, 0, 1),
		SentimentScore: clamp(w.SentimentScore, -1, 1),
		Dimensions:     make([]domain.DimensionFinding, 0, len(w.Dimensions)),
		KeyThemes:      w.KeyThemes,
		Severity:       int(clamp(math.Round(w.Severity), 0, domain.MaxSeverity)),
		Summary:        w.Summary,
	}
	if !present("sentiment") || a.Sentiment == "" {
		a.Sentiment = domain.Sentiment(domain.UnknownValue)
	}
	if !present("summary") {
		a.Summary = domain.UnknownValue
	}
	if a.KeyThemes == nil {
		a.KeyThemes = []string{}
	}
	for _, f := range w.Dimensions {
		points := f.KeyPoints
		if points == nil {
			points = []string{}
		}
		a.Dimensions = append(a.Dimensions, domain.DimensionFinding{
			Name:      domain.Dimension(strings.TrimSpace(f.Name)),
			Sentiment: domain.ParseSentiment(f.Sentiment),
			KeyPoints: points,
		})
	}
	return a, nil
}

// fallbackAnalysis classifies from the star rating alone. A missing rating
// counts as 0 and so lands in negative.
func fallbackAnalysis(r float64, errMsg string) domain.Analysis {
	sentiment, score := domain.SentimentNeutral, 0.0
	switch {
	case r >= 4:
		sentiment, score = domain.SentimentPositive, 0.5
	case r <= 2:
		sentiment, score = domain.SentimentNegative, -0.5
	}
	return domain.Analysis{
		Sentiment:      sentiment,
		Confidence:     fallbackConfidence,
		SentimentScore: score,
		Dimensions:     []domain.DimensionFinding{},
		KeyThemes:      []string{},
		Severity:       0,
		Summary:        "Fallback analysis based on rating only. Error: " + errMsg,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
