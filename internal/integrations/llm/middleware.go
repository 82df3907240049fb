package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"reviewsentiment/internal/observability"
)

type instrumented struct {
	next     Completer
	provider string
	model    string
}

// Instrument records latency and outcome of every call.
func Instrument(c Completer, provider, model string) Completer {
	return &instrumented{next: c, provider: provider, model: model}
}

func (i *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, req)
	dur := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrEmptyResponse):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	observability.ObserveLLM(i.provider, req.Purpose, outcome, dur)

	log.Debug().
		Str("provider", i.provider).
		Str("model", i.model).
		Str("purpose", req.Purpose).
		Str("outcome", outcome).
		Int("response_size", len(text)).
		Dur("duration", dur).
		Msg("llm call")
	return text, err
}

type limited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit gates calls through a token bucket. rps <= 0 disables it; the
// batch loop's fixed delay is the primary pacing mechanism.
func WithRateLimit(c Completer, rps float64) Completer {
	if rps <= 0 {
		return c
	}
	return &limited{next: c, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (l *limited) Complete(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", callError("rate limit", err)
	}
	return l.next.Complete(ctx, req)
}
