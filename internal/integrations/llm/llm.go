// Package llm is the boundary to the hosted language models. Callers build a
// Request, hand it to a Completer and get free-form text back; everything that
// goes wrong on the way surfaces as ErrCall or ErrEmptyResponse.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewsentiment/internal/config"
	"reviewsentiment/internal/httpx"
)

var (
	ErrEmptyResponse = errors.New("empty response from LLM")
	ErrDecode        = errors.New("json decode error")
	ErrCall          = errors.New("LLM call failed")
)

// Request is one system+user instruction pair.
type Request struct {
	Purpose     string // "classify", "sentiment_summary", "dimension_summary"; used for logs and metrics
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// New builds the provider client selected by cfg, wrapped with metrics and
// the optional rate limit. It is constructed once per process.
func New(cfg config.Config) (Completer, error) {
	hc := httpx.ExternalHTTPClient()
	var c Completer
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		c = newAnthropicCompleter(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMBaseURL, hc)
	case config.ProviderOpenAI:
		c = newOpenAICompleter(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMBaseURL, hc)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
	c = Instrument(c, cfg.LLMProvider, cfg.LLMModel)
	return WithRateLimit(c, cfg.LLMRateLimitRPS), nil
}

func callError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCall, provider, err)
}

func nonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
