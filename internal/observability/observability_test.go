package observability_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewsentiment/internal/observability"
)

func TestMetricsRouter(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveLLM("openai", "classify", "ok", 15*time.Millisecond)
	observability.ObserveRetry()
	observability.ObserveReview("fallback")
	observability.ObserveBucket("dimension", "empty")

	h := observability.Router(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"reviewsentiment_llm_calls_total",
		"reviewsentiment_classify_retries_total",
		"reviewsentiment_reviews_processed_total",
		"reviewsentiment_summary_buckets_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := observability.NewLogger("prod", &buf)
	l.Info().Str("review_id", "123").Msg("classified")

	out := buf.String()
	if !strings.Contains(out, `"review_id":"123"`) || !strings.Contains(out, `"message":"classified"`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}
