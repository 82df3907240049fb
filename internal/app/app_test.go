package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"INPUT_PATH", "OUTPUT_PATH", "APP_ENV", "METRICS_ADDR", "SCHEDULE",
		"SLACK_BOT_TOKEN", "REPORT_CHANNEL_ID", "LLM_MAX_RETRIES",
		"EXTERNAL_HTTP_TIMEOUT_SECONDS", "LLM_RATE_LIMIT_RPS", "DELAY_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id": "c1", "object": "chat.completion", "created": 1, "model": "gpt-4",
		"choices": []map[string]any{{
			"index": 0, "finish_reason": "stop",
			"message": map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newFakeOpenAI(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		text := string(body)
		var content string
		switch {
		case strings.Contains(text, "Analyze this review") && strings.Contains(text, "wonderful"):
			content = `{"sentiment":"positive","confidence":0.9,"sentiment_score":0.8,"dimensions":[{"name":"Service Quality","sentiment":"positive","key_points":["caring nurses"]}],"key_themes":["staff"],"severity":0,"summary":"Praises nurses"}`
		case strings.Contains(text, "Analyze this review"):
			content = `{"sentiment":"negative","confidence":0.8,"sentiment_score":-0.7,"dimensions":[{"name":"Operations","sentiment":"negative","key_points":["long wait"]}],"key_themes":["wait"],"severity":4,"summary":"Waited hours"}`
		default:
			content = `{"summary":"Bucket summary","key_insights":["insight"],"recommendations":["recommendation"]}`
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(content))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRunEndToEnd(t *testing.T) {
	isolateEnv(t)
	srv, calls := newFakeOpenAI(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_BASE_URL", srv.URL+"/v1/")

	dir := t.TempDir()
	input := filepath.Join(dir, "reviews.json")
	output := filepath.Join(dir, "out", "analysis.json")
	reviews := `{"reviews": [
		{"name": "Huda", "link": "https://www.google.com/maps/contrib/987/reviews", "rating": 5, "date": "a week ago", "text": "wonderful care"},
		{"name": "Omar", "rating": 1, "date": "2 weeks ago", "text": "waited four hours"}
	]}`
	if err := os.WriteFile(input, []byte(reviews), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{input, "-o", output, "-d", "0"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	// 2 classifications, 2 sentiment buckets, 2 non-empty dimension buckets.
	if *calls != 6 {
		t.Fatalf("expected 6 model calls, got %d", *calls)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var rep struct {
		Metadata struct {
			TotalReviews         int    `json:"total_reviews"`
			SuccessfullyAnalyzed int    `json:"successfully_analyzed"`
			FailedAnalyses       int    `json:"failed_analyses"`
			Model                string `json:"model"`
		} `json:"metadata"`
		SummaryStatistics struct {
			AverageRating     float64 `json:"average_rating"`
			HighSeverityCount int     `json:"high_severity_count"`
		} `json:"summary_statistics"`
		DimensionSummaries map[string]map[string]struct {
			ReviewCount int    `json:"review_count"`
			Summary     string `json:"summary"`
		} `json:"dimension_summaries"`
		AnalyzedReviews []struct {
			ReviewID string `json:"review_id"`
		} `json:"analyzed_reviews"`
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if rep.Metadata.TotalReviews != 2 || rep.Metadata.SuccessfullyAnalyzed != 2 || rep.Metadata.FailedAnalyses != 0 {
		t.Fatalf("unexpected metadata %+v", rep.Metadata)
	}
	if rep.Metadata.Model != "gpt-4" {
		t.Fatalf("unexpected model %q", rep.Metadata.Model)
	}
	if rep.SummaryStatistics.AverageRating != 3 || rep.SummaryStatistics.HighSeverityCount != 1 {
		t.Fatalf("unexpected statistics %+v", rep.SummaryStatistics)
	}
	if got := rep.DimensionSummaries["Operations"]["negative"]; got.ReviewCount != 1 || got.Summary != "Bucket summary" {
		t.Fatalf("unexpected operations summary %+v", got)
	}
	if rep.AnalyzedReviews[0].ReviewID != "987" || rep.AnalyzedReviews[1].ReviewID != "Omar_2_weeks_ago" {
		t.Fatalf("unexpected review ids %+v", rep.AnalyzedReviews)
	}
	if !strings.Contains(stdout.String(), "ANALYSIS SUMMARY") || !strings.Contains(stdout.String(), "Results saved to: "+output) {
		t.Fatalf("unexpected console summary:\n%s", stdout.String())
	}
}

func TestRunMissingCredential(t *testing.T) {
	isolateEnv(t)
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"reviews.json"}, &stdout, &stderr)
	if code != exitError {
		t.Fatalf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(stderr.String(), "OPENAI_API_KEY") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestRunInvalidInputWritesNothing(t *testing.T) {
	isolateEnv(t)
	srv, calls := newFakeOpenAI(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_BASE_URL", srv.URL+"/v1/")

	dir := t.TempDir()
	input := filepath.Join(dir, "reviews.json")
	output := filepath.Join(dir, "analysis.json")
	if err := os.WriteFile(input, []byte(`"just a string"`), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{input, "-o", output}, &stdout, &stderr)
	if code != exitError {
		t.Fatalf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(stderr.String(), "invalid input structure") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("no output file should be written, stat err=%v", err)
	}
	if *calls != 0 {
		t.Fatalf("expected no model calls, got %d", *calls)
	}
}

func TestRunMissingInputFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.json")}, &stdout, &stderr)
	if code != exitError || !strings.Contains(stderr.String(), "input file not found") {
		t.Fatalf("unexpected result %d: %s", code, stderr.String())
	}
}

func TestRunScheduledMissingInputIsFatal(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SCHEDULE", "0 9 * * *")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var stdout, stderr bytes.Buffer
	code := Run(ctx, []string{filepath.Join(t.TempDir(), "nope.json")}, &stdout, &stderr)
	if code != exitError || !strings.Contains(stderr.String(), "input file not found") {
		t.Fatalf("unexpected result %d: %s", code, stderr.String())
	}
	if ctx.Err() != nil {
		t.Fatal("scheduled run waited for the next activation instead of failing")
	}
}

func TestRunScheduledInterruptExits130(t *testing.T) {
	isolateEnv(t)
	srv, calls := newFakeOpenAI(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_BASE_URL", srv.URL+"/v1/")
	t.Setenv("SCHEDULE", "0 9 * * *")

	dir := t.TempDir()
	input := filepath.Join(dir, "reviews.json")
	output := filepath.Join(dir, "analysis.json")
	if err := os.WriteFile(input, []byte(`[{"name": "Huda", "rating": 5, "text": "wonderful care"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := Run(ctx, []string{input, "-o", output}, &stdout, &stderr)
	if code != exitInterrupted {
		t.Fatalf("expected exit %d, got %d: %s", exitInterrupted, code, stderr.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("partial results not saved: %v", err)
	}
	if *calls != 0 {
		t.Fatalf("expected no model calls, got %d", *calls)
	}
}
