package slackbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reviewsentiment/internal/domain"
)

func TestPostSummary(t *testing.T) {
	var gotChannel, gotText string
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/") != "chat.postMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls++
		_ = r.ParseForm()
		gotChannel = r.FormValue("channel")
		gotText = r.FormValue("text")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": gotChannel, "ts": "1700000000.000100"})
	}))
	t.Cleanup(server.Close)

	n := NewNotifier("xoxb-test", "C123", server.URL+"/api/", server.Client())
	rep := domain.Report{Metadata: domain.Metadata{RunID: "run-1", TotalReviews: 3, SuccessfullyAnalyzed: 2, FailedAnalyses: 1}}
	ts, err := n.PostSummary(context.Background(), rep)
	if err != nil {
		t.Fatalf("PostSummary: %v", err)
	}
	if calls != 1 || ts != "1700000000.000100" {
		t.Fatalf("unexpected calls=%d ts=%q", calls, ts)
	}
	if gotChannel != "C123" {
		t.Fatalf("unexpected channel %q", gotChannel)
	}
	if !strings.Contains(gotText, "Reviews: 2 analysed, 1 fallback") {
		t.Fatalf("unexpected text %q", gotText)
	}
}

func TestPostSummaryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	t.Cleanup(server.Close)

	n := NewNotifier("xoxb-test", "C404", server.URL+"/api/", nil)
	_, err := n.PostSummary(context.Background(), domain.Report{})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected channel_not_found error, got %v", err)
	}
}
