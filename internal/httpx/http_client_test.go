package httpx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetTimeout(t *testing.T) {
	original := shared.Timeout
	t.Cleanup(func() { shared.Timeout = original })

	tests := []struct {
		seconds int
		want    time.Duration
	}{
		{0, 90 * time.Second},
		{-5, 90 * time.Second},
		{120, 120 * time.Second},
	}
	for _, tt := range tests {
		if got := SetTimeout(tt.seconds); got != tt.want {
			t.Fatalf("SetTimeout(%d) = %s, want %s", tt.seconds, got, tt.want)
		}
		if ExternalHTTPClient().Timeout != tt.want {
			t.Fatalf("client timeout = %s, want %s", ExternalHTTPClient().Timeout, tt.want)
		}
	}
}

func TestLoggingTransportRecordsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = original })

	resp, err := ExternalHTTPClient().Get(srv.URL + "/v1/chat?key=secret")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	line := buf.String()
	for _, want := range []string{`"method":"GET"`, `"path":"/v1/chat"`, `"status":418`, `"message":"outbound request"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
	if strings.Contains(line, "secret") {
		t.Fatalf("query string leaked into log: %s", line)
	}
}

func TestLoggingTransportRecordsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = original })

	if _, err := ExternalHTTPClient().Get(addr); err == nil {
		t.Fatal("expected a connection error")
	}
	if !strings.Contains(buf.String(), "outbound request failed") {
		t.Fatalf("failure not logged: %s", buf.String())
	}
}
