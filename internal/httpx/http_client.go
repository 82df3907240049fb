// Package httpx holds the HTTP client shared by the model providers and the
// Slack notifier.
package httpx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 90 * time.Second

var shared = &http.Client{
	Timeout:   defaultTimeout,
	Transport: &loggingTransport{next: http.DefaultTransport},
}

// ExternalHTTPClient returns the client used for every outbound call.
func ExternalHTTPClient() *http.Client {
	return shared
}

// SetTimeout applies timeoutSeconds to the shared client, falling back to 90s
// when it is not positive, and returns the timeout in effect.
func SetTimeout(timeoutSeconds int) time.Duration {
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	shared.Timeout = timeout
	return timeout
}

// loggingTransport records each outbound request at debug level. Query
// strings and headers are left out since they can carry credentials.
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	ev := log.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Dur("elapsed", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("outbound request failed")
		return nil, err
	}
	ev.Int("status", resp.StatusCode).Msg("outbound request")
	return resp, nil
}
