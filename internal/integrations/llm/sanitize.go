package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// leadingLabels are stripped, in this order, from the start of a reply.
var leadingLabels = []string{
	"Here's the analysis:",
	"Here is the analysis:",
	"Analysis:",
	"```json",
	"```",
}

// ExtractJSON isolates the JSON object in a free-form model reply. It is a
// best-effort cut, not a validator; decoding may still fail.
func ExtractJSON(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", ErrEmptyResponse
	}

	for _, label := range leadingLabels {
		if len(cleaned) >= len(label) && strings.EqualFold(cleaned[:len(label)], label) {
			cleaned = strings.TrimSpace(cleaned[len(label):])
		}
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end != -1 && end > start {
		cleaned = cleaned[start : end+1]
	}
	return cleaned, nil
}

// Decode extracts the JSON object from raw and unmarshals it into T.
func Decode[T any](raw string) (T, error) {
	var out T
	cleaned, err := ExtractJSON(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, fmt.Errorf("%w: %w (response: %s)", ErrDecode, err, truncate(cleaned, 512))
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + fmt.Sprintf("... [truncated, total_length=%d]", len(s))
}
