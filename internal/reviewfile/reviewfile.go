// Package reviewfile reads scraped review exports and writes analysis reports.
package reviewfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"reviewsentiment/internal/domain"
)

var (
	ErrInvalidInputStructure = errors.New("invalid input structure")
	ErrFileNotFound          = errors.New("input file not found")
	ErrFileUnreadable        = errors.New("input file unreadable")
	ErrInvalidJSON           = errors.New("invalid JSON in input file")
)

// listKeys are the object keys that may wrap the review list, in lookup order.
var listKeys = []string{"reviews", "data", "items"}

// Load reads and parses the review file at path.
func Load(path string) ([]domain.Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFileUnreadable, path, err)
	}
	reviews, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("reviews", len(reviews)).Msg("loaded reviews")
	return reviews, nil
}

// Parse accepts {"reviews": [...]}, a bare list, {"data": [...]},
// {"items": [...]} or a single review object.
func Parse(data []byte) ([]domain.Review, error) {
	if !gjson.ValidBytes(data) {
		var syntax json.RawMessage
		err := json.Unmarshal(data, &syntax)
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	root := gjson.ParseBytes(data)
	list := root
	switch {
	case root.IsArray():
	case root.IsObject():
		list = gjson.Result{}
		for _, key := range listKeys {
			if v := root.Get(key); v.IsArray() {
				list = v
				break
			}
		}
		if !list.IsArray() {
			// A lone review object.
			var r domain.Review
			if err := json.Unmarshal([]byte(root.Raw), &r); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidInputStructure, err)
			}
			return []domain.Review{r}, nil
		}
	default:
		return nil, fmt.Errorf("%w: expected a list or object of reviews, got %s", ErrInvalidInputStructure, root.Type)
	}

	reviews := make([]domain.Review, 0, len(list.Array()))
	for i, item := range list.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("%w: review %d is not an object", ErrInvalidInputStructure, i)
		}
		var r domain.Review
		if err := json.Unmarshal([]byte(item.Raw), &r); err != nil {
			return nil, fmt.Errorf("%w: review %d: %w", ErrInvalidInputStructure, i, err)
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// Save writes the report as indented UTF-8 JSON. Non-ASCII text and the HTML
// characters are written literally.
func Save(path string, report domain.Report) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("reviews", len(report.AnalyzedReviews)).Msg("report saved")
	return nil
}
