package domain

import "time"

// Review is one scraped review record as it appears in the input file.
type Review struct {
	Name       string   `json:"name"`
	Link       string   `json:"link"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Rating     *float64 `json:"rating"`
	Date       string   `json:"date"`
	Snippet    string   `json:"snippet,omitempty"`
	Text       string   `json:"text"`
	Images     []string `json:"images"`
	LocalGuide bool     `json:"local_guide,omitempty"`
	Page       int      `json:"page,omitempty"`
}

// RatingValue returns the rating, or 0 when the review has none.
func (r Review) RatingValue() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// ClassifiedReview is created once per input review and never mutated afterwards.
// Error is non-empty only when the fallback classification was used.
type ClassifiedReview struct {
	ReviewID    string    `json:"review_id"`
	Author      string    `json:"author"`
	Rating      *float64  `json:"rating"`
	Text        string    `json:"text"`
	Date        string    `json:"date"`
	Images      []string  `json:"images"`
	Analysis    Analysis  `json:"analysis"`
	ProcessedAt time.Time `json:"processed_at"`
	Error       string    `json:"error,omitempty"`
}

func (c ClassifiedReview) Failed() bool {
	return c.Error != ""
}
