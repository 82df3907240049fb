package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"reviewsentiment/internal/domain"
)

var contribIDPattern = regexp.MustCompile(`/contrib/(\d+)`)

// ReviewID returns the numeric contributor id from the review's profile link,
// or "{name}_{date}" with spaces and slashes replaced when there is none.
// Two reviews by the same name on the same date collide; that is accepted.
func ReviewID(r domain.Review) string {
	if r.Link != "" {
		if m := contribIDPattern.FindStringSubmatch(r.Link); len(m) == 2 {
			return m[1]
		}
	}

	name := r.Name
	if name == "" {
		name = domain.UnknownValue
	}
	date := r.Date
	if date == "" {
		date = domain.UnknownValue
	}
	id := fmt.Sprintf("%s_%s", name, date)
	return strings.NewReplacer(" ", "_", "/", "_").Replace(id)
}
