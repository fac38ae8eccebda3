package types

import (
	"fmt"
	"strings"
)

// Institution represents a school returned by the rating service.
type Institution struct {
	ID         string  `json:"id"`
	LegacyID   int     `json:"legacy_id"`
	Name       string  `json:"name"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	NumRatings int     `json:"num_ratings"`
	AvgRating  float64 `json:"avg_rating"`
}

// InstructorRating represents an instructor record from the rating service,
// keyed by the service-assigned identifier.
type InstructorRating struct {
	ID                    string         `json:"id"`
	LegacyID              int            `json:"legacy_id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Department            string         `json:"department,omitempty"`
	AvgRating             float64        `json:"avg_rating"`
	AvgDifficulty         float64        `json:"avg_difficulty"`
	NumRatings            int            `json:"num_ratings"`
	WouldTakeAgainPercent float64        `json:"would_take_again_percent"`
	Link                  string         `json:"link,omitempty"`
	Reviews               []RatingReview `json:"reviews,omitempty"`
}

// RatingReview represents a single student review attached to an instructor
// on the rating service.
type RatingReview struct {
	SubjectCode    string  `json:"subject_code"`
	Comment        string  `json:"comment"`
	Rating         float64 `json:"rating"`
	Difficulty     float64 `json:"difficulty"`
	Grade          string  `json:"grade,omitempty"`
	WouldTakeAgain *bool   `json:"would_take_again,omitempty"`
	Tags           string  `json:"tags,omitempty"`
	Date           string  `json:"date,omitempty"`
}

// NewInstructorRating validates the fields an instructor record must carry
// at the connector boundary.
func NewInstructorRating(id, firstName, lastName string) (*InstructorRating, error) {
	if id == "" {
		return nil, fmt.Errorf("instructor rating: id is required")
	}
	if firstName == "" && lastName == "" {
		return nil, fmt.Errorf("instructor rating %s: a name is required", id)
	}
	return &InstructorRating{ID: id, FirstName: firstName, LastName: lastName}, nil
}

// FormattedName returns the instructor's display name.
func (i InstructorRating) FormattedName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// ReviewsForSubject returns the reviews whose subject code contains the
// given filter as a case-insensitive substring. An empty filter returns all
// reviews.
func (i *InstructorRating) ReviewsForSubject(filter string) []RatingReview {
	if filter == "" {
		return i.Reviews
	}
	needle := strings.ToLower(filter)
	var matched []RatingReview
	for _, r := range i.Reviews {
		if strings.Contains(strings.ToLower(r.SubjectCode), needle) {
			matched = append(matched, r)
		}
	}
	return matched
}

// SubjectsTaught returns the distinct subject codes covered by the
// instructor's reviews, upper-cased, in first-seen order.
func (i *InstructorRating) SubjectsTaught() []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, r := range i.Reviews {
		code := strings.ToUpper(strings.TrimSpace(r.SubjectCode))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		subjects = append(subjects, code)
	}
	return subjects
}
