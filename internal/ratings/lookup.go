package ratings

import (
	"context"
	"log"
	"strings"

	"github.com/jonathan/course-compass/internal/types"
)

// CourseLookup is the aggregated result of resolving a set of instructor
// names against the rating service for one course.
type CourseLookup struct {
	InstitutionFound bool                     `json:"institution_found"`
	Institution      *types.Institution       `json:"institution,omitempty"`
	Instructors      []types.InstructorRating `json:"instructors"`
	NotFound         []string                 `json:"not_found,omitempty"`
	TotalSearched    int                      `json:"total_searched"`
	TotalReviews     int                      `json:"total_reviews"`
}

// LookupForCourse resolves the institution by name, searches each candidate
// instructor name within it, and attaches the reviews matching subjectFilter
// to each hit. A failed or empty search for one name never fails the lookup;
// the name lands in NotFound instead.
func (c *Client) LookupForCourse(ctx context.Context, institutionName string, names []string, subjectFilter string) (*CourseLookup, error) {
	lookup := &CourseLookup{}

	institutions, err := c.SearchInstitutions(ctx, institutionName)
	if err != nil {
		return nil, err
	}
	if len(institutions) == 0 {
		log.Printf("ratings: no institution found for %q", institutionName)
		return lookup, nil
	}
	lookup.InstitutionFound = true
	lookup.Institution = &institutions[0]

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		lookup.TotalSearched++

		matches, err := c.SearchInstructors(ctx, lookup.Institution.ID, name)
		if err != nil {
			log.Printf("ratings: instructor search failed for %q: %v", name, err)
			lookup.NotFound = append(lookup.NotFound, name)
			continue
		}
		if len(matches) == 0 {
			lookup.NotFound = append(lookup.NotFound, name)
			continue
		}

		// First match is the service's best relevance hit.
		instructor := matches[0]
		reviews, err := c.FetchInstructorReviews(ctx, instructor.ID)
		if err != nil {
			// Keep the aggregate record even when reviews are unavailable.
			log.Printf("ratings: review fetch failed for %s: %v", instructor.FormattedName(), err)
			lookup.Instructors = append(lookup.Instructors, instructor)
			continue
		}
		instructor.Reviews = reviews
		if subjectFilter != "" {
			instructor.Reviews = instructor.ReviewsForSubject(subjectFilter)
		}
		lookup.TotalReviews += len(instructor.Reviews)
		lookup.Instructors = append(lookup.Instructors, instructor)
	}
	return lookup, nil
}
