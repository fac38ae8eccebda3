// Package ratings is a GraphQL client for the public professor-rating
// service. It resolves institutions, searches instructors by name within an
// institution, and pulls per-instructor student reviews.
package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/course-compass/internal/fetch"
	"github.com/jonathan/course-compass/internal/types"
)

const (
	// DefaultEndpoint is the service's public GraphQL endpoint.
	DefaultEndpoint = "https://www.ratemyprofessors.com/graphql"

	// DefaultInstitution is the school searched when none is configured.
	DefaultInstitution = "University of California Riverside"

	profileLinkBase = "https://www.ratemyprofessors.com/professor/"

	// The web client authenticates with a fixed basic credential.
	basicAuth = "Basic dGVzdDp0ZXN0"
)

// Options configures a Client.
type Options struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the rating service. Stateless, safe for concurrent use.
type Client struct {
	endpoint  string
	fetchOpts *fetch.Options
}

// NewClient builds a rating-service client from opts.
func NewClient(opts Options) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	fo := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fo.Timeout = opts.Timeout
	}
	if opts.UserAgent != "" {
		fo.UserAgent = opts.UserAgent
	}
	fo.Headers = map[string]string{"Authorization": basicAuth}
	return &Client{endpoint: endpoint, fetchOpts: fo}
}

// gqlError is a single error entry in a GraphQL response.
type gqlError struct {
	Message string `json:"message"`
}

// gqlResponse is the standard GraphQL envelope.
type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// query executes a GraphQL operation and decodes its data payload into out.
func (c *Client) query(ctx context.Context, document string, variables map[string]any, out any) error {
	payload := map[string]any{"query": document, "variables": variables}
	var resp gqlResponse
	if err := fetch.PostJSON(ctx, c.endpoint, payload, &resp, c.fetchOpts); err != nil {
		return fmt.Errorf("rating service request: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("rating service: %s", strings.Join(msgs, "; "))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("rating service: decode data: %w", err)
	}
	return nil
}

// SearchInstitutions finds schools matching name.
func (c *Client) SearchInstitutions(ctx context.Context, name string) ([]types.Institution, error) {
	var data struct {
		NewSearch struct {
			Schools struct {
				Edges []struct {
					Node struct {
						ID               string  `json:"id"`
						LegacyID         int     `json:"legacyId"`
						Name             string  `json:"name"`
						City             string  `json:"city"`
						State            string  `json:"state"`
						NumRatings       int     `json:"numRatings"`
						AvgRatingRounded float64 `json:"avgRatingRounded"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"schools"`
		} `json:"newSearch"`
	}
	vars := map[string]any{"query": map[string]any{"text": name}}
	if err := c.query(ctx, schoolSearchQuery, vars, &data); err != nil {
		return nil, err
	}

	schools := make([]types.Institution, 0, len(data.NewSearch.Schools.Edges))
	for _, edge := range data.NewSearch.Schools.Edges {
		n := edge.Node
		schools = append(schools, types.Institution{
			ID:         n.ID,
			LegacyID:   n.LegacyID,
			Name:       n.Name,
			City:       n.City,
			State:      n.State,
			NumRatings: n.NumRatings,
			AvgRating:  n.AvgRatingRounded,
		})
	}
	return schools, nil
}

// SearchInstructors searches instructors by name within an institution.
// Results carry rating aggregates but no reviews; use FetchInstructorReviews
// to attach those.
func (c *Client) SearchInstructors(ctx context.Context, institutionID, name string) ([]types.InstructorRating, error) {
	var data struct {
		Search struct {
			Teachers struct {
				Edges []struct {
					Node struct {
						ID                    string  `json:"id"`
						LegacyID              int     `json:"legacyId"`
						FirstName             string  `json:"firstName"`
						LastName              string  `json:"lastName"`
						Department            string  `json:"department"`
						AvgRating             float64 `json:"avgRating"`
						AvgDifficulty         float64 `json:"avgDifficulty"`
						NumRatings            int     `json:"numRatings"`
						WouldTakeAgainPercent float64 `json:"wouldTakeAgainPercent"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"teachers"`
		} `json:"search"`
	}
	vars := map[string]any{
		"query": map[string]any{
			"text":         name,
			"schoolID":     institutionID,
			"fallback":     true,
			"departmentID": nil,
		},
		"schoolID":            institutionID,
		"includeSchoolFilter": true,
	}
	if err := c.query(ctx, teacherSearchQuery, vars, &data); err != nil {
		return nil, err
	}

	instructors := make([]types.InstructorRating, 0, len(data.Search.Teachers.Edges))
	for _, edge := range data.Search.Teachers.Edges {
		n := edge.Node
		inst, err := types.NewInstructorRating(n.ID, n.FirstName, n.LastName)
		if err != nil {
			log.Printf("ratings: skipping malformed instructor result: %v", err)
			continue
		}
		inst.LegacyID = n.LegacyID
		inst.Department = n.Department
		inst.AvgRating = n.AvgRating
		inst.AvgDifficulty = n.AvgDifficulty
		inst.NumRatings = n.NumRatings
		inst.WouldTakeAgainPercent = n.WouldTakeAgainPercent
		inst.Link = fmt.Sprintf("%s%d", profileLinkBase, n.LegacyID)
		instructors = append(instructors, *inst)
	}
	return instructors, nil
}

// reviewNode is the wire shape of a single rating entry.
type reviewNode struct {
	Comment          string   `json:"comment"`
	Class            string   `json:"class"`
	Date             string   `json:"date"`
	DifficultyRating float64  `json:"difficultyRating"`
	Grade            string   `json:"grade"`
	WouldTakeAgain   *float64 `json:"wouldTakeAgain"`
	RatingTags       string   `json:"ratingTags"`
	ClarityRating    float64  `json:"clarityRating"`
}

type teacherNodeData struct {
	Node struct {
		Ratings struct {
			Edges []struct {
				Node reviewNode `json:"node"`
			} `json:"edges"`
		} `json:"ratings"`
	} `json:"node"`
}

// FetchInstructorReviews retrieves every student review for an instructor.
func (c *Client) FetchInstructorReviews(ctx context.Context, instructorID string) ([]types.RatingReview, error) {
	var data teacherNodeData
	vars := map[string]any{"id": instructorID}
	if err := c.query(ctx, teacherReviewsQuery, vars, &data); err != nil {
		return nil, err
	}

	reviews := make([]types.RatingReview, 0, len(data.Node.Ratings.Edges))
	for _, edge := range data.Node.Ratings.Edges {
		n := edge.Node
		review := types.RatingReview{
			SubjectCode: strings.TrimSpace(n.Class),
			Comment:     n.Comment,
			Rating:      n.ClarityRating,
			Difficulty:  n.DifficultyRating,
			Grade:       n.Grade,
			Tags:        n.RatingTags,
			Date:        n.Date,
		}
		if n.WouldTakeAgain != nil {
			b := *n.WouldTakeAgain != 0
			review.WouldTakeAgain = &b
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// InstructorCourses returns the distinct subject codes appearing in an
// instructor's reviews, upper-cased and sorted.
func (c *Client) InstructorCourses(ctx context.Context, instructorID string) ([]string, error) {
	var data teacherNodeData
	vars := map[string]any{"id": instructorID}
	if err := c.query(ctx, teacherCoursesQuery, vars, &data); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var courses []string
	for _, edge := range data.Node.Ratings.Edges {
		code := strings.ToUpper(strings.TrimSpace(edge.Node.Class))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		courses = append(courses, code)
	}
	sort.Strings(courses)
	return courses, nil
}

// TeachesCourse reports whether any of the instructor's reviewed courses
// matches subject as a substring in either direction.
func (c *Client) TeachesCourse(ctx context.Context, instructorID, subject string) (bool, error) {
	courses, err := c.InstructorCourses(ctx, instructorID)
	if err != nil {
		return false, err
	}
	needle := strings.ToLower(strings.TrimSpace(subject))
	if needle == "" {
		return false, nil
	}
	for _, course := range courses {
		taught := strings.ToLower(course)
		if strings.Contains(taught, needle) || strings.Contains(needle, taught) {
			return true, nil
		}
	}
	return false, nil
}
