// Package reviewdb fetches and parses the community-maintained course review
// spreadsheet. The export uses a grouped layout: a row with a subject code in
// column A opens a group and carries the subject's aggregate difficulty, and
// the rows below it belong to that subject until the next header row.
package reviewdb

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/course-compass/internal/fetch"
	"github.com/jonathan/course-compass/internal/types"
)

// DefaultExportURL is the public CSV export of the review spreadsheet.
const DefaultExportURL = "https://docs.google.com/spreadsheets/d/1qiy_Oi8aFiPmL4QSTR3zHe74kmvc6e_159L1mAUUlU0/export?format=csv&gid=0"

// maxRecentComments caps the comment list in a subject summary.
const maxRecentComments = 20

// Options configures a Client.
type Options struct {
	ExportURL string
	Timeout   time.Duration
}

// Client reads the review spreadsheet export. Stateless, safe for concurrent
// use.
type Client struct {
	exportURL string
	fetchOpts *fetch.Options
}

// NewClient builds a review database client from opts.
func NewClient(opts Options) *Client {
	u := opts.ExportURL
	if u == "" {
		u = DefaultExportURL
	}
	fo := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fo.Timeout = opts.Timeout
	}
	return &Client{exportURL: u, fetchOpts: fo}
}

// FetchAll downloads the export and parses every review row. Rows without a
// comment are skipped; malformed rows are logged and skipped.
func (c *Client) FetchAll(ctx context.Context) ([]types.ReviewRecord, error) {
	rows, err := c.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	return parseRows(rows), nil
}

// ListAvailableSubjects returns the distinct column-A subject codes in
// first-seen order.
func (c *Client) ListAvailableSubjects(ctx context.Context) ([]string, error) {
	rows, err := c.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var subjects []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(row[0]))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		subjects = append(subjects, code)
	}
	return subjects, nil
}

// ReviewsFor returns every review for the given subject code. A subject not
// present in the database yields an empty slice, not an error.
func (c *Client) ReviewsFor(ctx context.Context, subject string) ([]types.ReviewRecord, error) {
	code := strings.ToUpper(strings.TrimSpace(subject))
	subjects, err := c.ListAvailableSubjects(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, s := range subjects {
		if s == code {
			found = true
			break
		}
	}
	if !found {
		log.Printf("reviewdb: subject %s not found in database", code)
		return nil, nil
	}

	all, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var matching []types.ReviewRecord
	for _, r := range all {
		if r.SubjectCode == code {
			matching = append(matching, r)
		}
	}
	return matching, nil
}

// Summary aggregates the reviews for a subject: counts, mean individual
// difficulty, the group's aggregate difficulty, the min/max individual
// ratings, and the most recent comments.
func (c *Client) Summary(ctx context.Context, subject string) (*types.ReviewSummary, error) {
	code := strings.ToUpper(strings.TrimSpace(subject))
	reviews, err := c.ReviewsFor(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return &types.ReviewSummary{SubjectCode: code, Found: false}, nil
	}

	var difficulties []int
	var overall *float64
	for _, r := range reviews {
		if r.Difficulty != nil {
			difficulties = append(difficulties, *r.Difficulty)
		}
		if overall == nil && r.AverageDifficulty != nil {
			overall = r.AverageDifficulty
		}
	}

	summary := &types.ReviewSummary{
		SubjectCode:              code,
		Found:                    true,
		TotalReviews:             len(reviews),
		OverallAverageDifficulty: overall,
	}
	if len(difficulties) > 0 {
		sum := 0
		minD, maxD := difficulties[0], difficulties[0]
		for _, d := range difficulties {
			sum += d
			if d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}
		mean := float64(sum) / float64(len(difficulties))
		summary.AverageDifficulty = &mean
		summary.MinDifficulty = &minD
		summary.MaxDifficulty = &maxD
	}

	recent := make([]types.ReviewRecord, len(reviews))
	copy(recent, reviews)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	for _, r := range recent {
		if len(summary.RecentComments) >= maxRecentComments {
			break
		}
		if r.Comment != "" {
			summary.RecentComments = append(summary.RecentComments, r.Comment)
		}
	}
	return summary, nil
}

// FormatForSynthesis renders reviews as the plain-text block the synthesis
// oracle consumes. Empty input yields an empty string.
func FormatForSynthesis(subject string, reviews []types.ReviewRecord) string {
	if len(reviews) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Class Difficulty Database - %s\n\n", strings.ToUpper(subject))

	for _, r := range reviews {
		if r.AverageDifficulty != nil {
			fmt.Fprintf(&b, "Overall Average Difficulty: %g/10\n\n", *r.AverageDifficulty)
			break
		}
	}

	b.WriteString("Individual Reviews:\n")
	for i, r := range reviews {
		fmt.Fprintf(&b, "Review %d:\n", i+1)
		if r.Date != "" {
			fmt.Fprintf(&b, "Date: %s\n", r.Date)
		}
		if r.Difficulty != nil {
			fmt.Fprintf(&b, "Individual Difficulty: %d/10\n", *r.Difficulty)
		}
		if r.Comment != "" {
			fmt.Fprintf(&b, "Comments: %s\n", r.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// fetchRows downloads the export and returns raw spreadsheet rows, minus the
// header line. HTML responses (the published-to-web export variant) go
// through the table parser instead of the CSV reader.
func (c *Client) fetchRows(ctx context.Context) ([][]string, error) {
	res, err := fetch.Get(ctx, c.exportURL, c.fetchOpts)
	if err != nil {
		return nil, fmt.Errorf("fetch review database: %w", err)
	}

	if isHTML(res) {
		rows, err := parseHTMLTable(res.Body)
		if err != nil {
			return nil, fmt.Errorf("parse review database HTML export: %w", err)
		}
		return dropHeader(rows), nil
	}

	reader := csv.NewReader(strings.NewReader(string(res.Body)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse review database CSV export: %w", err)
	}
	return dropHeader(rows), nil
}

func isHTML(res *fetch.Result) bool {
	if strings.Contains(res.ContentType, "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(res.Body)))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func dropHeader(rows [][]string) [][]string {
	if len(rows) > 0 {
		return rows[1:]
	}
	return rows
}

// parseRows applies the grouped-layout join: column A opens a subject group
// and column B carries that group's aggregate difficulty; every row with a
// comment is attributed to the current group.
func parseRows(rows [][]string) []types.ReviewRecord {
	var (
		reviews     []types.ReviewRecord
		currentCode string
		currentAvg  *float64
	)
	for i, row := range rows {
		if len(row) < 3 {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(row[0]))
		if code != "" {
			currentCode = code
			currentAvg = nil
			if s := strings.TrimSpace(row[1]); s != "" {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					currentAvg = &v
				} else {
					log.Printf("reviewdb: row %d: bad aggregate difficulty %q", i+2, s)
				}
			}
		}

		comment := strings.TrimSpace(row[2])
		if currentCode == "" || comment == "" {
			continue
		}

		rec, err := types.NewReviewRecord(currentCode, comment)
		if err != nil {
			log.Printf("reviewdb: row %d: %v", i+2, err)
			continue
		}
		rec.AverageDifficulty = currentAvg
		if len(row) > 3 {
			if s := strings.TrimSpace(row[3]); s != "" {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					d := int(v)
					rec.Difficulty = &d
				}
			}
		}
		if len(row) > 4 {
			rec.Date = strings.TrimSpace(row[4])
		}
		reviews = append(reviews, *rec)
	}
	return reviews
}
