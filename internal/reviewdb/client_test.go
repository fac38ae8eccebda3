package reviewdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// csvFixture uses the grouped layout: CS010 opens a group with aggregate
// difficulty 6.5, and the two blank-column-A rows under it inherit the code.
const csvFixture = `Class,Average Difficulty,Additional Comments,Difficulty,Date
CS010,6.5,Lots of programming homework,7,2024-01-15
,,Curve saved my grade,6,2024-03-02
,,,,2023-11-20
MATH009A,4.0,Straightforward if you did calc in HS,4,2024-02-10
,not-a-number,orphan aggregate still keeps the comment,5,2024-04-01
CS010,,Late addition review,8,2024-05-05
short,row
`

const htmlFixture = `<!DOCTYPE html><html><body><table>
<tr><th><div class="row-header-wrapper">1</div></th><td>Class</td><td>Average Difficulty</td><td>Additional Comments</td><td>Difficulty</td><td>Date</td></tr>
<tr><th><div class="row-header-wrapper">2</div></th><td>CS010</td><td>6.5</td><td>Lots of programming homework</td><td>7</td><td>2024-01-15</td></tr>
<tr><th><div class="row-header-wrapper">3</div></th><td></td><td></td><td>Curve saved my grade</td><td>6</td><td>2024-03-02</td></tr>
</table></body></html>`

func newTestClient(t *testing.T, payload string, contentType string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return NewClient(Options{ExportURL: srv.URL})
}

func TestFetchAll_GroupedLayout(t *testing.T) {
	client := newTestClient(t, csvFixture, "text/csv")

	reviews, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	// Commentless and short rows are skipped.
	require.Len(t, reviews, 5)

	assert.Equal(t, "CS010", reviews[0].SubjectCode)
	require.NotNil(t, reviews[0].AverageDifficulty)
	assert.InDelta(t, 6.5, *reviews[0].AverageDifficulty, 0.001)
	require.NotNil(t, reviews[0].Difficulty)
	assert.Equal(t, 7, *reviews[0].Difficulty)

	// Continuation row inherits subject and aggregate difficulty.
	assert.Equal(t, "CS010", reviews[1].SubjectCode)
	require.NotNil(t, reviews[1].AverageDifficulty)
	assert.InDelta(t, 6.5, *reviews[1].AverageDifficulty, 0.001)

	assert.Equal(t, "MATH009A", reviews[2].SubjectCode)
	assert.Equal(t, "MATH009A", reviews[3].SubjectCode)

	// A new header row for the same subject resets the aggregate.
	assert.Equal(t, "CS010", reviews[4].SubjectCode)
	assert.Nil(t, reviews[4].AverageDifficulty)
	assert.Equal(t, "Late addition review", reviews[4].Comment)
}

func TestListAvailableSubjects(t *testing.T) {
	client := newTestClient(t, csvFixture, "text/csv")

	subjects, err := client.ListAvailableSubjects(context.Background())
	require.NoError(t, err)

	// Distinct codes in first-seen order; "SHORT" appears because column A
	// is set even though the row is too short to carry a review.
	assert.Equal(t, []string{"CS010", "MATH009A", "SHORT"}, subjects)
}

func TestReviewsFor(t *testing.T) {
	client := newTestClient(t, csvFixture, "text/csv")

	reviews, err := client.ReviewsFor(context.Background(), "cs010")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	for _, r := range reviews {
		assert.Equal(t, "CS010", r.SubjectCode)
	}

	missing, err := client.ReviewsFor(context.Background(), "PHYS040")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSummary(t *testing.T) {
	client := newTestClient(t, csvFixture, "text/csv")

	summary, err := client.Summary(context.Background(), "CS010")
	require.NoError(t, err)
	assert.True(t, summary.Found)
	assert.Equal(t, 3, summary.TotalReviews)

	// Individual difficulties 7, 6, 8 -> mean 7.
	require.NotNil(t, summary.AverageDifficulty)
	assert.InDelta(t, 7.0, *summary.AverageDifficulty, 0.001)
	require.NotNil(t, summary.OverallAverageDifficulty)
	assert.InDelta(t, 6.5, *summary.OverallAverageDifficulty, 0.001)
	require.NotNil(t, summary.MinDifficulty)
	assert.Equal(t, 6, *summary.MinDifficulty)
	require.NotNil(t, summary.MaxDifficulty)
	assert.Equal(t, 8, *summary.MaxDifficulty)

	// Comments newest-first.
	require.NotEmpty(t, summary.RecentComments)
	assert.Equal(t, "Late addition review", summary.RecentComments[0])
}

func TestSummary_NotFound(t *testing.T) {
	client := newTestClient(t, csvFixture, "text/csv")

	summary, err := client.Summary(context.Background(), "PHYS040")
	require.NoError(t, err)
	assert.False(t, summary.Found)
	assert.Equal(t, "PHYS040", summary.SubjectCode)
	assert.Zero(t, summary.TotalReviews)
}

func TestFetchAll_HTMLFallback(t *testing.T) {
	client := newTestClient(t, htmlFixture, "text/html; charset=utf-8")

	reviews, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "CS010", reviews[0].SubjectCode)
	assert.Equal(t, "Lots of programming homework", reviews[0].Comment)
	assert.Equal(t, "CS010", reviews[1].SubjectCode)
	require.NotNil(t, reviews[1].Difficulty)
	assert.Equal(t, 6, *reviews[1].Difficulty)
}

func TestFormatForSynthesis(t *testing.T) {
	client := newTestClient(t, csvFixture, "text/csv")

	reviews, err := client.ReviewsFor(context.Background(), "CS010")
	require.NoError(t, err)

	text := FormatForSynthesis("cs010", reviews)
	assert.Contains(t, text, "Class Difficulty Database - CS010")
	assert.Contains(t, text, "Overall Average Difficulty: 6.5/10")
	assert.Contains(t, text, "Review 1:")
	assert.Contains(t, text, "Individual Difficulty: 7/10")
	assert.Contains(t, text, "Comments: Curve saved my grade")

	assert.Empty(t, FormatForSynthesis("CS010", nil))
}

func TestFetchAll_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Options{ExportURL: srv.URL})
	_, err := client.FetchAll(context.Background())
	require.Error(t, err)
}
