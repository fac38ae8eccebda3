package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/course-compass/internal/discussion"
	"github.com/jonathan/course-compass/internal/pipeline"
	"github.com/jonathan/course-compass/internal/progress"
	"github.com/jonathan/course-compass/internal/ratings"
	"github.com/jonathan/course-compass/internal/reviewdb"
	"github.com/jonathan/course-compass/internal/synthesis"
	"github.com/jonathan/course-compass/internal/types"
)

const searchListing = `{"kind":"Listing","data":{"children":[
 {"data":{"id":"t1","title":"CS010 professor review megathread","selftext":"Sharing experiences.","score":40,"num_comments":2,"created_utc":1700000000,"author":"a","permalink":"/r/ucr/comments/t1/"}},
 {"data":{"id":"t2","title":"CS010 difficulty and workload","selftext":"How hard is it really?","score":12,"num_comments":1,"created_utc":1700000100,"author":"b","permalink":"/r/ucr/comments/t2/"}}
]}}`

const emptyListing = `{"kind":"Listing","data":{"children":[]}}`

func threadListing(id, title string) string {
	return fmt.Sprintf(`[
 {"kind":"Listing","data":{"children":[{"data":{"id":%q,"title":%q,"selftext":"Weekly labs and two midterms.","score":40,"num_comments":2,"created_utc":1700000000,"author":"a","permalink":"/r/ucr/comments/%s/"}}]}},
 {"kind":"Listing","data":{"children":[
   {"data":{"id":"c1","body":"Go to lecture, the exams mirror the slides.","score":9,"created_utc":1700000200,"author":"alum"}},
   {"data":{"id":"c2","body":"Labs are graded on completion.","score":4,"created_utc":1700000300,"author":"ta"}}
 ]}}]`, id, title, id)
}

const reviewCSV = `Class,Average Difficulty,Additional Comments,Difficulty,Date
CS010,6.5,Lots of programming homework,7,2024-01-15
,,Curve saved my grade,6,2024-03-02
`

const analysisReport = `{
 "overall_sentiment": {"summary": "Generally positive.", "workload": {"hours_per_week": "6", "assignments": "weekly labs", "time_commitment": "moderate"}},
 "difficulty": {"rank": "Moderate", "rating": 5, "max_rating": 10},
 "professors": [],
 "advice": {"course_specific_tips": ["Go to lecture."]},
 "common_pitfalls": ["Skipping labs"],
 "grade_distribution": "Mostly A/B"
}`

type stubOracle struct {
	responses []string
	errs      []error
	inputs    []synthesis.Input
}

func (s *stubOracle) Synthesize(_ context.Context, in synthesis.Input) (string, error) {
	s.inputs = append(s.inputs, in)
	idx := len(s.inputs) - 1
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

type stubRatings struct{}

func (s *stubRatings) LookupForCourse(context.Context, string, []string, string) (*ratings.CourseLookup, error) {
	return nil, nil
}

// newTestServer wires a full server against httptest upstreams for the
// discussion platform and the review database, with a scripted oracle.
func newTestServer(t *testing.T, oracle synthesis.Oracle) (*Server, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/r/ucr/search.json":
			if strings.Contains(r.URL.Query().Get("q"), "CS010") {
				_, _ = w.Write([]byte(searchListing))
				return
			}
			_, _ = w.Write([]byte(emptyListing))
		case r.URL.Path == "/comments/t1.json":
			_, _ = w.Write([]byte(threadListing("t1", "CS010 professor review megathread")))
		case r.URL.Path == "/comments/t2.json":
			_, _ = w.Write([]byte(threadListing("t2", "CS010 difficulty and workload")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	sheets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(reviewCSV))
	}))
	t.Cleanup(sheets.Close)

	threads := discussion.NewClient(discussion.Options{BaseURL: upstream.URL})
	reviews := reviewdb.NewClient(reviewdb.Options{ExportURL: sheets.URL})
	runner := &pipeline.Runner{
		Threads:  threads,
		Reviews:  reviews,
		Ratings:  &stubRatings{},
		Oracle:   oracle,
		Progress: progress.NewRegistry(),
	}

	srv, err := New(Config{Runner: runner, Threads: threads, Reviews: reviews})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleAnalyze_Validation(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := postJSON(t, ts.URL+"/api/analyze", `{"topic": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/analyze", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/analyze", `{"topic": "CS010", "max_threads": 500}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAnalyze_Success(t *testing.T) {
	oracle := &stubOracle{responses: []string{analysisReport}}
	_, ts := newTestServer(t, oracle)

	resp := postJSON(t, ts.URL+"/api/analyze", `{"topic": "CS010", "targeted_lookup": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, pipeline.OutcomeSuccess, result.Outcome)
	require.NotNil(t, result.Report)
	assert.Equal(t, "Generally positive.", result.Report.OverallSentiment.Summary)
	assert.Equal(t, 2, result.Metadata.ThreadsFetched)
	assert.Equal(t, 2, result.Metadata.ReviewsFetched)
	assert.False(t, result.Metadata.RatingsEnabled)
	assert.NotEmpty(t, result.SessionID)
}

func TestHandleAnalyze_NoData(t *testing.T) {
	oracle := &stubOracle{responses: []string{analysisReport}}
	_, ts := newTestServer(t, oracle)

	resp := postJSON(t, ts.URL+"/api/analyze", `{"topic": "XYZ999"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, pipeline.OutcomeNoData, result.Outcome)
	assert.Empty(t, oracle.inputs, "oracle must not run without data")
}

func TestHandleAnalyze_OracleDown(t *testing.T) {
	oracle := &stubOracle{errs: []error{errors.New("model unavailable")}}
	_, ts := newTestServer(t, oracle)

	resp := postJSON(t, ts.URL+"/api/analyze", `{"topic": "CS010"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var result pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, pipeline.OutcomeFailure, result.Outcome)
	assert.NotEmpty(t, result.Err)
}

func TestHandleAnalyzeStream(t *testing.T) {
	oracle := &stubOracle{responses: []string{analysisReport}}
	_, ts := newTestServer(t, oracle)

	resp := postJSON(t, ts.URL+"/api/analyze/stream", `{"topic": "CS010", "targeted_lookup": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, "event: session")
	assert.Contains(t, body, "event: complete")
	assert.Contains(t, body, `"outcome":"success"`)
	assert.NotContains(t, body, "event: error")
}

func TestHandleAnalyzeStream_RejectedRunCleansSession(t *testing.T) {
	srv, ts := newTestServer(t, &stubOracle{})

	// A whitespace topic passes the request validator but is rejected by
	// the run itself, after the session already exists.
	resp := postJSON(t, ts.URL+"/api/analyze/stream",
		`{"topic": "  ", "session_id": "sess-rejected"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "event: error")

	_, ok := srv.progress.Events("sess-rejected", 0)
	assert.False(t, ok, "rejected run must not leave its session behind")
}

func TestHandleAnalyzeStream_Validation(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := postJSON(t, ts.URL+"/api/analyze/stream", `{"topic": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEqual(t, "text/event-stream", resp.Header.Get("Content-Type"))
}

func TestHandleProgress(t *testing.T) {
	srv, ts := newTestServer(t, &stubOracle{})

	pct := 10
	srv.progress.Emit("sess-1", "STARTED", "run started", &pct)
	srv.progress.Emit("sess-1", "FETCHING", "fetching sources", nil)
	srv.progress.Emit("sess-1", "COMPLETE", "done", nil)

	resp := getURL(t, ts.URL+"/api/progress/sess-1?from=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page ProgressResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "sess-1", page.SessionID)
	assert.Equal(t, 3, page.Next)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "FETCHING", page.Events[0].Step)
}

func TestHandleProgress_UnknownSession(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/progress/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleProgress_BadFrom(t *testing.T) {
	srv, ts := newTestServer(t, &stubOracle{})
	srv.progress.Emit("sess-2", "STARTED", "run started", nil)

	resp := getURL(t, ts.URL+"/api/progress/sess-2?from=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSearch(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/search?q=CS010")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body SearchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "CS010", body.Query)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Threads, 2)
	assert.Equal(t, "t1", body.Threads[0].ID)
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/search")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleThreadReplies(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/threads/t1/replies")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var thread types.Thread
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&thread))
	assert.Equal(t, "t1", thread.ID)
	assert.Len(t, thread.Replies, 2)
}

func TestHandleThreadReplies_UpstreamError(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/threads/unknown/replies")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleSubjects(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/subjects")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body SubjectsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, []string{"CS010"}, body.Subjects)
}

func TestHandleSubjectSummary(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/subjects/cs010/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary types.ReviewSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.True(t, summary.Found)
	assert.Equal(t, "CS010", summary.SubjectCode)
	assert.Equal(t, 2, summary.TotalReviews)
}

func TestHandleSubjectSummary_NotFound(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	resp := getURL(t, ts.URL+"/api/subjects/NOPE101/summary")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, &stubOracle{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/analyze", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
