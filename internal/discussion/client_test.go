package discussion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "kind": "Listing",
  "data": {
    "children": [
      {"data": {"id": "abc1", "title": "CS010 with Chrobak?", "selftext": "` + "%s" + `",
        "score": 12, "upvote_ratio": 0.93, "num_comments": 4,
        "created_utc": 1700000000, "author": "student1",
        "permalink": "/r/ucr/comments/abc1/cs010/", "link_flair_text": "Question"}},
      {"data": {"id": "", "title": "malformed entry"}},
      {"data": {"id": "abc2", "title": "CS010 workload", "selftext": "",
        "score": 3, "num_comments": 0, "created_utc": 1700000100, "author": ""}}
    ]
  }
}`

const threadFixture = `[
  {"kind": "Listing", "data": {"children": [
    {"data": {"id": "abc1", "title": "CS010 with Chrobak?",
      "selftext": "Has anyone taken CS010 with Professor Chrobak?",
      "score": 12, "num_comments": 4, "created_utc": 1700000000,
      "author": "student1", "permalink": "/r/ucr/comments/abc1/cs010/"}}
  ]}},
  {"kind": "Listing", "data": {"children": [
    {"data": {"id": "c1", "body": "Yes, great lectures.", "score": 5, "created_utc": 1700000200, "author": "alum"}},
    {"data": {"id": "c2", "body": "[deleted]", "score": 0, "created_utc": 1700000300, "author": ""}},
    {"data": {"id": "c3", "body": "[removed]", "score": 0, "created_utc": 1700000400, "author": "mod"}},
    {"data": {"id": "c4", "body": "Homework is weekly.", "score": 2, "created_utc": 1700000500, "author": "ta"}}
  ]}}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL}), srv
}

func TestSearch(t *testing.T) {
	longBody := strings.Repeat("x", 600)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/ucr/search.json", r.URL.Path)
		assert.Equal(t, "CS010", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		assert.Equal(t, "relevance", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(strings.Replace(searchFixture, "%s", longBody, 1)))
	})

	threads, err := client.Search(context.Background(), "CS010", 25)
	require.NoError(t, err)

	// The malformed entry (empty id) is skipped, not fatal.
	require.Len(t, threads, 2)
	assert.Equal(t, "abc1", threads[0].ID)
	assert.Equal(t, "CS010 with Chrobak?", threads[0].Title)
	assert.Len(t, threads[0].Body, searchBodyLimit, "search bodies are truncated")
	assert.Equal(t, 4, threads[0].NumReplies)
	assert.Equal(t, "https://reddit.com/r/ucr/comments/abc1/cs010/", threads[0].Permalink)
	assert.Empty(t, threads[0].Replies, "search results carry no replies")
	assert.Equal(t, "[deleted]", threads[1].Author)
}

func TestSearch_TruncatesOnRuneBoundary(t *testing.T) {
	// 499 ASCII bytes followed by a 3-byte rune straddling the limit.
	longBody := strings.Repeat("x", 499) + strings.Repeat("日", 40)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Replace(searchFixture, "%s", longBody, 1)))
	})

	threads, err := client.Search(context.Background(), "CS010", 25)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.LessOrEqual(t, len(threads[0].Body), searchBodyLimit)
	assert.True(t, utf8.ValidString(threads[0].Body), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("x", 499), threads[0].Body)
}

func TestTruncateOnRune(t *testing.T) {
	assert.Equal(t, "ab", truncateOnRune("abc", 2))
	assert.Equal(t, "abc", truncateOnRune("abc", 10))
	assert.Equal(t, "a", truncateOnRune("a日", 2))
	assert.Equal(t, "a日", truncateOnRune("a日", 4))
	assert.Equal(t, "", truncateOnRune("日", 2))
}

func TestSearch_UpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "CS010", 10)
	require.Error(t, err)
}

func TestFetchThread(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments/abc1.json", r.URL.Path)
		_, _ = w.Write([]byte(threadFixture))
	})

	thread, err := client.FetchThread(context.Background(), "abc1", 50)
	require.NoError(t, err)
	assert.Equal(t, "Has anyone taken CS010 with Professor Chrobak?", thread.Body)

	// Deleted and removed replies are dropped.
	require.Len(t, thread.Replies, 2)
	assert.Equal(t, "Yes, great lectures.", thread.Replies[0].Body)
	assert.Equal(t, "Homework is weekly.", thread.Replies[1].Body)
}

func TestFetchThread_ReplyLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(threadFixture))
	})

	thread, err := client.FetchThread(context.Background(), "abc1", 1)
	require.NoError(t, err)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, "c1", thread.Replies[0].ID)
}

func TestFetchThread_EmptyResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.FetchThread(context.Background(), "missing", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestFetchThreads_PartialFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(threadFixture))
	})

	threads := client.FetchThreads(context.Background(), []string{"abc1", "bad", "abc1"}, 10)

	// One failed fetch never aborts the batch.
	require.Len(t, threads, 2)
	assert.Equal(t, "abc1", threads[0].ID)
}

func TestFetchThreads_AllFail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	threads := client.FetchThreads(context.Background(), []string{"a", "b"}, 10)
	assert.Empty(t, threads)
}
