// Package discussion provides a read-only client for the public JSON API of
// the discussion platform. Searches return lightweight thread stubs; full
// thread fetches include bodies and replies suitable for analysis.
package discussion

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jonathan/course-compass/internal/fetch"
	"github.com/jonathan/course-compass/internal/types"
)

const (
	// DefaultCommunity is the community searched when none is configured.
	DefaultCommunity = "ucr"

	// searchBodyLimit truncates thread bodies in search results. Full bodies
	// come from FetchThread.
	searchBodyLimit = 500

	// DefaultSearchLimit caps the number of threads a search returns.
	DefaultSearchLimit = 50
)

// Options configures a Client. The zero value is usable; BaseURL exists so
// tests can point the client at a local server.
type Options struct {
	BaseURL   string
	Community string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches threads from the discussion platform. It is stateless and
// safe for concurrent use.
type Client struct {
	baseURL   string
	community string
	fetchOpts *fetch.Options
}

// NewClient builds a discussion client from opts.
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = "https://www.reddit.com"
	}
	community := opts.Community
	if community == "" {
		community = DefaultCommunity
	}
	fo := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fo.Timeout = opts.Timeout
	}
	if opts.UserAgent != "" {
		fo.UserAgent = opts.UserAgent
	}
	return &Client{baseURL: base, community: community, fetchOpts: fo}
}

// listing mirrors the platform's wire envelope: every endpoint wraps its
// payload in {"kind": "Listing", "data": {"children": [{"data": {...}}]}}.
type listing struct {
	Data struct {
		Children []struct {
			Data item `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// item is the union of the submission and comment fields we read. The API
// uses one object shape for both, distinguished by which fields are set.
type item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Flair       string  `json:"link_flair_text"`
}

// Search finds threads mentioning topic in the configured community, sorted
// by relevance. Results are stubs: truncated bodies, no replies.
func (c *Client) Search(ctx context.Context, topic string, limit int) ([]types.Thread, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := url.Values{}
	q.Set("q", topic)
	q.Set("restrict_sr", "1")
	q.Set("sort", "relevance")
	q.Set("t", "all")
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, c.community, q.Encode())

	var lst listing
	if err := fetch.GetJSON(ctx, endpoint, &lst, c.fetchOpts); err != nil {
		return nil, fmt.Errorf("search %q: %w", topic, err)
	}

	threads := make([]types.Thread, 0, len(lst.Data.Children))
	for _, child := range lst.Data.Children {
		t, err := threadFromItem(child.Data)
		if err != nil {
			log.Printf("discussion: skipping malformed search result: %v", err)
			continue
		}
		t.Body = truncateOnRune(t.Body, searchBodyLimit)
		threads = append(threads, t)
	}
	return threads, nil
}

// FetchThread retrieves the full thread body plus up to maxReplies replies.
// Deleted and removed replies are skipped and do not count toward the limit.
func (c *Client) FetchThread(ctx context.Context, id string, maxReplies int) (types.Thread, error) {
	endpoint := fmt.Sprintf("%s/comments/%s.json?limit=%d", c.baseURL, url.PathEscape(id), maxReplies)

	// The thread endpoint returns a two-element array: the submission
	// listing followed by the comment listing.
	var payload []listing
	if err := fetch.GetJSON(ctx, endpoint, &payload, c.fetchOpts); err != nil {
		return types.Thread{}, fmt.Errorf("fetch thread %s: %w", id, err)
	}
	if len(payload) < 1 || len(payload[0].Data.Children) == 0 {
		return types.Thread{}, fmt.Errorf("fetch thread %s: empty response", id)
	}

	thread, err := threadFromItem(payload[0].Data.Children[0].Data)
	if err != nil {
		return types.Thread{}, fmt.Errorf("fetch thread %s: %w", id, err)
	}

	if len(payload) > 1 {
		for _, child := range payload[1].Data.Children {
			if maxReplies > 0 && len(thread.Replies) >= maxReplies {
				break
			}
			it := child.Data
			if it.Body == "" || it.Body == "[deleted]" || it.Body == "[removed]" {
				continue
			}
			thread.Replies = append(thread.Replies, types.Reply{
				ID:         it.ID,
				Body:       it.Body,
				Score:      it.Score,
				CreatedUTC: it.CreatedUTC,
				Author:     authorOrDeleted(it.Author),
			})
		}
	}
	return thread, nil
}

// FetchThreads retrieves full content for each id. A failure on one thread
// never aborts the batch; failed ids are logged and omitted from the result.
func (c *Client) FetchThreads(ctx context.Context, ids []string, maxReplies int) []types.Thread {
	threads := make([]types.Thread, 0, len(ids))
	for _, id := range ids {
		t, err := c.FetchThread(ctx, id, maxReplies)
		if err != nil {
			log.Printf("discussion: failed to fetch thread %s: %v", id, err)
			continue
		}
		threads = append(threads, t)
	}
	if len(threads) < len(ids) {
		log.Printf("discussion: fetched %d of %d threads", len(threads), len(ids))
	}
	return threads
}

func threadFromItem(it item) (types.Thread, error) {
	t, err := types.NewThread(it.ID, it.Title)
	if err != nil {
		return types.Thread{}, err
	}
	t.Body = it.Selftext
	t.Score = it.Score
	t.UpvoteRatio = it.UpvoteRatio
	t.NumReplies = it.NumComments
	t.CreatedUTC = it.CreatedUTC
	t.Author = authorOrDeleted(it.Author)
	if it.Permalink != "" {
		t.Permalink = "https://reddit.com" + it.Permalink
	}
	t.Flair = it.Flair
	return *t, nil
}

func authorOrDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

// truncateOnRune cuts s to at most limit bytes without splitting a
// multi-byte rune at the boundary.
func truncateOnRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
