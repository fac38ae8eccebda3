// Package types provides type definitions for structured data used throughout the course-compass system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// Thread represents a discussion thread fetched from the discussion platform.
// A thread is immutable once fetched: the pipeline reads it, never mutates it.
type Thread struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio,omitempty"`
	NumReplies  int     `json:"num_replies"`
	CreatedUTC  float64 `json:"created_utc"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink,omitempty"`
	Flair       string  `json:"flair,omitempty"`
	Replies     []Reply `json:"replies,omitempty"`
}

// Reply represents a single reply within a discussion thread.
type Reply struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Author     string  `json:"author"`
}

// NewThread validates the fields a thread must carry at the connector
// boundary. Malformed upstream items fail here instead of surfacing as
// missing data deep in synthesis formatting.
func NewThread(id, title string) (*Thread, error) {
	if id == "" {
		return nil, fmt.Errorf("thread id is required")
	}
	if title == "" {
		return nil, fmt.Errorf("thread %s: title is required", id)
	}
	return &Thread{ID: id, Title: title}, nil
}

// TotalWordCount returns the word count across title, body and all reply
// bodies. Used by the relevance filter's density heuristics.
func (t *Thread) TotalWordCount() int {
	count := wordCount(t.Title) + wordCount(t.Body)
	for _, r := range t.Replies {
		count += wordCount(r.Body)
	}
	return count
}

// wordCount counts whitespace-separated words in s.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
