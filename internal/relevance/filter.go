// Package relevance decides whether a discussion thread is actually about
// the topic being searched, as opposed to mentioning it in passing. The
// filter runs before synthesis so enumeration posts and incidental mentions
// never dilute the oracle's input.
package relevance

import (
	"strings"

	"github.com/jonathan/course-compass/internal/types"
)

// listStylePhrases mark threads that enumerate many subjects at once
// ("which classes should I take this quarter"). A topic mentioned once in
// such a thread is noise, not signal.
var listStylePhrases = []string{
	"which classes",
	"which courses",
	"what classes",
	"schedule help",
	"schedule advice",
	"has anyone taken",
	"course load",
	"class recommendations",
	"classes to take",
}

// titleFocusKeywords indicate the title is focused on a single course.
var titleFocusKeywords = []string{
	"review",
	"experience",
	"professor",
	"difficulty",
	"tips",
	"advice",
	"grade",
	"exam",
	"how is",
	"taking",
	"recommend",
	"easy",
	"hard",
	"worth it",
	"skip",
	"avoid",
}

const (
	// listStyleMinDensity is the topic-token density below which a
	// list-style thread is rejected.
	listStyleMinDensity = 0.005
	// bodyMinDensity is the topic-token density at which a body is
	// considered focused on the topic.
	bodyMinDensity = 0.01
	// minBodyLenForDensity avoids density math on trivially short bodies.
	minBodyLenForDensity = 50
	// minReplyLen filters out low-content replies from the reply check.
	minReplyLen = 30
	// minRelevantReplies is how many topic-bearing replies imply the
	// thread is about the topic even when the title isn't.
	minRelevantReplies = 2
)

// IsMainTopic reports whether topic is the main subject of the thread.
// Pure and deterministic: no I/O, no side effects. Rules apply in order and
// the first decisive rule wins; ties break toward rejection.
func IsMainTopic(thread types.Thread, topic string) bool {
	token := NormalizeToken(topic)
	if token == "" {
		return false
	}

	title := strings.ToLower(thread.Title)
	body := strings.ToLower(thread.Body)

	// Rule 2: list-style threads must clear a density floor across the
	// full thread text or they are rejected outright.
	if isListStyle(title, body) {
		occurrences := countOccurrences(thread.Title, token) + countOccurrences(thread.Body, token)
		for _, r := range thread.Replies {
			occurrences += countOccurrences(r.Body, token)
		}
		total := thread.TotalWordCount()
		if total == 0 || float64(occurrences)/float64(total) < listStyleMinDensity {
			return false
		}
	}

	titleHasToken := countOccurrences(thread.Title, token) > 0

	// Rule 3: topic in the title plus a focus keyword is decisive.
	if titleHasToken {
		for _, kw := range titleFocusKeywords {
			if strings.Contains(title, kw) {
				return true
			}
		}
	}

	// Rule 4: dense enough body.
	if len(body) > minBodyLenForDensity {
		occurrences := countOccurrences(thread.Body, token)
		if words := len(strings.Fields(body)); words > 0 {
			if float64(occurrences)/float64(words) >= bodyMinDensity {
				return true
			}
		}
	}

	// Rule 5: multiple substantive replies mention the topic.
	relevant := 0
	for _, r := range thread.Replies {
		if len(r.Body) > minReplyLen && countOccurrences(r.Body, token) > 0 {
			relevant++
			if relevant >= minRelevantReplies {
				return true
			}
		}
	}

	// Rule 6: fallback for title matches with any substance behind them.
	if titleHasToken && (len(thread.Body) > 20 || len(thread.Replies) > 2) {
		return true
	}

	return false
}

// FilterThreads returns the threads for which topic is the main subject,
// preserving input order.
func FilterThreads(threads []types.Thread, topic string) []types.Thread {
	var kept []types.Thread
	for _, t := range threads {
		if IsMainTopic(t, topic) {
			kept = append(kept, t)
		}
	}
	return kept
}

// NormalizeToken reduces a topic to a bare lowercase alphanumeric token:
// "CS 010" and "cs-010" both become "cs010".
func NormalizeToken(topic string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(topic) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// countOccurrences counts non-overlapping occurrences of token in text,
// after squashing text the same way the token was normalized so "CS 10"
// matches token "cs10".
func countOccurrences(text, token string) int {
	if token == "" || text == "" {
		return 0
	}
	return strings.Count(NormalizeToken(text), token)
}

func isListStyle(title, body string) bool {
	for _, phrase := range listStylePhrases {
		if strings.Contains(title, phrase) || strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}
