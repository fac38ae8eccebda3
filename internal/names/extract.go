// Package names extracts candidate instructor names from unstructured text
// and reconciles them against the rating-service directory. Extraction is
// pure text-pattern matching; resolution is deterministic and never errors,
// even with an empty directory.
package names

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/course-compass/internal/types"
)

var (
	// titleBefore matches "Prof/Professor/Dr/... <Name>". A second name
	// word is only captured when it is itself capitalized, so "Professor
	// Chrobak for CS010" yields "Chrobak", not "Chrobak for".
	titleBefore = regexp.MustCompile(`\b(?i:professor|prof|doctor|dr|instructor|teacher|lecturer)\.?\s+([A-Za-z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)?)`)
	// titleAfter matches "<Name> Prof/Professor/...".
	titleAfter = regexp.MustCompile(`\b([A-Za-z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)?)\s+(?i:professor|prof|doctor|dr|instructor|teacher)\b`)
	// quotedName matches capitalized words or pairs inside double quotes.
	quotedName = regexp.MustCompile(`"([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)"`)
	// sentenceSplit breaks text into rough sentences for the context scan.
	sentenceSplit = regexp.MustCompile(`[.!?]`)
)

// courseContextWords flag sentences worth scanning for capitalized names.
var courseContextWords = []string{
	"teaches", "taught", "instructor", "class", "course", "section", "lecture",
}

// titleStopwords disqualify title-pattern captures that are clearly not
// names.
var titleStopwords = []string{"class", "course", "exam", "test"}

// contextStopwords are common capitalized sentence-starters excluded from
// the context-window scan.
var contextStopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"class": true, "course": true, "this": true, "that": true,
}

// ExtractCandidates extracts plausible instructor names from free text.
// Three strategies run independently and their results are unioned:
// title-pattern matches, context-window capitalized words, and quoted
// names. Order is deterministic (strategy order, then position in text).
func ExtractCandidates(text string) []string {
	if text == "" {
		return nil
	}

	var found []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			found = append(found, name)
		}
	}

	// Strategy (a): explicit title patterns.
	for _, re := range []*regexp.Regexp{titleBefore, titleAfter} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) <= 2 || containsAny(strings.ToLower(candidate), titleStopwords) {
				continue
			}
			add(titleCase(candidate))
		}
	}

	// Strategy (b): capitalized words near course-context vocabulary.
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if !containsAny(strings.ToLower(sentence), courseContextWords) {
			continue
		}
		words := strings.Fields(sentence)
		for i := 0; i < len(words); i++ {
			w := trimPunct(words[i])
			if !isCapitalizedWord(w) || len(w) <= 2 || contextStopwords[strings.ToLower(w)] {
				continue
			}
			if i+1 < len(words) {
				next := trimPunct(words[i+1])
				if isCapitalizedWord(next) && !contextStopwords[strings.ToLower(next)] {
					add(w + " " + next)
					i++
					continue
				}
			}
			add(w)
		}
	}

	// Strategy (c): quoted names.
	for _, m := range quotedName.FindAllStringSubmatch(text, -1) {
		if len(m[1]) > 2 {
			add(m[1])
		}
	}

	return found
}

// ExtractFromThreads extracts candidate names from thread titles, bodies and
// reply bodies.
func ExtractFromThreads(threads []types.Thread) []string {
	var all []string
	for _, t := range threads {
		all = append(all, ExtractCandidates(t.Title)...)
		all = append(all, ExtractCandidates(t.Body)...)
		for _, r := range t.Replies {
			all = append(all, ExtractCandidates(r.Body)...)
		}
	}
	return dedupe(all)
}

// ExtractFromReviews extracts candidate names from review comments.
func ExtractFromReviews(records []types.ReviewRecord) []string {
	var all []string
	for _, rec := range records {
		all = append(all, ExtractCandidates(rec.Comment)...)
	}
	return dedupe(all)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// isCapitalizedWord reports whether w looks like a capitalized name token:
// an upper-case first letter followed by lower-case letters only.
func isCapitalizedWord(w string) bool {
	if w == "" {
		return false
	}
	runes := []rune(w)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func trimPunct(w string) string {
	return strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// titleCase capitalizes the first letter of each word and lowers the rest,
// matching how extracted names are normalized for display.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func dedupe(names []string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, n := range names {
		key := strings.ToLower(n)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, n)
		}
	}
	return unique
}
