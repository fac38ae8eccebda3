package names

import (
	"strings"

	"github.com/adrg/strutil"

	"github.com/jonathan/course-compass/internal/types"
)

// DefaultThreshold is the minimum similarity for a fuzzy directory match.
const DefaultThreshold = 0.7

// maxExpansionsPerPartial bounds the fan-out when a single-word candidate
// matches several directory entries.
const maxExpansionsPerPartial = 3

// blacklist holds non-name words; any candidate containing one is dropped
// during cleanup.
var blacklist = []string{
	"said", "told", "asked", "think", "know", "like", "good", "bad",
	"easy", "hard", "test", "exam", "homework", "assignment", "grade",
	"class", "course", "section", "chapter", "book", "page", "time",
}

// nicknames maps common short names to the full first names they may stand
// for in the directory.
var nicknames = map[string][]string{
	"mike":  {"michael", "mike", "mikhail"},
	"dave":  {"david", "dave"},
	"chris": {"christopher", "chris", "christian"},
	"steve": {"steven", "steve", "stephen"},
	"bob":   {"robert", "bob", "bobby"},
	"jim":   {"james", "jim", "jimmy"},
	"bill":  {"william", "bill", "billy"},
	"dan":   {"daniel", "dan", "danny"},
	"joe":   {"joseph", "joe", "joey"},
	"alex":  {"alexander", "alexandra", "alex", "alexis"},
	"sam":   {"samuel", "samantha", "sam"},
	"pat":   {"patrick", "patricia", "pat"},
	"tony":  {"anthony", "antonio", "tony"},
	"nick":  {"nicholas", "nick", "nicolas"},
}

// Match pairs a directory entry with the similarity score that selected it.
type Match struct {
	Instructor types.InstructorRating `json:"instructor"`
	Confidence float64                `json:"confidence"`
	MatchType  types.MatchType        `json:"match_type"`
}

// CleanAndNormalize drops candidates containing digits, candidates shorter
// than 3 or longer than 50 characters, and candidates containing a
// blacklisted word. Deduplication is case-insensitive and first-seen order
// is preserved.
func CleanAndNormalize(raw []string) []string {
	var cleaned []string
	seen := make(map[string]bool)
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if len(name) < 3 || len(name) > 50 {
			continue
		}
		if strings.ContainsAny(name, "0123456789") {
			continue
		}
		if containsAny(strings.ToLower(name), blacklist) {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, name)
	}
	return cleaned
}

// ExpandPartials expands single-word candidates into full names using the
// directory's first and last names plus the nickname table. Every distinct
// matching entry is added, capped at maxExpansionsPerPartial per partial;
// an unmatched partial is retained so it is not silently dropped.
// Multi-word candidates pass through unchanged.
func ExpandPartials(candidates []string, directory []types.InstructorRating) []string {
	var expanded []string
	for _, name := range candidates {
		words := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
		if len(words) != 1 {
			expanded = append(expanded, name)
			continue
		}

		single := words[0]
		variants := nicknames[single]
		var matches []string
		for _, prof := range directory {
			first := strings.ToLower(prof.FirstName)
			last := strings.ToLower(prof.LastName)
			switch {
			case single == first || single == last:
				matches = append(matches, prof.FormattedName())
			case len(variants) > 0 && contains(variants, first):
				matches = append(matches, prof.FormattedName())
			}
			if len(matches) == maxExpansionsPerPartial {
				break
			}
		}

		if len(matches) > 0 {
			expanded = append(expanded, matches...)
		} else {
			expanded = append(expanded, name)
		}
	}
	return dedupe(expanded)
}

// FuzzyMatch scores every candidate against every directory entry's full,
// first and last name independently, keeps the per-entry maximum, and
// retains the single best entry per candidate when its score meets the
// threshold. Ties break toward the first-encountered entry.
func FuzzyMatch(candidates []string, directory []types.InstructorRating, threshold float64) map[string]Match {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	metric := newRatcliffObershelp()

	matched := make(map[string]Match)
	for _, name := range candidates {
		lower := strings.ToLower(name)
		var best *types.InstructorRating
		bestScore := 0.0

		for idx := range directory {
			prof := &directory[idx]
			score := strutil.Similarity(lower, strings.ToLower(prof.FormattedName()), metric)
			if s := strutil.Similarity(lower, strings.ToLower(prof.FirstName), metric); s > score {
				score = s
			}
			if s := strutil.Similarity(lower, strings.ToLower(prof.LastName), metric); s > score {
				score = s
			}
			if score > bestScore && score >= threshold {
				bestScore = score
				best = prof
			}
		}

		if best != nil {
			matchType := types.MatchFuzzy
			if bestScore >= 0.999 {
				matchType = types.MatchExact
			}
			matched[name] = Match{Instructor: *best, Confidence: bestScore, MatchType: matchType}
		}
	}
	return matched
}

// ResolveAll runs the full resolution chain over raw candidates and tags
// every cleaned name with its outcome, including unresolved ones.
func ResolveAll(raw []string, directory []types.InstructorRating, threshold float64) []types.ResolvedName {
	cleaned := CleanAndNormalize(raw)
	expanded := ExpandPartials(cleaned, directory)
	matches := FuzzyMatch(expanded, directory, threshold)

	resolved := make([]types.ResolvedName, 0, len(expanded))
	for _, name := range expanded {
		if m, ok := matches[name]; ok {
			resolved = append(resolved, types.ResolvedName{
				Name:       m.Instructor.FormattedName(),
				Confidence: m.Confidence,
				MatchType:  m.MatchType,
			})
			continue
		}
		resolved = append(resolved, types.ResolvedName{Name: name, MatchType: types.MatchUnresolved})
	}
	return resolved
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
