package types

// MatchType records how a candidate instructor name was resolved against the
// rating-service directory.
type MatchType string

// Match provenance values, from strongest to weakest.
const (
	MatchExact      MatchType = "exact"
	MatchFuzzy      MatchType = "fuzzy"
	MatchUnresolved MatchType = "unresolved"
)

// ResolvedName is the output of name resolution: a canonical display name
// with a confidence score and provenance. Created fresh per pipeline run,
// never persisted.
type ResolvedName struct {
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
}
