package types

// AnalysisReport is the structured document the synthesis oracle is asked to
// return. The shape mirrors the synthesis prompt's JSON contract; a report
// parsed from malformed oracle output degrades to EmptyReport rather than
// failing the run.
type AnalysisReport struct {
	OverallSentiment  Sentiment          `json:"overall_sentiment"`
	Difficulty        DifficultyProfile  `json:"difficulty"`
	Professors        []ProfessorSummary `json:"professors"`
	Advice            Advice             `json:"advice"`
	CommonPitfalls    []string           `json:"common_pitfalls"`
	GradeDistribution string             `json:"grade_distribution"`
}

// Sentiment captures the overall tone of the discussions.
type Sentiment struct {
	Summary          string   `json:"summary"`
	Workload         Workload `json:"workload"`
	MinorityOpinions []string `json:"minority_opinions,omitempty"`
}

// Workload describes the course's time commitment.
type Workload struct {
	HoursPerWeek   string `json:"hours_per_week"`
	Assignments    string `json:"assignments"`
	TimeCommitment string `json:"time_commitment"`
}

// DifficultyProfile describes how hard students found the course.
type DifficultyProfile struct {
	Rank             string   `json:"rank"`
	Rating           float64  `json:"rating"`
	MaxRating        float64  `json:"max_rating"`
	Explanation      []string `json:"explanation,omitempty"`
	MinorityOpinions []string `json:"minority_opinions,omitempty"`
}

// ProfessorSummary is the per-instructor section of the report. The Name
// field doubles as the side channel the orchestrator reads finalized
// instructor names from for the targeted rating lookup.
type ProfessorSummary struct {
	Name             string          `json:"name"`
	Rating           float64         `json:"rating"`
	MaxRating        float64         `json:"max_rating"`
	Reviews          []SourcedReview `json:"reviews,omitempty"`
	MinorityOpinions []string        `json:"minority_opinions,omitempty"`
}

// SourcedReview is a single dated review with its provenance.
type SourcedReview struct {
	Source string `json:"source"`
	Date   string `json:"date,omitempty"`
	Text   string `json:"text"`
}

// Advice holds the actionable sections of the report.
type Advice struct {
	CourseSpecificTips []string `json:"course_specific_tips,omitempty"`
	Resources          []string `json:"resources,omitempty"`
	MinorityOpinions   []string `json:"minority_opinions,omitempty"`
}

// EmptyReport returns a structurally valid report with no analytical
// content. Returned when the oracle's output cannot be parsed so callers
// always receive a well-formed result.
func EmptyReport() *AnalysisReport {
	return &AnalysisReport{
		OverallSentiment:  Sentiment{Summary: "No analysis available."},
		Difficulty:        DifficultyProfile{Rank: "Unknown", MaxRating: 10},
		Professors:        []ProfessorSummary{},
		CommonPitfalls:    []string{},
		GradeDistribution: "No clear info",
	}
}

// InstructorNames returns the professor names named by the report, skipping
// names shorter than three characters. This is the finalized list the
// targeted rating lookup is bounded by.
func (r *AnalysisReport) InstructorNames() []string {
	var names []string
	for _, p := range r.Professors {
		if len(p.Name) >= 3 {
			names = append(names, p.Name)
		}
	}
	return names
}
