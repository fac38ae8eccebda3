package types

import "fmt"

// ReviewRecord represents a single review row from the spreadsheet-backed
// review database. The subject code comes from the most recently seen header
// row at parse time; AverageDifficulty is only present on header rows and is
// inherited by the rows that follow it.
type ReviewRecord struct {
	SubjectCode       string   `json:"subject_code"`
	AverageDifficulty *float64 `json:"average_difficulty,omitempty"`
	Comment           string   `json:"comment"`
	Difficulty        *int     `json:"difficulty,omitempty"`
	Date              string   `json:"date,omitempty"`
}

// NewReviewRecord validates the fields a review must carry at the connector
// boundary.
func NewReviewRecord(subjectCode, comment string) (*ReviewRecord, error) {
	if subjectCode == "" {
		return nil, fmt.Errorf("review record: subject code is required")
	}
	return &ReviewRecord{SubjectCode: subjectCode, Comment: comment}, nil
}

// ReviewSummary aggregates the review rows for a single subject code.
type ReviewSummary struct {
	SubjectCode              string   `json:"subject_code"`
	Found                    bool     `json:"found"`
	TotalReviews             int      `json:"total_reviews"`
	AverageDifficulty        *float64 `json:"average_difficulty,omitempty"`
	OverallAverageDifficulty *float64 `json:"overall_average_difficulty,omitempty"`
	MinDifficulty            *int     `json:"min_difficulty,omitempty"`
	MaxDifficulty            *int     `json:"max_difficulty,omitempty"`
	RecentComments           []string `json:"recent_comments,omitempty"`
}
