package ratings

import (
	"fmt"
	"strings"
)

// FormatForSynthesis renders a course lookup as the plain-text block the
// synthesis oracle consumes. Empty lookups yield an empty string so callers
// can omit the section entirely.
func FormatForSynthesis(lookup *CourseLookup, subject string) string {
	if lookup == nil || len(lookup.Instructors) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Professor Rating Data - %s\n\n", strings.ToUpper(subject))

	for _, inst := range lookup.Instructors {
		fmt.Fprintf(&b, "Professor: %s\n", inst.FormattedName())
		if inst.Department != "" {
			fmt.Fprintf(&b, "Department: %s\n", inst.Department)
		}
		fmt.Fprintf(&b, "Overall Rating: %.1f/5 (%d ratings)\n", inst.AvgRating, inst.NumRatings)
		fmt.Fprintf(&b, "Average Difficulty: %.1f/5\n", inst.AvgDifficulty)
		if inst.WouldTakeAgainPercent > 0 {
			fmt.Fprintf(&b, "Would Take Again: %.0f%%\n", inst.WouldTakeAgainPercent)
		}
		if len(inst.Reviews) > 0 {
			fmt.Fprintf(&b, "Course Reviews (%d):\n", len(inst.Reviews))
			for i, r := range inst.Reviews {
				fmt.Fprintf(&b, "Review %d:\n", i+1)
				if r.Date != "" {
					fmt.Fprintf(&b, "Date: %s\n", r.Date)
				}
				if r.Rating > 0 {
					fmt.Fprintf(&b, "Rating: %.1f/5\n", r.Rating)
				}
				if r.Grade != "" {
					fmt.Fprintf(&b, "Grade: %s\n", r.Grade)
				}
				if r.Comment != "" {
					fmt.Fprintf(&b, "Comment: %s\n", r.Comment)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
