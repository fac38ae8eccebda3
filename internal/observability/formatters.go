// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/course-compass/internal/pipeline"
	"github.com/jonathan/course-compass/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintReport outputs a human-readable summary of the analysis report.
func (p *Printer) PrintReport(report *types.AnalysisReport) {
	if report == nil {
		return
	}

	var sb strings.Builder

	summary := report.OverallSentiment.Summary
	if len(summary) > 50 {
		summary = summary[:47] + "..."
	}
	sb.WriteString(fmt.Sprintf("Sentiment:  %s\n", summary))
	sb.WriteString(fmt.Sprintf("Difficulty: %s (%.1f/%.0f)\n", report.Difficulty.Rank,
		report.Difficulty.Rating, report.Difficulty.MaxRating))
	if report.OverallSentiment.Workload.HoursPerWeek != "" {
		sb.WriteString(fmt.Sprintf("Hours/week: %s\n", report.OverallSentiment.Workload.HoursPerWeek))
	}
	sb.WriteString("\n")

	if len(report.Professors) > 0 {
		sb.WriteString("Professors:\n")
		count := min(len(report.Professors), maxItemsToShow)
		for i := 0; i < count; i++ {
			prof := report.Professors[i]
			sb.WriteString(fmt.Sprintf("  • %s (%.1f/%.0f, %d reviews)\n",
				prof.Name, prof.Rating, prof.MaxRating, len(prof.Reviews)))
		}
		if len(report.Professors) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Professors)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(report.Advice.CourseSpecificTips) > 0 {
		sb.WriteString("Tips:\n")
		count := min(len(report.Advice.CourseSpecificTips), 3)
		for i := 0; i < count; i++ {
			tip := report.Advice.CourseSpecificTips[i]
			if len(tip) > 50 {
				tip = tip[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", tip))
		}
		if len(report.Advice.CourseSpecificTips) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Advice.CourseSpecificTips)-3))
		}
		sb.WriteString("\n")
	}

	if report.GradeDistribution != "" {
		sb.WriteString(fmt.Sprintf("Grades: %s", report.GradeDistribution))
	}

	p.printBox("ANALYSIS REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResolvedNames outputs the instructor names resolved against the
// rating service, with match provenance.
func (p *Printer) PrintResolvedNames(names []types.ResolvedName) {
	if len(names) == 0 {
		return
	}

	var sb strings.Builder
	for i, n := range names {
		marker := "✗"
		switch n.MatchType {
		case types.MatchExact:
			marker = "✓"
		case types.MatchFuzzy:
			marker = "~"
		}
		sb.WriteString(fmt.Sprintf("%s %s (%s, %.2f)", marker, n.Name, n.MatchType, n.Confidence))
		if i < len(names)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RESOLVED INSTRUCTORS", sb.String())
}

// PrintRunSummary outputs the run outcome and fetch/filter statistics.
func (p *Printer) PrintRunSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topic:    %s\n", result.Topic))
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", result.Outcome))
	if result.Err != "" {
		errMsg := result.Err
		if len(errMsg) > 40 {
			errMsg = errMsg[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("Error:    %s\n", errMsg))
	}
	sb.WriteString("\n")

	m := result.Metadata
	sb.WriteString(fmt.Sprintf("Threads:     %d fetched, %d relevant\n", m.ThreadsFetched, m.ThreadsFiltered))
	sb.WriteString(fmt.Sprintf("Reviews:     %d\n", m.ReviewsFetched))
	sb.WriteString(fmt.Sprintf("Instructors: %d extracted, %d matched\n", m.NamesExtracted, m.NamesMatched))
	sb.WriteString(fmt.Sprintf("Rating data: %v\n", m.RatingsEnabled))
	sb.WriteString(fmt.Sprintf("Final pass:  %v", m.FinalPassRan))

	p.printBox("RUN SUMMARY", sb.String())
}
