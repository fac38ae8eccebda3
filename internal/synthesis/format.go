package synthesis

import (
	"fmt"
	"strings"

	"github.com/jonathan/course-compass/internal/types"
)

// FormatThreads renders discussion threads as the text block the oracle
// consumes. Each thread opens with a POST line carrying score and timestamp,
// followed by one COMMENT line per reply; the prompt's recency instructions
// key off the created_utc values.
func FormatThreads(threads []types.Thread) string {
	if len(threads) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range threads {
		fmt.Fprintf(&b, "POST: %s [+%d] (created_utc=%.0f)\n", t.Title, t.Score, t.CreatedUTC)
		if t.Body != "" {
			b.WriteString(t.Body)
			b.WriteString("\n")
		}
		for _, r := range t.Replies {
			fmt.Fprintf(&b, "COMMENT: [+%d] (created_utc=%.0f) %s\n", r.Score, r.CreatedUTC, r.Body)
		}
		b.WriteString("\n")
	}
	return b.String()
}
