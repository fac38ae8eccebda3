package synthesis

import (
	"context"
	_ "embed"
	"encoding/json"
	"log"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/course-compass/internal/llm"
	"github.com/jonathan/course-compass/internal/types"
)

//go:embed report_schema.json
var reportSchemaJSON string

var (
	reportSchema     *gojsonschema.Schema
	reportSchemaOnce sync.Once
)

func compiledSchema() *gojsonschema.Schema {
	reportSchemaOnce.Do(func() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(reportSchemaJSON))
		if err != nil {
			// The schema is a compile-time asset; failing to parse it is a
			// packaging bug, not a runtime condition.
			panic("synthesis: invalid embedded report schema: " + err.Error())
		}
		reportSchema = schema
	})
	return reportSchema
}

// ParseReport decodes an oracle document into an analysis report. Code
// fences are stripped and the document is validated against the report
// schema before decoding. Malformed content never returns an error: the
// caller gets EmptyReport and ok=false, and may retry with repaired text.
func ParseReport(raw string) (*types.AnalysisReport, bool) {
	cleaned := llm.CleanJSONBlock(raw)
	if cleaned == "" {
		return types.EmptyReport(), false
	}

	result, err := compiledSchema().Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		log.Printf("synthesis: report is not valid JSON: %v", err)
		return types.EmptyReport(), false
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			log.Printf("synthesis: report schema violation: %s", desc)
		}
		return types.EmptyReport(), false
	}

	var report types.AnalysisReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		log.Printf("synthesis: report decode failed: %v", err)
		return types.EmptyReport(), false
	}
	return &report, true
}

// ParseReportWithRepair parses raw, and on failure gives the repairer one
// chance to fix the document before degrading to EmptyReport.
func ParseReportWithRepair(ctx context.Context, repairer Repairer, raw string) (*types.AnalysisReport, bool) {
	if report, ok := ParseReport(raw); ok {
		return report, true
	}
	if repairer == nil {
		return types.EmptyReport(), false
	}
	fixed, err := repairer.RepairJSON(ctx, raw)
	if err != nil {
		log.Printf("synthesis: json repair failed: %v", err)
		return types.EmptyReport(), false
	}
	return ParseReport(fixed)
}
