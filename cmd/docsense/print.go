package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/core/models"
	"github.com/joseph-ayodele/docsense/internal/entity"
	"github.com/joseph-ayodele/docsense/internal/ingest"
)

func decisionStyle(d constants.Decision) color.Style {
	switch d {
	case constants.DecisionApprove:
		return color.New(color.FgGreen, color.OpBold)
	case constants.DecisionReview:
		return color.New(color.FgYellow, color.OpBold)
	default:
		return color.New(color.FgRed, color.OpBold)
	}
}

func severityStyle(s constants.Severity) color.Style {
	switch s {
	case constants.SeverityCritical:
		return color.New(color.FgRed)
	case constants.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// printResult writes the human-readable report of one run.
func printResult(w io.Writer, source string, res *entity.ProcessingResult) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "Processing document: %s\n%s\n", source, rule)
	fmt.Fprintf(w, "Document Type:    %s\n", color.Bold.Sprint(res.Classification.Type))
	fmt.Fprintf(w, "Confidence Score: %.2f%%\n", res.Classification.Confidence*100)
	if res.Language != "" {
		fmt.Fprintf(w, "Language:         %s\n", res.Language)
	}
	fmt.Fprintf(w, "Decision:         %s\n", decisionStyle(res.Decision).Sprint(res.Decision))
	fmt.Fprintf(w, "\nReasoning: %s\n", res.Reasoning)

	fmt.Fprintln(w, "\nExtracted Fields:")
	if len(res.Fields) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		table := newTable(w, "Field", "Value", "Confidence", "Method")
		for _, f := range res.OrderedFields() {
			table.Append([]string{f.Name, truncate(f.Value, 72), fmt.Sprintf("%.2f", f.Confidence), f.Method})
		}
		table.Render()
	}

	if len(res.Anomalies) > 0 {
		fmt.Fprintln(w, "\nAnomalies Detected:")
		for _, a := range res.Anomalies {
			fmt.Fprintf(w, "  - %s\n", severityStyle(a.Severity).Sprint(a.String()))
		}
	}

	if res.Artifacts.Heatmap != "" {
		fmt.Fprintln(w, "\nExplainability Maps:")
		fmt.Fprintf(w, "  - Heatmap: %s\n", res.Artifacts.Heatmap)
		fmt.Fprintf(w, "  - Field Visualization: %s\n", res.Artifacts.Fields)
		fmt.Fprintf(w, "  - Decision Visualization: %s\n", res.Artifacts.Decision)
	}
}

// printBatch writes one row per processed file plus a totals line.
func printBatch(w io.Writer, results []ingest.FileResult, stats ingest.DirStats) {
	table := newTable(w, "File", "Type", "Confidence", "Decision", "Fields", "Anomalies", "Error")
	for _, fr := range results {
		name := filepath.Base(fr.Path)
		if fr.Result == nil {
			table.Append([]string{name, "-", "-", color.Red.Sprint("failed"), "-", "-", truncate(fr.Err, 60)})
			continue
		}
		res := fr.Result
		table.Append([]string{
			name,
			string(res.Classification.Type),
			fmt.Sprintf("%.2f", res.Classification.Confidence),
			decisionStyle(res.Decision).Sprint(res.Decision),
			fmt.Sprint(len(res.Fields)),
			fmt.Sprint(len(res.Anomalies)),
			truncate(fr.Err, 60),
		})
	}
	table.Render()
	fmt.Fprintf(w, "\nscanned %d, matched %d, succeeded %d, failed %d\n", stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed)
}

func printRegistry(w io.Writer, reg *models.Registry) {
	table := newTable(w, "Component", "Value")
	table.Append([]string{"ocr engine", reg.Engine.Name()})
	table.Append([]string{"keywords", fmt.Sprint(reg.Keywords)})
	table.Append([]string{"gazetteer entries", fmt.Sprint(reg.Gazetteer)})
	table.Append([]string{"statistical ner", fmt.Sprint(reg.NER)})
	table.Append([]string{"loaded at", reg.LoadedAt.Format("2006-01-02 15:04:05")})
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
