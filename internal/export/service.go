package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docsense/internal/entity"
	"github.com/joseph-ayodele/docsense/internal/ingest"
)

const (
	SheetSummary   = "Documents"
	SheetFields    = "Fields"
	SheetAnomalies = "Anomalies"
)

// Service renders batch results as an XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BatchXLSX returns a workbook with one summary row per file plus sheets
// listing every extracted field and every anomaly. Failed files appear on
// the summary sheet with their error.
func (s *Service) BatchXLSX(results []ingest.FileResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetFields, SheetAnomalies} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetSummary)
	f.SetActiveSheet(activeIndex)

	summary := newSheetWriter(f, SheetSummary, "File", "Run ID", "Document Type", "Confidence", "Decision", "Fields", "Anomalies", "Reasoning", "Error", "Decision Artifact")
	fieldRows := newSheetWriter(f, SheetFields, "File", "Run ID", "Field", "Value", "Confidence", "Method", "Tokens")
	anomalyRows := newSheetWriter(f, SheetAnomalies, "File", "Run ID", "Severity", "Code", "Message")

	for _, fr := range results {
		file := filepath.Base(fr.Path)
		res := fr.Result
		if res == nil {
			summary.row(file, "", "", "", "", "", "", "", truncate(fr.Err, 200), "")
			continue
		}
		runID := res.RunID.String()
		summary.row(
			file,
			runID,
			string(res.Classification.Type),
			entity.Round(res.Classification.Confidence, 4),
			string(res.Decision),
			len(res.Fields),
			len(res.Anomalies),
			truncate(res.Reasoning, 400),
			truncate(fr.Err, 200),
			res.Artifacts.Decision,
		)
		for _, fld := range res.OrderedFields() {
			fieldRows.row(file, runID, fld.Name, truncate(fld.Value, 400), entity.Round(fld.Confidence, 4), fld.Method, fmt.Sprint(fld.Provenance))
		}
		for _, a := range res.Anomalies {
			anomalyRows.row(file, runID, string(a.Severity), string(a.Code), a.Message)
		}
	}

	_ = f.SetColWidth(SheetSummary, "A", "A", 28) // file
	_ = f.SetColWidth(SheetSummary, "B", "B", 38) // run id
	_ = f.SetColWidth(SheetSummary, "C", "G", 14)
	_ = f.SetColWidth(SheetSummary, "H", "H", 80) // reasoning
	_ = f.SetColWidth(SheetSummary, "I", "J", 48)
	_ = f.SetColWidth(SheetFields, "C", "C", 18)
	_ = f.SetColWidth(SheetFields, "D", "D", 60)
	_ = f.SetColWidth(SheetAnomalies, "E", "E", 80)

	for _, w := range []*sheetWriter{summary, fieldRows, anomalyRows} {
		if w.err != nil {
			return nil, fmt.Errorf("xlsx %s: %w", w.sheet, w.err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"fields", fieldRows.n-1,
		"anomalies", anomalyRows.n-1,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	n     int
	err   error
}

func newSheetWriter(f *excelize.File, sheet string, headers ...string) *sheetWriter {
	w := &sheetWriter{f: f, sheet: sheet}
	vals := make([]any, len(headers))
	for i, h := range headers {
		vals[i] = h
	}
	w.row(vals...)
	return w
}

func (w *sheetWriter) row(vals ...any) {
	if w.err != nil {
		return
	}
	w.n++
	cell, err := excelize.CoordinatesToCellName(1, w.n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &vals)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
