package entity

import (
	"math"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docsense/constants"
)

// Artifacts holds the persisted explainability artifact paths.
type Artifacts struct {
	Heatmap  string `json:"explainability_map"`
	Fields   string `json:"field_visualization"`
	Decision string `json:"decision_visualization"`
}

// ProcessingResult is the sole return value of a pipeline run.
type ProcessingResult struct {
	RunID          uuid.UUID
	Classification Classification
	Fields         map[string]Field
	FieldOrder     []string
	Anomalies      []Anomaly
	Decision       constants.Decision
	Reasoning      string
	Artifacts      Artifacts
	Language       string
	Tokens         []Token
}

// ResultView is the public serialized shape of a ProcessingResult.
type ResultView struct {
	RunID                 string            `json:"run_id"`
	DocumentType          string            `json:"document_type"`
	ConfidenceScore       float64           `json:"confidence_score"`
	Decision              string            `json:"decision"`
	Reasoning             string            `json:"reasoning"`
	FieldsExtracted       map[string]string `json:"fields_extracted"`
	Anomalies             []string          `json:"anomalies"`
	ExplainabilityMap     string            `json:"explainability_map"`
	FieldVisualization    string            `json:"field_visualization"`
	DecisionVisualization string            `json:"decision_visualization"`
	Language              string            `json:"language,omitempty"`
}

// View flattens the result; provenance and per-field confidence are omitted.
func (r *ProcessingResult) View() ResultView {
	fields := make(map[string]string, len(r.Fields))
	for name, f := range r.Fields {
		fields[name] = f.Value
	}
	anomalies := make([]string, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		anomalies = append(anomalies, a.String())
	}
	return ResultView{
		RunID:                 r.RunID.String(),
		DocumentType:          string(r.Classification.Type),
		ConfidenceScore:       Round(r.Classification.Confidence, 4),
		Decision:              string(r.Decision),
		Reasoning:             r.Reasoning,
		FieldsExtracted:       fields,
		Anomalies:             anomalies,
		ExplainabilityMap:     r.Artifacts.Heatmap,
		FieldVisualization:    r.Artifacts.Fields,
		DecisionVisualization: r.Artifacts.Decision,
		Language:              r.Language,
	}
}

// OrderedFields returns fields in schema order.
func (r *ProcessingResult) OrderedFields() []Field {
	out := make([]Field, 0, len(r.Fields))
	for _, name := range r.FieldOrder {
		if f, ok := r.Fields[name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
