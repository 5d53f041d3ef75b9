// Package result holds the public result contract.
package result

import (
	"github.com/joseph-ayodele/docsense/constants"
)

// BuildResultJSONSchema returns the JSON Schema (draft 2020-12 subset) of entity.ResultView as a generic map.
func BuildResultJSONSchema() map[string]any {
	decisions := []string{
		string(constants.DecisionApprove),
		string(constants.DecisionReview),
		string(constants.DecisionReject),
	}
	artifact := map[string]any{"type": "string"}

	props := map[string]any{
		"run_id":                 map[string]any{"type": "string", "format": "uuid"},
		"document_type":          map[string]any{"type": "string", "enum": constants.AsStringSlice()},
		"confidence_score":       map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"decision":               map[string]any{"type": "string", "enum": decisions},
		"reasoning":              map[string]any{"type": "string", "minLength": 1},
		"fields_extracted":       map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
		"anomalies":              map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"explainability_map":     artifact,
		"field_visualization":    artifact,
		"decision_visualization": artifact,
		"language":               map[string]any{"type": "string"},
	}
	required := []string{
		"run_id", "document_type", "confidence_score", "decision", "reasoning",
		"fields_extracted", "anomalies",
		"explainability_map", "field_visualization", "decision_visualization",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
