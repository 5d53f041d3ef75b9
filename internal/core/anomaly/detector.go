// Package anomaly runs the table-driven validation rules over extracted fields.
package anomaly

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

type Config struct {
	AmountTolerance      float64
	FieldConfidenceFloor float64
	OCRConfidenceFloor   float64
}

// Input is everything the detector inspects for one run.
type Input struct {
	Type              constants.DocumentType
	Schema            []entity.FieldSpec
	Fields            map[string]entity.Field
	MeanOCRConfidence float64
}

// Validator is one type-specific consistency check.
type Validator struct {
	Name  string
	Check func(cfg Config, in Input) []entity.Anomaly
}

type Detector struct {
	cfg    Config
	logger *slog.Logger
}

func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AmountTolerance <= 0 {
		cfg.AmountTolerance = 0.01
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect returns anomalies in a fixed order: missing required fields in
// schema order, validators in declaration order, low field confidence in
// schema order, then low OCR confidence.
func (d *Detector) Detect(in Input, validators []Validator) []entity.Anomaly {
	var out []entity.Anomaly

	for _, spec := range in.Schema {
		if _, ok := in.Fields[spec.Name]; spec.Required && !ok {
			out = append(out, entity.Anomaly{
				Code:     constants.AnomalyRequiredFieldMissing,
				Severity: constants.SeverityWarning,
				Message:  fmt.Sprintf("required field %s was not found", spec.Name),
				Fields:   []string{spec.Name},
			})
		}
	}

	for _, v := range validators {
		found := v.Check(d.cfg, in)
		if len(found) > 0 {
			d.logger.Debug("validator flagged document", "validator", v.Name, "count", len(found))
		}
		out = append(out, found...)
	}

	for _, spec := range in.Schema {
		f, ok := in.Fields[spec.Name]
		if !ok || f.Confidence >= d.cfg.FieldConfidenceFloor {
			continue
		}
		out = append(out, entity.Anomaly{
			Code:     constants.AnomalyLowFieldConfidence,
			Severity: constants.SeverityInfo,
			Message:  fmt.Sprintf("field %s confidence %.2f is below %.2f", spec.Name, f.Confidence, d.cfg.FieldConfidenceFloor),
			Fields:   []string{spec.Name},
		})
	}

	if in.MeanOCRConfidence < d.cfg.OCRConfidenceFloor {
		out = append(out, entity.Anomaly{
			Code:     constants.AnomalyLowOCRConfidence,
			Severity: constants.SeverityInfo,
			Message:  fmt.Sprintf("mean OCR confidence %.2f is below %.2f", in.MeanOCRConfidence, d.cfg.OCRConfidenceFloor),
		})
	}
	return out
}

// HasCritical reports whether any anomaly is critical.
func HasCritical(anomalies []entity.Anomaly) bool {
	for _, a := range anomalies {
		if a.Severity == constants.SeverityCritical {
			return true
		}
	}
	return false
}
