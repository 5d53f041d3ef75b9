package constants

// Decision is the terminal judgment of a pipeline run.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReview  Decision = "review"
	DecisionReject  Decision = "reject"
)

// Severity grades an anomaly.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Weight orders severities; higher is worse.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// AnomalyCode is the closed anomaly taxonomy.
type AnomalyCode string

const (
	AnomalyRequiredFieldMissing AnomalyCode = "required_field_missing"
	AnomalyTotalMismatch        AnomalyCode = "total_mismatch"
	AnomalyDateOrderInvalid     AnomalyCode = "date_order_invalid"
	AnomalyLowFieldConfidence   AnomalyCode = "low_field_confidence"
	AnomalyLowOCRConfidence     AnomalyCode = "low_ocr_confidence"
	AnomalyLineItemsMismatch    AnomalyCode = "line_items_mismatch"
	AnomalyInvalidFieldFormat   AnomalyCode = "invalid_field_format"
)
