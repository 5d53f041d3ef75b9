package entity

import (
	"fmt"

	"github.com/joseph-ayodele/docsense/constants"
)

// Anomaly is a detected validation rule violation.
type Anomaly struct {
	Code     constants.AnomalyCode `json:"code"`
	Severity constants.Severity    `json:"severity"`
	Message  string                `json:"message"`
	Fields   []string              `json:"fields,omitempty"`
}

// String renders the anomaly as "[severity] code: message".
func (a Anomaly) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Severity, a.Code, a.Message)
}

// Classification is the classifier output. Scores carries the raw per-type
// scores for explainability.
type Classification struct {
	Type       constants.DocumentType             `json:"type"`
	Confidence float64                            `json:"confidence"`
	RawType    constants.DocumentType             `json:"raw_type"`
	Scores     map[constants.DocumentType]float64 `json:"scores,omitempty"`
}
