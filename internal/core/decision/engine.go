// Package decision turns classification and anomalies into an
// approve/review/reject outcome with a deterministic reasoning trace.
package decision

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

type Config struct {
	AcceptThreshold     float64
	HardRejectThreshold float64
}

type Input struct {
	Classification entity.Classification
	Schema         []entity.FieldSpec
	Fields         map[string]entity.Field
	Anomalies      []entity.Anomaly
}

// Outcome is the decision plus what led to it. Contributors lists the
// fields named by triggering anomalies, first mention first.
type Outcome struct {
	Decision     constants.Decision
	Reasoning    string
	Triggers     []string
	Contributors []string
}

type Engine struct {
	cfg    Config
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AcceptThreshold <= 0 {
		cfg.AcceptThreshold = 0.6
	}
	if cfg.HardRejectThreshold <= 0 {
		cfg.HardRejectThreshold = 0.2
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Decide rejects on any critical anomaly or confidence below the hard
// reject threshold; reviews on low confidence, warnings, missing required
// fields, or an Unknown type; approves otherwise.
func (e *Engine) Decide(in Input) Outcome {
	conf := in.Classification.Confidence
	var reject, review []string
	var contributors []string
	seen := make(map[string]bool)
	contribute := func(a entity.Anomaly) {
		for _, f := range a.Fields {
			if !seen[f] {
				seen[f] = true
				contributors = append(contributors, f)
			}
		}
	}

	for _, a := range in.Anomalies {
		if a.Severity == constants.SeverityCritical {
			reject = append(reject, fmt.Sprintf("critical anomaly %s: %s", a.Code, a.Message))
			contribute(a)
		}
	}
	if conf < e.cfg.HardRejectThreshold {
		reject = append(reject, fmt.Sprintf("classification confidence %.2f is below the reject threshold %.2f", conf, e.cfg.HardRejectThreshold))
	} else if conf < e.cfg.AcceptThreshold {
		review = append(review, fmt.Sprintf("classification confidence %.2f is below the acceptance threshold %.2f", conf, e.cfg.AcceptThreshold))
	}
	var missing []string
	for _, a := range in.Anomalies {
		if a.Severity != constants.SeverityWarning {
			continue
		}
		contribute(a)
		if a.Code == constants.AnomalyRequiredFieldMissing {
			missing = append(missing, a.Fields...)
			continue
		}
		review = append(review, fmt.Sprintf("warning %s: %s", a.Code, a.Message))
	}
	if len(missing) > 0 {
		review = append(review, "missing required fields: "+strings.Join(missing, ", "))
	}
	if in.Classification.Type == constants.Unknown {
		review = append(review, "document type could not be determined")
	}

	out := Outcome{Contributors: contributors}
	switch {
	case len(reject) > 0:
		out.Decision = constants.DecisionReject
		out.Triggers = reject
	case len(review) > 0:
		out.Decision = constants.DecisionReview
		out.Triggers = review
	default:
		out.Decision = constants.DecisionApprove
	}
	out.Reasoning = e.reasoning(in, out)

	e.logger.Debug("decision made",
		"decision", out.Decision,
		"type", in.Classification.Type,
		"confidence", conf,
		"triggers", len(out.Triggers),
	)
	return out
}

func (e *Engine) reasoning(in Input, out Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Classified as %s with confidence %.2f.", in.Classification.Type, in.Classification.Confidence)
	if len(in.Schema) > 0 {
		found := 0
		for _, s := range in.Schema {
			if _, ok := in.Fields[s.Name]; ok {
				found++
			}
		}
		fmt.Fprintf(&sb, " Extracted %d of %d fields.", found, len(in.Schema))
	}
	for _, t := range out.Triggers {
		sb.WriteString(" ")
		sb.WriteString(strings.ToUpper(t[:1]) + t[1:])
		sb.WriteString(".")
	}
	switch out.Decision {
	case constants.DecisionReject:
		sb.WriteString(" Decision: reject.")
	case constants.DecisionReview:
		sb.WriteString(" Decision: review; manual verification recommended.")
	default:
		sb.WriteString(" All checks passed. Decision: approve.")
	}
	return sb.String()
}
