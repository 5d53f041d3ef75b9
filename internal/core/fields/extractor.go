// Package fields extracts typed key fields from an ordered token stream.
package fields

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

type Extractor struct {
	recognizer EntityRecognizer
	logger     *slog.Logger
}

func NewExtractor(recognizer EntityRecognizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{recognizer: recognizer, logger: logger}
}

// Extract applies each field's rules in order and keeps the first hit.
// Fields with no located evidence are omitted; misses never fail the run.
func (e *Extractor) Extract(ctx context.Context, tokens []entity.Token, rules []FieldRule) map[string]entity.Field {
	out := make(map[string]entity.Field, len(rules))
	if len(tokens) == 0 || len(rules) == 0 {
		return out
	}
	doc := NewDocument(ctx, tokens, e.recognizer, e.logger)
	for _, fr := range rules {
		for _, r := range fr.Rules {
			c, ok := r.Find(doc, fr.Spec)
			if !ok || len(c.Tokens) == 0 {
				continue
			}
			f := entity.NewField(fr.Spec.Name, fr.Spec.Kind, c.Value, tokens, c.Tokens, r.Weight, r.Method)
			f.Amount, f.Date, f.Items = c.Amount, c.Date, c.Items
			out[fr.Spec.Name] = f
			break
		}
		if _, ok := out[fr.Spec.Name]; !ok {
			e.logger.Debug("field not found", "field", fr.Spec.Name, "required", fr.Spec.Required)
		}
	}
	return out
}
