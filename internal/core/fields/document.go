package fields

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

// Document is the read-only view rules search. Entities are recognized on
// first use and cached for the rest of the run.
type Document struct {
	Tokens []entity.Token
	Lines  []entity.Line

	ctx        context.Context
	recognizer EntityRecognizer
	logger     *slog.Logger
	entities   []Entity
	recognized bool
}

func NewDocument(ctx context.Context, tokens []entity.Token, recognizer EntityRecognizer, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	return &Document{
		Tokens:     tokens,
		Lines:      entity.GroupLines(tokens),
		ctx:        ctx,
		recognizer: recognizer,
		logger:     logger,
	}
}

// LineText returns the text of line i.
func (d *Document) LineText(i int) string {
	return d.Lines[i].Text(d.Tokens)
}

// Text joins all lines with newlines.
func (d *Document) Text() string {
	parts := make([]string, len(d.Lines))
	for i := range d.Lines {
		parts[i] = d.LineText(i)
	}
	return strings.Join(parts, "\n")
}

// Entities runs the recognizer once. Failures are logged and yield none.
func (d *Document) Entities() []Entity {
	if d.recognized {
		return d.entities
	}
	d.recognized = true
	if d.recognizer == nil {
		return nil
	}
	ents, err := d.recognizer.Recognize(d.ctx, d.Text())
	if err != nil {
		d.logger.Warn("entity recognition failed", "error", err)
		return nil
	}
	d.entities = ents
	return ents
}

// locate finds the first token run whose words equal phrase, ignoring case
// and surrounding punctuation. It searches lines [0, maxLine) or all lines
// when maxLine <= 0.
func (d *Document) locate(phrase string, maxLine int) []int {
	want := strings.Fields(phrase)
	for k := range want {
		want[k] = normWord(want[k])
	}
	if len(want) == 0 {
		return nil
	}
	for li, l := range d.Lines {
		if maxLine > 0 && li >= maxLine {
			break
		}
		if at := d.matchAt(l.Tokens, want); at >= 0 {
			return l.Tokens[at : at+len(want)]
		}
	}
	return nil
}

// matchAt returns the first position in line where want occurs, or -1.
func (d *Document) matchAt(line []int, want []string) int {
	for i := 0; i+len(want) <= len(line); i++ {
		ok := true
		for k, w := range want {
			if normWord(d.Tokens[line[i+k]].Text) != w {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

// isHeaderLine matches short all-caps section headings.
func (d *Document) isHeaderLine(i int) bool {
	l := d.Lines[i]
	if len(l.Tokens) > 3 {
		return false
	}
	letters := 0
	for _, t := range l.Tokens {
		for _, r := range d.Tokens[t].Text {
			switch {
			case r >= 'a' && r <= 'z':
				return false
			case r >= 'A' && r <= 'Z':
				letters++
			}
		}
	}
	return letters >= 3
}

// isLabelLine matches "Label: value" lines.
func (d *Document) isLabelLine(i int) bool {
	l := d.Lines[i]
	for k, t := range l.Tokens {
		if k >= 3 {
			break
		}
		if strings.HasSuffix(d.Tokens[t].Text, ":") {
			return true
		}
	}
	return false
}
