package fields

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

// Rule weights scale the mean provenance confidence of a field.
const (
	WeightLabel     = 1.0
	WeightPattern   = 0.9
	WeightEntity    = 0.8
	WeightHeuristic = 0.7
)

// Candidate is a located value before confidence scoring.
type Candidate struct {
	Value  string
	Tokens []int
	Amount *float64
	Date   *time.Time
	Items  []string
}

// Rule locates one field value in a document.
type Rule struct {
	Method string
	Weight float64
	Find   func(d *Document, spec entity.FieldSpec) (Candidate, bool)
}

// FieldRule binds a schema entry to its rules, tried in order.
type FieldRule struct {
	Spec  entity.FieldSpec
	Rules []Rule
}

// Label finds "label: value" pairs at the start of a line. Labels are tried
// in priority order. Text and list fields whose label ends the line take
// the next line as their value.
func Label(labels ...string) Rule {
	return Rule{Method: "label", Weight: WeightLabel, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		for _, label := range labels {
			want := strings.Fields(strings.ToLower(label))
			for k := range want {
				want[k] = normWord(want[k])
			}
			for li, l := range d.Lines {
				if len(l.Tokens) < len(want) || d.matchAt(l.Tokens[:len(want)], want) != 0 {
					continue
				}
				rest := trimColons(d, l.Tokens[len(want):])
				if len(rest) == 0 && (spec.Kind == entity.KindText || spec.Kind == entity.KindList) &&
					li+1 < len(d.Lines) && !d.isLabelLine(li+1) && !d.isHeaderLine(li+1) {
					rest = d.Lines[li+1].Tokens
				}
				if len(rest) == 0 {
					continue
				}
				if c, ok := resolve(d, spec.Kind, rest, true); ok {
					return c, true
				}
			}
		}
		return Candidate{}, false
	}}
}

// Pattern finds the first regex match on any line.
func Pattern(re *regexp.Regexp) Rule {
	return Rule{Method: "pattern", Weight: WeightPattern, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		for _, l := range d.Lines {
			s := newSpan(d.Tokens, l.Tokens)
			loc := re.FindStringIndex(s.text)
			if loc == nil {
				continue
			}
			idx := s.cover(loc[0], loc[1])
			if c, ok := resolve(d, spec.Kind, idx, false); ok {
				if spec.Kind == entity.KindText {
					c.Value = s.text[loc[0]:loc[1]]
				}
				return c, true
			}
		}
		return Candidate{}, false
	}}
}

// Section collects the lines between a heading and the next heading or
// label line. List fields split items with split.
func Section(split func(lines []string) []string, headers ...string) Rule {
	const maxLines = 12
	return Rule{Method: "section", Weight: WeightLabel, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		for li := range d.Lines {
			heading := strings.ToLower(strings.TrimSuffix(d.LineText(li), ":"))
			if !slices.Contains(headers, heading) {
				continue
			}
			var idx []int
			var texts []string
			for j := li + 1; j < len(d.Lines) && j <= li+maxLines; j++ {
				if d.isHeaderLine(j) || d.isLabelLine(j) {
					break
				}
				idx = append(idx, d.Lines[j].Tokens...)
				texts = append(texts, d.LineText(j))
			}
			if len(idx) == 0 {
				continue
			}
			c := Candidate{Tokens: idx, Value: strings.Join(texts, " ")}
			if spec.Kind == entity.KindList {
				c.Items = split(texts)
				c.Value = strings.Join(c.Items, "; ")
			}
			return c, true
		}
		return Candidate{}, false
	}}
}

// SplitLines makes one item per line, without bullets.
func SplitLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l = stripBullet(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// SplitComma splits every line on commas and semicolons.
func SplitComma(lines []string) []string {
	var out []string
	for _, l := range lines {
		out = append(out, splitList(stripBullet(l))...)
	}
	return out
}

// NamedEntity takes the first recognized entity with the given label, searching
// lines [0, maxLine) or the whole page when maxLine <= 0.
func NamedEntity(label string, maxLine int) Rule {
	return Rule{Method: "entity", Weight: WeightEntity, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		for _, e := range d.Entities() {
			if e.Label != label {
				continue
			}
			if idx := d.locate(e.Text, maxLine); len(idx) > 0 {
				return Candidate{Value: joinTokens(d, idx), Tokens: idx}, true
			}
		}
		return Candidate{}, false
	}}
}

// Title picks the tallest multi-word line near the top of the page when it
// stands clearly above the median line height.
func Title(maxLine int) Rule {
	return Rule{Method: "title", Weight: WeightHeuristic, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		if len(d.Lines) == 0 {
			return Candidate{}, false
		}
		heights := make([]int, len(d.Lines))
		for i, l := range d.Lines {
			heights[i] = l.Box.H
		}
		slices.Sort(heights)
		median := float64(heights[len(heights)/2])

		best := -1
		for i := 0; i < len(d.Lines) && i < maxLine; i++ {
			l := d.Lines[i]
			if len(l.Tokens) < 2 || float64(l.Box.H) < 1.3*median {
				continue
			}
			if best < 0 || l.Box.H > d.Lines[best].Box.H {
				best = i
			}
		}
		if best < 0 {
			return Candidate{}, false
		}
		idx := d.Lines[best].Tokens
		return Candidate{Value: joinTokens(d, idx), Tokens: idx}, true
	}}
}

// FirstLine takes the first line within maxLine lines accepted by match.
func FirstLine(maxLine int, match func(text string) bool) Rule {
	return Rule{Method: "heuristic", Weight: WeightHeuristic, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		for i := 0; i < len(d.Lines) && i < maxLine; i++ {
			text := d.LineText(i)
			if d.isLabelLine(i) || !match(text) {
				continue
			}
			idx := d.Lines[i].Tokens
			return Candidate{Value: text, Tokens: idx}, true
		}
		return Candidate{}, false
	}}
}

// PersonName matches two to four capitalized alphabetic words.
func PersonName(text string) bool {
	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) < 2 || r[0] < 'A' || r[0] > 'Z' {
			return false
		}
		for _, c := range r[1:] {
			if (c < 'a' || c > 'z') && c != '-' && c != '\'' && c != '.' {
				return false
			}
		}
	}
	return true
}

// AnyText matches every non-empty line.
func AnyText(text string) bool { return strings.TrimSpace(text) != "" }

// TableRows collects rows with column separators that carry an amount.
func TableRows(sep string) Rule {
	return Rule{Method: "table", Weight: WeightPattern, Find: func(d *Document, spec entity.FieldSpec) (Candidate, bool) {
		var idx []int
		var items []string
		for i, l := range d.Lines {
			seps := 0
			for _, t := range l.Tokens {
				if d.Tokens[t].Text == sep {
					seps++
				}
			}
			text := d.LineText(i)
			if seps < 2 || len(FindAmounts(text)) == 0 {
				continue
			}
			idx = append(idx, l.Tokens...)
			items = append(items, text)
		}
		if len(items) == 0 {
			return Candidate{}, false
		}
		return Candidate{Value: strings.Join(items, "; "), Tokens: idx, Items: items}, true
	}}
}

// resolve turns value tokens into a typed candidate. Loose allows an email
// field to keep malformed text so format validation can flag it.
func resolve(d *Document, kind entity.FieldKind, idx []int, loose bool) (Candidate, bool) {
	s := newSpan(d.Tokens, idx)
	switch kind {
	case entity.KindCurrency:
		loc := reAmount.FindStringIndex(s.text)
		if loc == nil {
			return Candidate{}, false
		}
		raw := s.text[loc[0]:loc[1]]
		v, ok := ParseAmount(raw)
		if !ok {
			return Candidate{}, false
		}
		return Candidate{Value: raw, Tokens: s.cover(loc[0], loc[1]), Amount: &v}, true

	case entity.KindDate:
		for n := len(idx); n > 0; n-- {
			text := joinTokens(d, idx[:n])
			if t, ok := ParseDate(text); ok {
				return Candidate{Value: text, Tokens: idx[:n], Date: &t}, true
			}
		}
		return Candidate{}, false

	case entity.KindEmail:
		if loc := reEmail.FindStringIndex(s.text); loc != nil {
			return Candidate{Value: s.text[loc[0]:loc[1]], Tokens: s.cover(loc[0], loc[1])}, true
		}
		if loose {
			return Candidate{Value: s.text, Tokens: idx}, true
		}
		return Candidate{}, false

	case entity.KindPhone:
		loc := rePhone.FindStringIndex(s.text)
		if loc == nil {
			return Candidate{}, false
		}
		return Candidate{Value: s.text[loc[0]:loc[1]], Tokens: s.cover(loc[0], loc[1])}, true

	case entity.KindList:
		items := splitList(s.text)
		if len(items) == 0 {
			return Candidate{}, false
		}
		return Candidate{Value: strings.Join(items, "; "), Tokens: idx, Items: items}, true

	default:
		text := strings.TrimSpace(s.text)
		if text == "" {
			return Candidate{}, false
		}
		return Candidate{Value: text, Tokens: idx}, true
	}
}

func trimColons(d *Document, idx []int) []int {
	for len(idx) > 0 && strings.Trim(d.Tokens[idx[0]].Text, ":") == "" {
		idx = idx[1:]
	}
	return idx
}

func joinTokens(d *Document, idx []int) string {
	parts := make([]string, len(idx))
	for k, i := range idx {
		parts[k] = d.Tokens[i].Text
	}
	return strings.Join(parts, " ")
}
