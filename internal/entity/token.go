package entity

import "strings"

// Token is a recognized text span. Index is its position in the run's
// reading-order token sequence and is the key used by Field provenance.
type Token struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Box        BBox    `json:"box"`
	Confidence float64 `json:"confidence"`
	Line       int     `json:"line"`
	Block      int     `json:"block"`
}

// Line groups consecutive tokens sharing a line id.
type Line struct {
	ID     int   `json:"id"`
	Block  int   `json:"block"`
	Tokens []int `json:"tokens"` // indices into the token sequence
	Box    BBox  `json:"box"`
}

// Text joins the line's tokens with single spaces.
func (l Line) Text(tokens []Token) string {
	parts := make([]string, 0, len(l.Tokens))
	for _, i := range l.Tokens {
		parts = append(parts, tokens[i].Text)
	}
	return strings.Join(parts, " ")
}

// GroupLines rebuilds line groupings from a reading-order token sequence.
func GroupLines(tokens []Token) []Line {
	var lines []Line
	for _, t := range tokens {
		if n := len(lines); n > 0 && lines[n-1].ID == t.Line {
			lines[n-1].Tokens = append(lines[n-1].Tokens, t.Index)
			lines[n-1].Box = lines[n-1].Box.Union(t.Box)
			continue
		}
		lines = append(lines, Line{ID: t.Line, Block: t.Block, Tokens: []int{t.Index}, Box: t.Box})
	}
	return lines
}

// MeanConfidence averages token confidences; 0 for an empty sequence.
func MeanConfidence(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tokens {
		sum += t.Confidence
	}
	return ClampUnit(sum / float64(len(tokens)))
}

// ClampUnit clamps v to [0,1].
func ClampUnit(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
