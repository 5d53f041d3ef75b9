package fields

import (
	"strings"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

// span is a run of tokens joined by single spaces, with the character
// range of every token so regex matches map back to token indices.
type span struct {
	text   string
	idx    []int
	starts []int
	ends   []int
}

func newSpan(tokens []entity.Token, idx []int) span {
	var sb strings.Builder
	s := span{idx: idx}
	for k, i := range idx {
		if k > 0 {
			sb.WriteByte(' ')
		}
		s.starts = append(s.starts, sb.Len())
		sb.WriteString(tokens[i].Text)
		s.ends = append(s.ends, sb.Len())
	}
	s.text = sb.String()
	return s
}

// cover returns the token indices overlapping the byte range [a, b).
func (s span) cover(a, b int) []int {
	var out []int
	for k, i := range s.idx {
		if s.starts[k] < b && s.ends[k] > a {
			out = append(out, i)
		}
	}
	return out
}
