package layout

import (
	"slices"
	"sort"

	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// orderTokens assigns reading order: words are grouped into lines by
// vertical overlap, lines run top-to-bottom, words left-to-right, and a new
// block starts wherever the vertical gap exceeds gapFactor × median line height.
func orderTokens(words []ocr.Word, overlap, gapFactor float64) []entity.Token {
	if len(words) == 0 {
		return nil
	}
	ws := slices.Clone(words)
	sort.SliceStable(ws, func(i, j int) bool {
		ci, cj := ws[i].Box.CenterY(), ws[j].Box.CenterY()
		if ci != cj {
			return ci < cj
		}
		return ws[i].Box.X < ws[j].Box.X
	})

	type line struct {
		box   entity.BBox
		words []ocr.Word
	}
	var lines []*line
	for _, w := range ws {
		var target *line
		// only recent lines can overlap since words are sorted by center
		for k := len(lines) - 1; k >= 0 && k >= len(lines)-3; k-- {
			if lines[k].box.VerticalOverlap(w.Box) >= overlap {
				target = lines[k]
				break
			}
		}
		if target == nil {
			target = &line{}
			lines = append(lines, target)
		}
		target.words = append(target.words, w)
		target.box = target.box.Union(w.Box)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].box.Y != lines[j].box.Y {
			return lines[i].box.Y < lines[j].box.Y
		}
		return lines[i].box.X < lines[j].box.X
	})

	heights := make([]int, len(lines))
	for i, l := range lines {
		heights[i] = l.box.H
	}
	slices.Sort(heights)
	median := float64(heights[len(heights)/2])

	tokens := make([]entity.Token, 0, len(ws))
	block := 0
	for li, l := range lines {
		if li > 0 {
			gap := float64(l.box.Y - lines[li-1].box.MaxY())
			if gap > gapFactor*median {
				block++
			}
		}
		sort.SliceStable(l.words, func(i, j int) bool { return l.words[i].Box.X < l.words[j].Box.X })
		for _, w := range l.words {
			tokens = append(tokens, entity.Token{
				Index:      len(tokens),
				Text:       w.Text,
				Box:        w.Box,
				Confidence: entity.ClampUnit(w.Confidence),
				Line:       li,
				Block:      block,
			})
		}
	}
	return tokens
}
