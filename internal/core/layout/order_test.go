package layout

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

func word(text string, x, y int) ocr.Word {
	return ocr.Word{Text: text, Box: entity.BBox{X: x, Y: y, W: 7 * len(text), H: 12}, Confidence: 0.9}
}

func TestOrderTokensGroupsSkewedLines(t *testing.T) {
	words := []ocr.Word{
		word("world", 60, 12),
		word("second", 10, 40),
		word("hello", 10, 10),
		word("line", 70, 42),
		word("far", 10, 120),
	}
	tokens := orderTokens(words, 0.5, 1.6)
	require.Len(t, tokens, 5)

	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	assert.Equal(t, []string{"hello", "world", "second", "line", "far"}, texts)
	assert.Equal(t, []int{0, 0, 1, 1, 2}, []int{tokens[0].Line, tokens[1].Line, tokens[2].Line, tokens[3].Line, tokens[4].Line})
	assert.Equal(t, 0, tokens[2].Block)
	assert.Equal(t, 1, tokens[4].Block)
}

func TestOrderTokensEmpty(t *testing.T) {
	assert.Nil(t, orderTokens(nil, 0.5, 1.6))
}

func TestOtsuSplitsBimodalHistogram(t *testing.T) {
	var hist [256]int
	hist[20] = 100
	hist[230] = 900
	th := otsu(hist, 1000)
	assert.GreaterOrEqual(t, th, uint8(20))
	assert.Less(t, th, uint8(230))
}

func TestBinarizeDropsSpeckle(t *testing.T) {
	g := binarizeFromPoints(50, 50, [][2]int{{10, 10}})
	assert.Zero(t, g.InkRatio)

	g = binarizeFromPoints(50, 50, [][2]int{{10, 10}, {11, 10}, {10, 11}, {11, 11}})
	assert.InDelta(t, 4.0/2500.0, g.InkRatio, 1e-9)
}

func binarizeFromPoints(w, h int, pts [][2]int) Binarized {
	img := imaging.New(w, h, color.White)
	for _, p := range pts {
		img.Set(p[0], p[1], color.Black)
	}
	return binarize(img)
}
