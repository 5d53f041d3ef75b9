package layout_test

import (
	"context"
	"errors"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/fixtures"
	"github.com/joseph-ayodele/docsense/internal/core/layout"
	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/core/ocr/mocks"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

func newMockEngine(t *testing.T) *mocks.MockEngine {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Name().Return("mock").AnyTimes()
	return engine
}

func shuffled(words []ocr.Word) []ocr.Word {
	r := rand.New(rand.NewSource(7))
	r.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	return words
}

func TestExtractBlankPage(t *testing.T) {
	engine := newMockEngine(t)
	ex := layout.NewExtractor(layout.Config{}, engine, nil)

	blank := imaging.New(400, 300, color.White)
	_, err := ex.Extract(context.Background(), &entity.CanonicalImage{Width: 400, Height: 300, Pixels: blank})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}

func TestExtractReadingOrder(t *testing.T) {
	doc := fixtures.Invoice()
	engine := newMockEngine(t)
	engine.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(shuffled(doc.Words()), nil)

	ex := layout.NewExtractor(layout.Config{}, engine, nil)
	out, err := ex.Extract(context.Background(), doc.Canonical())
	require.NoError(t, err)

	require.Len(t, out.Lines, len(doc.Lines))
	for i, tok := range out.Tokens {
		assert.Equal(t, i, tok.Index)
	}
	for i, l := range out.Lines {
		assert.Equal(t, doc.Lines[i].Text, l.Text(out.Tokens))
	}
	assert.Equal(t, "mock", out.Engine)
	assert.InDelta(t, fixtures.DefaultConfidence, out.MeanConfidence, 1e-9)
	assert.Positive(t, out.InkRatio)

	first := out.Tokens[0]
	var vendor entity.Token
	for _, tok := range out.Tokens {
		if tok.Text == "Vendor:" {
			vendor = tok
		}
	}
	assert.Equal(t, "INVOICE", first.Text)
	assert.Greater(t, vendor.Block, first.Block)
}

func TestExtractDetectsLanguage(t *testing.T) {
	doc := fixtures.Report()
	engine := newMockEngine(t)
	engine.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(doc.Words(), nil)

	out, err := layout.NewExtractor(layout.Config{}, engine, nil).Extract(context.Background(), doc.Canonical())
	require.NoError(t, err)
	assert.Equal(t, "en", out.Language)
	assert.Contains(t, out.Text, "Quarterly Business Analysis Report")
}

func TestExtractEngineFailures(t *testing.T) {
	doc := fixtures.Resume()

	cases := []struct {
		name  string
		words []ocr.Word
		err   error
	}{
		{name: "engine error", err: errors.New("tesseract crashed")},
		{name: "no words"},
		{name: "only noise", words: []ocr.Word{
			{Text: "____", Box: entity.BBox{X: 1, Y: 1, W: 20, H: 3}, Confidence: 0.2},
			{Text: "  ", Box: entity.BBox{X: 30, Y: 1, W: 5, H: 5}, Confidence: 0.2},
			{Text: "ok", Box: entity.BBox{}, Confidence: 0.9},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newMockEngine(t)
			engine.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(tc.words, tc.err)

			_, err := layout.NewExtractor(layout.Config{}, engine, nil).Extract(context.Background(), doc.Canonical())
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrExtraction)
		})
	}
}

func TestExtractWithoutEngine(t *testing.T) {
	_, err := layout.NewExtractor(layout.Config{}, nil, nil).Extract(context.Background(), fixtures.Resume().Canonical())
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
}
