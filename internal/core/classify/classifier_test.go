package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/core/fixtures"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

func tokensOf(lines ...string) []entity.Token {
	var out []entity.Token
	for li, l := range lines {
		for _, f := range strings.Fields(l) {
			out = append(out, entity.Token{Index: len(out), Text: f, Confidence: 0.9, Line: li})
		}
	}
	return out
}

func newClassifier(t *testing.T, extra ...Keyword) *Classifier {
	t.Helper()
	c, err := NewClassifier(Config{}, MergeKeywords(DefaultKeywords(), extra...), nil)
	require.NoError(t, err)
	return c
}

func TestClassifySamples(t *testing.T) {
	c := newClassifier(t)
	for _, d := range fixtures.Samples() {
		t.Run(string(d.Type), func(t *testing.T) {
			got := c.Classify(d.Tokens())
			assert.Equal(t, d.Type, got.Type)
			assert.Equal(t, d.Type, got.RawType)
			assert.Greater(t, got.Confidence, 0.6)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			assert.Len(t, got.Scores, 3)
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := newClassifier(t)

	cases := []struct {
		name   string
		tokens []entity.Token
	}{
		{name: "no tokens"},
		{name: "no keywords", tokens: tokensOf("lorem ipsum dolor", "sit amet")},
		{name: "below min confidence", tokens: tokensOf("tax")},
		{name: "unresolved tie", tokens: tokensOf("skills", "report")},
		{name: "keyword inside a longer word", tokens: tokensOf("Experienced engineers", "reporting")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.tokens)
			assert.Equal(t, constants.Unknown, got.Type)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.Less(t, got.Confidence, 0.6)
		})
	}
}

func TestClassifyEmptyHasZeroConfidence(t *testing.T) {
	got := newClassifier(t).Classify(nil)
	assert.Equal(t, constants.Unknown, got.Type)
	assert.Zero(t, got.Confidence)
}

func TestClassifyCapsRepeatedKeywords(t *testing.T) {
	c := newClassifier(t)
	got := c.Classify(tokensOf("invoice invoice invoice invoice"))
	assert.InDelta(t, 6.0, got.Scores[constants.Invoice], 1e-9)
}

func TestClassifyWithExtraLexicon(t *testing.T) {
	c := newClassifier(t, Keyword{Type: constants.Invoice, Phrase: "Purchase  Order", Weight: 5})
	got := c.Classify(tokensOf("purchase order"))
	assert.Equal(t, constants.Invoice, got.Type)
	assert.InDelta(t, 5.0/7.0, got.Confidence, 1e-9)
}

func TestMergeKeywordsOverridesWeight(t *testing.T) {
	merged := MergeKeywords(
		[]Keyword{{constants.Report, "Report", 2}},
		Keyword{constants.Report, "report", 4},
		Keyword{constants.Unknown, "noise", 1},
		Keyword{constants.Resume, "  ", 1},
	)
	require.Len(t, merged, 1)
	assert.Equal(t, Keyword{constants.Report, "report", 4}, merged[0])
}

func TestClassifyDeterministic(t *testing.T) {
	c := newClassifier(t)
	tokens := fixtures.Invoice().Tokens()
	first := c.Classify(tokens)
	for range 5 {
		assert.Equal(t, first, c.Classify(tokens))
	}
}
