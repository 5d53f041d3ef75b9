package fields

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

type stubRecognizer struct {
	entities []Entity
	err      error
	calls    int
}

func (s *stubRecognizer) Recognize(context.Context, string) ([]Entity, error) {
	s.calls++
	return s.entities, s.err
}

// tokensOf lays lines out 20px apart with 7px glyphs.
func tokensOf(lines ...string) []entity.Token {
	var out []entity.Token
	for li, l := range lines {
		x := 10
		for _, f := range strings.Fields(l) {
			out = append(out, entity.Token{
				Index:      len(out),
				Text:       f,
				Box:        entity.BBox{X: x, Y: 10 + li*20, W: 7 * len(f), H: 13},
				Confidence: 0.9,
				Line:       li,
			})
			x += 7 * (len(f) + 1)
		}
	}
	return out
}

func extract(t *testing.T, rec EntityRecognizer, tokens []entity.Token, rules ...FieldRule) map[string]entity.Field {
	t.Helper()
	return NewExtractor(rec, nil).Extract(context.Background(), tokens, rules)
}

func TestLabelCurrencySkipsPercent(t *testing.T) {
	tokens := tokensOf("Subtotal: $10,200.00", "Tax (10%): $1,020.00", "Total Amount: $11,220.00")
	got := extract(t, nil, tokens,
		FieldRule{Spec: entity.FieldSpec{Name: "tax", Kind: entity.KindCurrency}, Rules: []Rule{Label("tax")}},
		FieldRule{Spec: entity.FieldSpec{Name: "total", Kind: entity.KindCurrency}, Rules: []Rule{Label("total amount", "total")}},
	)

	tax := got["tax"]
	require.NotNil(t, tax.Amount)
	assert.InDelta(t, 1020.0, *tax.Amount, 1e-9)
	assert.Equal(t, "$1,020.00", tax.Value)
	assert.Equal(t, []int{4}, tax.Provenance)
	assert.Equal(t, "label", tax.Method)

	total := got["total"]
	require.NotNil(t, total.Amount)
	assert.InDelta(t, 11220.0, *total.Amount, 1e-9)
	assert.Equal(t, tokens[7].Box, total.Box)
}

func TestLabelDoesNotMatchInsideWords(t *testing.T) {
	tokens := tokensOf("Subtotal: $10,200.00")
	got := extract(t, nil, tokens,
		FieldRule{Spec: entity.FieldSpec{Name: "total", Kind: entity.KindCurrency}, Rules: []Rule{Label("total")}})
	assert.Empty(t, got)
}

func TestLabelTakesNextLineForText(t *testing.T) {
	tokens := tokensOf("Bill To:", "XYZ Corporation", "Items:")
	got := extract(t, nil, tokens,
		FieldRule{Spec: entity.FieldSpec{Name: "bill_to", Kind: entity.KindText}, Rules: []Rule{Label("bill to")}})
	assert.Equal(t, "XYZ Corporation", got["bill_to"].Value)
	assert.Equal(t, []int{2, 3}, got["bill_to"].Provenance)
}

func TestLabelDateAndList(t *testing.T) {
	tokens := tokensOf("Date: January 2025", "Keywords: Business Analysis, Revenue, Growth")
	got := extract(t, nil, tokens,
		FieldRule{Spec: entity.FieldSpec{Name: "date", Kind: entity.KindDate}, Rules: []Rule{Label("date")}},
		FieldRule{Spec: entity.FieldSpec{Name: "keywords", Kind: entity.KindList}, Rules: []Rule{Label("keywords")}},
	)
	require.NotNil(t, got["date"].Date)
	assert.Equal(t, 2025, got["date"].Date.Year())
	assert.Equal(t, time.January, got["date"].Date.Month())
	assert.Equal(t, []string{"Business Analysis", "Revenue", "Growth"}, got["keywords"].Items)
}

func TestPatternAndWeights(t *testing.T) {
	tokens := tokensOf("Reach me at jane@example.org today")
	got := extract(t, nil, tokens, FieldRule{
		Spec:  entity.FieldSpec{Name: "email", Kind: entity.KindEmail},
		Rules: []Rule{Label("email"), Pattern(regexp.MustCompile(`\S+@\S+`))},
	})
	f := got["email"]
	assert.Equal(t, "jane@example.org", f.Value)
	assert.Equal(t, "pattern", f.Method)
	assert.InDelta(t, 0.9*WeightPattern, f.Confidence, 1e-9)
}

func TestSectionStopsAtNextHeading(t *testing.T) {
	tokens := tokensOf(
		"KEY FINDINGS",
		"- Revenue increased by 15%",
		"- Costs fell",
		"CONCLUSION",
		"Strong quarter",
	)
	got := extract(t, nil, tokens, FieldRule{
		Spec:  entity.FieldSpec{Name: "findings", Kind: entity.KindList},
		Rules: []Rule{Section(SplitLines, "key findings")},
	})
	assert.Equal(t, []string{"Revenue increased by 15%", "Costs fell"}, got["findings"].Items)
	for _, i := range got["findings"].Provenance {
		assert.Contains(t, []int{1, 2}, tokens[i].Line)
	}
}

func TestEntityRuleCachesRecognition(t *testing.T) {
	tokens := tokensOf("Prepared for Acme Widgets Inc", "by Jane Smith")
	rec := &stubRecognizer{entities: []Entity{
		{Text: "Acme Widgets Inc", Label: LabelOrg},
		{Text: "Jane Smith", Label: LabelPerson},
	}}
	got := extract(t, rec, tokens,
		FieldRule{Spec: entity.FieldSpec{Name: "vendor", Kind: entity.KindText}, Rules: []Rule{NamedEntity(LabelOrg, 0)}},
		FieldRule{Spec: entity.FieldSpec{Name: "author", Kind: entity.KindText}, Rules: []Rule{NamedEntity(LabelPerson, 0)}},
	)
	assert.Equal(t, "Acme Widgets Inc", got["vendor"].Value)
	assert.Equal(t, []int{2, 3, 4}, got["vendor"].Provenance)
	assert.Equal(t, "Jane Smith", got["author"].Value)
	assert.InDelta(t, 0.9*WeightEntity, got["author"].Confidence, 1e-9)
	assert.Equal(t, 1, rec.calls)
}

func TestEntityRecognizerFailureIsAMiss(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("model missing")}
	got := extract(t, rec, tokensOf("John Doe"),
		FieldRule{Spec: entity.FieldSpec{Name: "name", Kind: entity.KindText}, Rules: []Rule{
			NamedEntity(LabelPerson, 3),
			FirstLine(3, PersonName),
		}})
	assert.Equal(t, "John Doe", got["name"].Value)
	assert.Equal(t, "heuristic", got["name"].Method)
}

func TestTitleByGlyphHeight(t *testing.T) {
	tokens := tokensOf("Quarterly Report", "Author: Jane", "Date: 2025")
	for i := range tokens {
		if tokens[i].Line == 0 {
			tokens[i].Box.H = 26
		}
	}
	got := extract(t, nil, tokens, FieldRule{
		Spec:  entity.FieldSpec{Name: "title", Kind: entity.KindText},
		Rules: []Rule{Title(5)},
	})
	assert.Equal(t, "Quarterly Report", got["title"].Value)

	flat := extract(t, nil, tokensOf("Quarterly Report", "Author: Jane"), FieldRule{
		Spec:  entity.FieldSpec{Name: "title", Kind: entity.KindText},
		Rules: []Rule{Title(5)},
	})
	assert.Empty(t, flat)
}

func TestTableRows(t *testing.T) {
	tokens := tokensOf(
		"Item | Quantity | Unit Price | Total",
		"Product A | 10 | $500.00 | $5,000.00",
		"Product B | 5 | $800.00 | $4,000.00",
	)
	got := extract(t, nil, tokens, FieldRule{
		Spec:  entity.FieldSpec{Name: "line_items", Kind: entity.KindList},
		Rules: []Rule{TableRows("|")},
	})
	assert.Len(t, got["line_items"].Items, 2)
	assert.Equal(t, "table", got["line_items"].Method)
}

func TestExtractNothingFromEmptyInput(t *testing.T) {
	assert.Empty(t, extract(t, nil, nil, FieldRule{Spec: entity.FieldSpec{Name: "x"}, Rules: []Rule{Label("x")}}))
	assert.Empty(t, extract(t, nil, tokensOf("anything")))
}

func TestParseHelpers(t *testing.T) {
	v, ok := ParseAmount("$1,020.00")
	require.True(t, ok)
	assert.InDelta(t, 1020.0, v, 1e-9)

	_, ok = ParseAmount("$")
	assert.False(t, ok)

	assert.Equal(t, []float64{500, 5000}, FindAmounts("Product A | 10 | $500.00 | $5,000.00"))

	d, ok := ParseDate("01/15/2025")
	require.True(t, ok)
	assert.True(t, d.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)), d.String())

	_, ok = ParseDate("not a date")
	assert.False(t, ok)

	assert.True(t, ValidEmail("john.doe@email.com"))
	assert.False(t, ValidEmail("john.doe at email"))
	assert.True(t, PersonName("John Doe"))
	assert.False(t, PersonName("OBJECTIVE"))
	assert.False(t, PersonName("Email: john"))
}

func TestGazetteerPrefersLongestPhrase(t *testing.T) {
	g, err := NewGazetteer([]GazetteerEntry{
		{Phrase: "ABC Solutions", Label: LabelOrg},
		{Phrase: "ABC Solutions Pvt Ltd", Label: LabelOrg},
		{Phrase: "Jane Smith", Label: LabelPerson},
		{Phrase: "", Label: LabelPerson},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	got, err := g.Recognize(context.Background(), "Vendor: ABC Solutions Pvt Ltd\nAuthor: Jane Smithson, Jane Smith")
	require.NoError(t, err)
	assert.Equal(t, []Entity{
		{Text: "ABC Solutions Pvt Ltd", Label: LabelOrg},
		{Text: "Jane Smith", Label: LabelPerson},
	}, got)
}

func TestChainDeduplicates(t *testing.T) {
	a := &stubRecognizer{entities: []Entity{{Text: "Jane Smith", Label: LabelPerson}}}
	b := &stubRecognizer{entities: []Entity{{Text: "jane smith", Label: LabelOrg}, {Text: "Acme", Label: LabelOrg}}}
	got, err := Chain{a, nil, b}.Recognize(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []Entity{{Text: "Jane Smith", Label: LabelPerson}, {Text: "Acme", Label: LabelOrg}}, got)
}
