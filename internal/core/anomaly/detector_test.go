package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

func money(name string, v float64) entity.Field {
	return entity.Field{Name: name, Kind: entity.KindCurrency, Amount: &v, Confidence: 0.9, Provenance: []int{0}}
}

func date(name string, y int, m time.Month, d int) entity.Field {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return entity.Field{Name: name, Kind: entity.KindDate, Date: &t, Confidence: 0.9, Provenance: []int{0}}
}

var testConfig = Config{AmountTolerance: 0.01, FieldConfidenceFloor: 0.5, OCRConfidenceFloor: 0.6}

func codes(found []entity.Anomaly) []constants.AnomalyCode {
	out := make([]constants.AnomalyCode, len(found))
	for i, a := range found {
		out[i] = a.Code
	}
	return out
}

func TestTotalsReconcile(t *testing.T) {
	v := TotalsReconcile("subtotal", "tax", "total")
	cases := []struct {
		name   string
		fields map[string]entity.Field
		want   int
	}{
		{name: "balanced", fields: map[string]entity.Field{"subtotal": money("subtotal", 10200), "tax": money("tax", 1020), "total": money("total", 11220)}},
		{name: "within tolerance", fields: map[string]entity.Field{"subtotal": money("subtotal", 10.00), "tax": money("tax", 0.50), "total": money("total", 10.51)}},
		{name: "missing tax counts as zero", fields: map[string]entity.Field{"subtotal": money("subtotal", 100), "total": money("total", 100)}},
		{name: "missing total skips", fields: map[string]entity.Field{"subtotal": money("subtotal", 100)}},
		{name: "mismatch", fields: map[string]entity.Field{"subtotal": money("subtotal", 10200), "tax": money("tax", 1020), "total": money("total", 9999)}, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found := v.Check(testConfig, Input{Fields: tc.fields})
			require.Len(t, found, tc.want)
			if tc.want > 0 {
				assert.Equal(t, constants.SeverityCritical, found[0].Severity)
				assert.Equal(t, []string{"subtotal", "tax", "total"}, found[0].Fields)
			}
		})
	}
}

func TestDateOrder(t *testing.T) {
	v := DateOrder("invoice_date", "due_date")
	ok := v.Check(testConfig, Input{Fields: map[string]entity.Field{
		"invoice_date": date("invoice_date", 2025, 1, 15),
		"due_date":     date("due_date", 2025, 1, 15),
	}})
	assert.Empty(t, ok)

	bad := v.Check(testConfig, Input{Fields: map[string]entity.Field{
		"invoice_date": date("invoice_date", 2025, 2, 15),
		"due_date":     date("due_date", 2025, 1, 15),
	}})
	require.Len(t, bad, 1)
	assert.Equal(t, constants.AnomalyDateOrderInvalid, bad[0].Code)
	assert.Equal(t, "due_date 2025-01-15 is before invoice_date 2025-02-15", bad[0].Message)
}

func TestLineItemsSum(t *testing.T) {
	v := LineItemsSum("items", "subtotal", "tax", "total")
	items := entity.Field{Name: "items", Items: []string{"A | 1 | $5.00 | $5.00", "B | 2 | $2.50 | $5.00"}}

	assert.Empty(t, v.Check(testConfig, Input{Fields: map[string]entity.Field{"items": items, "subtotal": money("subtotal", 10)}}))
	assert.Empty(t, v.Check(testConfig, Input{Fields: map[string]entity.Field{"items": items, "tax": money("tax", 1), "total": money("total", 11)}}))

	bad := v.Check(testConfig, Input{Fields: map[string]entity.Field{"items": items, "subtotal": money("subtotal", 12)}})
	require.Len(t, bad, 1)
	assert.Equal(t, constants.SeverityWarning, bad[0].Severity)
	assert.Equal(t, "2 line items sum to 10.00 but subtotal implies 12.00", bad[0].Message)

	assert.Empty(t, v.Check(testConfig, Input{Fields: map[string]entity.Field{"items": items}}))
}

func TestEmailFormat(t *testing.T) {
	v := EmailFormat("email")
	assert.Empty(t, v.Check(testConfig, Input{Fields: map[string]entity.Field{"email": {Value: "john.doe@email.com"}}}))
	assert.Empty(t, v.Check(testConfig, Input{}))

	bad := v.Check(testConfig, Input{Fields: map[string]entity.Field{"email": {Value: "john.doe at email"}}})
	require.Len(t, bad, 1)
	assert.Equal(t, constants.AnomalyInvalidFieldFormat, bad[0].Code)
}

func TestDetectOrdering(t *testing.T) {
	schema := []entity.FieldSpec{
		{Name: "a", Required: true},
		{Name: "subtotal"},
		{Name: "b", Required: true},
		{Name: "tax"},
		{Name: "total", Required: true},
	}
	low := money("subtotal", 100)
	low.Confidence = 0.3
	in := Input{
		Type:              constants.Invoice,
		Schema:            schema,
		Fields:            map[string]entity.Field{"subtotal": low, "tax": money("tax", 10), "total": money("total", 200)},
		MeanOCRConfidence: 0.4,
	}

	found := NewDetector(testConfig, nil).Detect(in, []Validator{
		TotalsReconcile("subtotal", "tax", "total"),
		DateOrder("x", "y"),
	})
	assert.Equal(t, []constants.AnomalyCode{
		constants.AnomalyRequiredFieldMissing,
		constants.AnomalyRequiredFieldMissing,
		constants.AnomalyTotalMismatch,
		constants.AnomalyLowFieldConfidence,
		constants.AnomalyLowOCRConfidence,
	}, codes(found))
	assert.Equal(t, []string{"a"}, found[0].Fields)
	assert.Equal(t, []string{"b"}, found[1].Fields)
	assert.Equal(t, "field subtotal confidence 0.30 is below 0.50", found[3].Message)
	assert.Equal(t, "[info] low_ocr_confidence: mean OCR confidence 0.40 is below 0.60", found[4].String())
	assert.True(t, HasCritical(found))
}

func TestDetectClean(t *testing.T) {
	found := NewDetector(testConfig, nil).Detect(Input{MeanOCRConfidence: 0.9}, nil)
	assert.Empty(t, found)
	assert.False(t, HasCritical(found))
}
