package result

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

func validView() entity.ResultView {
	return entity.ResultView{
		RunID:           uuid.NewString(),
		DocumentType:    "Invoice",
		ConfidenceScore: 0.88,
		Decision:        "approve",
		Reasoning:       "All checks passed. Decision: approve.",
		FieldsExtracted: map[string]string{"total_amount": "$11,220.00"},
		Anomalies:       []string{},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(v *entity.ResultView)
		wantErr bool
	}{
		{name: "valid", mutate: func(*entity.ResultView) {}},
		{name: "unknown type", mutate: func(v *entity.ResultView) { v.DocumentType = "Memo" }, wantErr: true},
		{name: "bad decision", mutate: func(v *entity.ResultView) { v.Decision = "maybe" }, wantErr: true},
		{name: "confidence above one", mutate: func(v *entity.ResultView) { v.ConfidenceScore = 1.2 }, wantErr: true},
		{name: "empty reasoning", mutate: func(v *entity.ResultView) { v.Reasoning = "" }, wantErr: true},
		{name: "run id not uuid", mutate: func(v *entity.ResultView) { v.RunID = "run-1" }, wantErr: true},
		{name: "nil anomalies", mutate: func(v *entity.ResultView) { v.Anomalies = nil }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validView()
			tc.mutate(&v)
			err := Validate(v)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateJSON_RejectsExtraKeys(t *testing.T) {
	require.Error(t, ValidateJSON([]byte(`{"run_id":"x","extra":1}`)))
	require.Error(t, ValidateJSON([]byte(`not json`)))
}
