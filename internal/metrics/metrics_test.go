package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/constants"
)

func TestMetrics_Record(t *testing.T) {
	r := require.New(t)
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	r.NoError(err)

	m.ObserveStage(constants.StageExtract, 120*time.Millisecond)
	m.RecordResult(constants.Invoice, constants.DecisionApprove)
	m.RecordResult(constants.Invoice, constants.DecisionApprove)
	m.RecordResult(constants.Unknown, constants.DecisionReview)
	m.RecordFailure(constants.StageIngest, "INGESTION_ERROR")
	m.RecordFailure(constants.StageRender, "")

	r.Equal(2.0, testutil.ToFloat64(m.decisions.WithLabelValues("approve")))
	r.Equal(1.0, testutil.ToFloat64(m.decisions.WithLabelValues("review")))
	r.Equal(2.0, testutil.ToFloat64(m.documents.WithLabelValues("Invoice")))
	r.Equal(1.0, testutil.ToFloat64(m.failures.WithLabelValues("ingest", "INGESTION_ERROR")))
	r.Equal(1.0, testutil.ToFloat64(m.failures.WithLabelValues("render", "INTERNAL")))
	r.Equal(1, testutil.CollectAndCount(m.stageDuration))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveStage(constants.StageRender, time.Second)
		m.RecordResult(constants.Report, constants.DecisionReject)
		m.RecordFailure(constants.StageExtract, "EXTRACTION_ERROR")
	})
}
