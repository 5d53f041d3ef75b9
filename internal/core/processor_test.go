package core

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/classify"
	"github.com/joseph-ayodele/docsense/internal/core/fixtures"
	"github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/core/models"
	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/core/render"
	"github.com/joseph-ayodele/docsense/internal/metrics"
)

func newProcessor(t *testing.T, engine ocr.Engine, m *metrics.Metrics) *Processor {
	t.Helper()
	reg, err := models.NewRegistry(engine, nil, nil, classify.Config{}, nil)
	require.NoError(t, err)
	cfg := Config{Render: render.Config{OutputDir: t.TempDir()}}
	return NewProcessor(cfg, models.Static(reg), nil, m, nil)
}

func sourceOf(t *testing.T, d fixtures.Document) ingest.Source {
	t.Helper()
	data, err := d.PNG()
	require.NoError(t, err)
	return ingest.FromBytes(d.Name, data)
}

func TestProcessDocument_InvoiceApproved(t *testing.T) {
	r := require.New(t)
	doc := fixtures.Invoice()
	p := newProcessor(t, fixtures.NewCatalog(fixtures.Samples()...), nil)

	res, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.NoError(err)

	r.Equal(constants.Invoice, res.Classification.Type)
	r.Greater(res.Classification.Confidence, 0.6)
	r.LessOrEqual(res.Classification.Confidence, 1.0)
	r.Equal(constants.DecisionApprove, res.Decision)
	r.Empty(res.Anomalies)
	r.Len(res.Fields, 9)
	r.Equal("INV-2025-321", res.Fields["invoice_number"].Value)
	r.Equal("$11,220.00", res.Fields["total_amount"].Value)
	r.Contains(res.Reasoning, "Decision: approve.")

	for name, f := range res.Fields {
		r.NotEmpty(f.Provenance, name)
		for _, i := range f.Provenance {
			r.Less(i, len(res.Tokens), name)
		}
	}
	r.Equal([]string{"invoice_number", "invoice_date", "due_date", "vendor_name", "bill_to", "line_items", "subtotal", "tax", "total_amount"}, res.FieldOrder)

	for _, path := range []string{res.Artifacts.Heatmap, res.Artifacts.Fields, res.Artifacts.Decision} {
		r.Equal(p.RunDir(res.RunID), filepath.Dir(path))
		f, err := os.Open(path)
		r.NoError(err)
		cfg, format, err := image.DecodeConfig(f)
		_ = f.Close()
		r.NoError(err)
		r.Equal("png", format)
		r.Equal(doc.Width, cfg.Width)
		r.Equal(doc.Height, cfg.Height)
	}
}

func TestProcessDocument_TotalMismatchRejected(t *testing.T) {
	r := require.New(t)
	doc := fixtures.InvoiceWithTotal("$9,999.00")
	p := newProcessor(t, fixtures.EngineFor(doc), nil)

	res, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.NoError(err)
	r.Equal(constants.Invoice, res.Classification.Type)
	r.Equal(constants.DecisionReject, res.Decision)
	r.Len(res.Anomalies, 1)
	r.Equal(constants.AnomalyTotalMismatch, res.Anomalies[0].Code)
	r.Equal(constants.SeverityCritical, res.Anomalies[0].Severity)
	r.Contains(res.Reasoning, "Decision: reject.")
	r.Contains(res.View().Anomalies[0], "[critical] total_mismatch")
}

func TestProcessDocument_Samples(t *testing.T) {
	p := newProcessor(t, fixtures.NewCatalog(fixtures.Samples()...), nil)
	for _, doc := range fixtures.Samples() {
		t.Run(doc.Name, func(t *testing.T) {
			res, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
			require.NoError(t, err)
			assert.Equal(t, doc.Type, res.Classification.Type)
			assert.Equal(t, constants.DecisionApprove, res.Decision)
			assert.Len(t, res.Fields, len(res.FieldOrder))
			if doc.Type == constants.Report {
				assert.Equal(t, "en", res.Language)
			}
		})
	}
}

func TestProcessDocument_ConcurrentRunsAreIsolated(t *testing.T) {
	p := newProcessor(t, fixtures.NewCatalog(fixtures.Samples()...), nil)
	docs := fixtures.Samples()
	ids := make([]string, len(docs))

	var g errgroup.Group
	for i, doc := range docs {
		src := sourceOf(t, doc)
		g.Go(func() error {
			res, err := p.ProcessDocument(context.Background(), src)
			if err != nil {
				return err
			}
			assert.Equal(t, doc.Type, res.Classification.Type)
			ids[i] = res.RunID.String()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, map[string]bool{ids[0]: true, ids[1]: true, ids[2]: true}, 3)
}

func TestProcessDocument_Deterministic(t *testing.T) {
	r := require.New(t)
	doc := fixtures.Resume()
	p := newProcessor(t, fixtures.EngineFor(doc), nil)

	a, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.NoError(err)
	b, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.NoError(err)

	r.NotEqual(a.RunID, b.RunID)
	r.Equal(a.Classification, b.Classification)
	r.Equal(a.Fields, b.Fields)
	r.Equal(a.Anomalies, b.Anomalies)
	r.Equal(a.Reasoning, b.Reasoning)
	r.Equal(a.Tokens, b.Tokens)
}

func TestProcessDocument_UnknownHasNoFields(t *testing.T) {
	r := require.New(t)
	doc := fixtures.Document{
		Name:   "shopping",
		Type:   constants.Unknown,
		Width:  800,
		Height: 1000,
		Lines: []fixtures.Line{
			{X: 50, Y: 60, Text: "milk eggs bread butter", Scale: 1},
			{X: 50, Y: 90, Text: "call the plumber on monday", Scale: 1},
			{X: 50, Y: 120, Text: "water the garden plants", Scale: 1},
			{X: 50, Y: 150, Text: "pick up dry cleaning", Scale: 1},
			{X: 50, Y: 180, Text: "book flights for june", Scale: 1},
		},
	}
	p := newProcessor(t, fixtures.EngineFor(doc), nil)

	res, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.NoError(err)
	r.Equal(constants.Unknown, res.Classification.Type)
	r.Empty(res.Fields)
	r.Empty(res.FieldOrder)
	r.NotEqual(constants.DecisionApprove, res.Decision)
	r.NotEmpty(res.Artifacts.Decision)
}

func TestProcessDocument_Failures(t *testing.T) {
	blank := imaging.New(400, 400, color.White)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, blank, imaging.PNG))

	cases := []struct {
		name string
		src  ingest.Source
		want error
	}{
		{name: "corrupt input", src: ingest.FromBytes("broken.png", []byte("definitely not an image")), want: common.ErrIngestion},
		{name: "empty input", src: ingest.FromBytes("empty.png", nil), want: common.ErrIngestion},
		{name: "missing file", src: ingest.FromPath(filepath.Join(t.TempDir(), "missing.png")), want: common.ErrIngestion},
		{name: "blank page", src: ingest.FromBytes("blank.png", buf.Bytes()), want: common.ErrExtraction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newProcessor(t, fixtures.EngineFor(fixtures.Invoice()), nil)
			res, err := p.ProcessDocument(context.Background(), tc.src)
			require.ErrorIs(t, err, tc.want)
			require.Nil(t, res)
		})
	}
}

func TestProcessDocument_Canceled(t *testing.T) {
	doc := fixtures.Invoice()
	p := newProcessor(t, fixtures.EngineFor(doc), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.ProcessDocument(ctx, sourceOf(t, doc))
	require.ErrorIs(t, err, common.ErrCanceled)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, res)
}

func TestProcessDocument_RenderFailureKeepsResult(t *testing.T) {
	r := require.New(t)
	out := filepath.Join(t.TempDir(), "not-a-dir")
	r.NoError(os.WriteFile(out, []byte("x"), 0o644))

	doc := fixtures.Invoice()
	reg, err := models.NewRegistry(fixtures.EngineFor(doc), nil, nil, classify.Config{}, nil)
	r.NoError(err)
	p := NewProcessor(Config{Render: render.Config{OutputDir: out}}, models.Static(reg), nil, nil, nil)

	res, err := p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.ErrorIs(err, common.ErrRender)
	r.NotNil(res)
	r.Equal(constants.DecisionApprove, res.Decision)
	r.Empty(res.Artifacts.Heatmap)
	r.Len(res.Fields, 9)
}

func TestProcessDocument_RecordsMetrics(t *testing.T) {
	r := require.New(t)
	promReg := prometheus.NewRegistry()
	m, err := metrics.New(promReg)
	r.NoError(err)

	doc := fixtures.Invoice()
	p := newProcessor(t, fixtures.EngineFor(doc), m)
	_, err = p.ProcessDocument(context.Background(), sourceOf(t, doc))
	r.NoError(err)
	_, err = p.ProcessDocument(context.Background(), ingest.FromBytes("bad.png", []byte("garbage")))
	r.Error(err)

	n, err := testutil.GatherAndCount(promReg, "docsense_decisions_total", "docsense_failures_total")
	r.NoError(err)
	r.Equal(2, n)
}
