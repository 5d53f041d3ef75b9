package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/anomaly"
	"github.com/joseph-ayodele/docsense/internal/core/classify"
	"github.com/joseph-ayodele/docsense/internal/core/decision"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
	"github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/core/layout"
	"github.com/joseph-ayodele/docsense/internal/core/models"
	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/core/render"
	"github.com/joseph-ayodele/docsense/internal/core/rulebook"
	"github.com/joseph-ayodele/docsense/internal/entity"
	"github.com/joseph-ayodele/docsense/internal/metrics"
)

// Config gathers the per-stage configuration of a Processor.
type Config struct {
	Ingest   ingest.Config
	Layout   layout.Config
	Anomaly  anomaly.Config
	Decision decision.Config
	Render   render.Config
}

// ConfigFrom maps the application configuration onto stage configs.
func ConfigFrom(c *common.Config) Config {
	return Config{
		Ingest: ingest.Config{
			MaxBytes:      c.Ingest.MaxBytes,
			MaxWidth:      c.Ingest.MaxWidth,
			MaxHeight:     c.Ingest.MaxHeight,
			MaxPixels:     c.Ingest.MaxPixels,
			HeicConverter: c.Ingest.HeicConverter,
		},
		Layout: layout.Config{
			MinInkRatio:    c.OCR.MinInkRatio,
			LineOverlap:    c.OCR.LineOverlap,
			BlockGapFactor: c.OCR.BlockGapFactor,
		},
		Anomaly: anomaly.Config{
			AmountTolerance:      c.Pipeline.AmountTolerance,
			FieldConfidenceFloor: c.Pipeline.FieldConfidenceFloor,
			OCRConfidenceFloor:   c.Pipeline.OCRConfidenceFloor,
		},
		Decision: decision.Config{
			AcceptThreshold:     c.Pipeline.AcceptThreshold,
			HardRejectThreshold: c.Pipeline.HardRejectThreshold,
		},
		Render: render.Config{OutputDir: c.Output.Dir},
	}
}

// ModelsConfigFrom maps the application configuration onto the model loader config.
func ModelsConfigFrom(c *common.Config) models.Config {
	return models.Config{
		ManifestPath:  c.Models.ManifestPath,
		LexiconDSN:    c.Models.LexiconDSN,
		LexiconDriver: c.Models.LexiconDriver,
		EnableNER:     c.Models.EnableNER,
		Classify: classify.Config{
			MinConfidence:   c.Pipeline.ClassifierMinConfidence,
			AcceptThreshold: c.Pipeline.AcceptThreshold,
			TieEpsilon:      c.Pipeline.TieEpsilon,
			UnknownPrior:    c.Pipeline.UnknownPrior,
		},
		OCR: ocr.Config{
			Tesseract:   c.OCR.Tesseract,
			Lang:        c.OCR.Lang,
			TessdataDir: c.OCR.TessdataDir,
			PSM:         c.OCR.PSM,
			OEM:         c.OCR.OEM,
			Timeout:     c.OCR.Timeout,
		},
	}
}

// Processor runs the full pipeline for one document per call. It holds no
// per-run state and is safe for concurrent use.
type Processor struct {
	logger   *slog.Logger
	models   *models.Loader
	metrics  *metrics.Metrics
	layout   layout.Config
	ingestor *ingest.Ingestor
	detector *anomaly.Detector
	decider  *decision.Engine
	renderer *render.Renderer
}

func NewProcessor(cfg Config, loader *models.Loader, runner ocr.Runner, m *metrics.Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:   logger,
		models:   loader,
		metrics:  m,
		layout:   cfg.Layout,
		ingestor: ingest.NewIngestor(cfg.Ingest, runner, logger),
		detector: anomaly.NewDetector(cfg.Anomaly, logger),
		decider:  decision.NewEngine(cfg.Decision, logger),
		renderer: render.NewRenderer(cfg.Render, logger),
	}
}

// RunDir is the artifact directory of runID.
func (p *Processor) RunDir(runID uuid.UUID) string {
	return p.renderer.RunDir(runID)
}

// ProcessDocument runs ingest → extract → classify → fields → anomalies →
// decision → render. A render failure returns the computed result, with
// empty artifact paths, together with the error; every other failure
// returns a nil result.
func (p *Processor) ProcessDocument(ctx context.Context, src ingest.Source) (*entity.ProcessingResult, error) {
	runID := uuid.New()
	ctx = common.WithRunID(ctx, runID.String())
	logger := common.LoggerFrom(ctx, p.logger)
	start := time.Now()

	// 0) models → resolved once per process; failures are sticky
	reg, err := p.models.Registry(ctx)
	if err != nil {
		return nil, p.fail(logger, constants.StageModels, err)
	}

	// 1) ingest → upright, white-flattened page
	if err := p.checkpoint(ctx, constants.StageIngest); err != nil {
		return nil, p.fail(logger, constants.StageIngest, err)
	}
	img, err := timed(p, constants.StageIngest, func() (*entity.CanonicalImage, error) {
		return p.ingestor.Ingest(ctx, src)
	})
	if err != nil {
		return nil, p.fail(logger, constants.StageIngest, err)
	}

	// 2) layout → reading-order tokens + language
	if err := p.checkpoint(ctx, constants.StageExtract); err != nil {
		return nil, p.fail(logger, constants.StageExtract, err)
	}
	extractor := layout.NewExtractor(p.layout, reg.Engine, logger)
	ext, err := timed(p, constants.StageExtract, func() (*layout.Extraction, error) {
		return extractor.Extract(ctx, img)
	})
	if err != nil {
		return nil, p.fail(logger, constants.StageExtract, err)
	}
	logger.Debug("processor extract stage success",
		"source", src.Name,
		"engine", ext.Engine,
		"tokens", len(ext.Tokens),
		"lines", len(ext.Lines),
		"language", ext.Language,
		"confidence", ext.MeanConfidence,
	)

	// 3) classify → type + confidence
	if err := p.checkpoint(ctx, constants.StageClassify); err != nil {
		return nil, p.fail(logger, constants.StageClassify, err)
	}
	cls, _ := timed(p, constants.StageClassify, func() (entity.Classification, error) {
		return reg.Classifier.Classify(ext.Tokens), nil
	})
	ruleset := rulebook.For(cls.Type)

	// 4) fields → typed values with provenance; Unknown has no rules
	if err := p.checkpoint(ctx, constants.StageFields); err != nil {
		return nil, p.fail(logger, constants.StageFields, err)
	}
	found, _ := timed(p, constants.StageFields, func() (map[string]entity.Field, error) {
		return fields.NewExtractor(reg.Recognizer, logger).Extract(ctx, ext.Tokens, ruleset.Extract), nil
	})

	// 5) anomalies → ordered, severity-graded
	if err := p.checkpoint(ctx, constants.StageAnomaly); err != nil {
		return nil, p.fail(logger, constants.StageAnomaly, err)
	}
	anomalies, _ := timed(p, constants.StageAnomaly, func() ([]entity.Anomaly, error) {
		return p.detector.Detect(anomaly.Input{
			Type:              cls.Type,
			Schema:            ruleset.Schema,
			Fields:            found,
			MeanOCRConfidence: ext.MeanConfidence,
		}, ruleset.Validate), nil
	})

	// 6) decision → approve | review | reject with reasoning
	if err := p.checkpoint(ctx, constants.StageDecision); err != nil {
		return nil, p.fail(logger, constants.StageDecision, err)
	}
	outcome, _ := timed(p, constants.StageDecision, func() (decision.Outcome, error) {
		return p.decider.Decide(decision.Input{
			Classification: cls,
			Schema:         ruleset.Schema,
			Fields:         found,
			Anomalies:      anomalies,
		}), nil
	})

	order := make([]string, 0, len(ruleset.Schema))
	for _, s := range ruleset.Schema {
		order = append(order, s.Name)
	}
	res := &entity.ProcessingResult{
		RunID:          runID,
		Classification: cls,
		Fields:         found,
		FieldOrder:     order,
		Anomalies:      anomalies,
		Decision:       outcome.Decision,
		Reasoning:      outcome.Reasoning,
		Language:       ext.Language,
		Tokens:         ext.Tokens,
	}

	// 7) render → three PNG artifacts under <output>/<run_id>
	if err := p.checkpoint(ctx, constants.StageRender); err != nil {
		return nil, p.fail(logger, constants.StageRender, err)
	}
	arts, err := timed(p, constants.StageRender, func() (entity.Artifacts, error) {
		return p.renderer.Render(ctx, render.Input{
			RunID:          runID,
			Page:           img.Pixels,
			Tokens:         ext.Tokens,
			Fields:         found,
			FieldOrder:     order,
			Anomalies:      anomalies,
			Classification: cls,
			Decision:       outcome.Decision,
			Contributors:   outcome.Contributors,
		})
	})
	if err != nil {
		return res, p.fail(logger, constants.StageRender, err)
	}
	res.Artifacts = arts

	p.metrics.RecordResult(cls.Type, outcome.Decision)
	logger.Info("document processed",
		"source", src.Name,
		"type", cls.Type,
		"confidence", entity.Round(cls.Confidence, 4),
		"fields", len(found),
		"anomalies", len(anomalies),
		"decision", outcome.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// checkpoint reports cancellation before stage starts. Stages themselves
// run to completion once started.
func (p *Processor) checkpoint(ctx context.Context, stage constants.Stage) error {
	if err := ctx.Err(); err != nil {
		return common.CanceledError(string(stage), err)
	}
	return nil
}

func (p *Processor) fail(logger *slog.Logger, stage constants.Stage, err error) error {
	p.metrics.RecordFailure(stage, common.CodeOf(err))
	logger.Error("processor."+string(stage)+".failed", "err", err)
	return err
}

func timed[T any](p *Processor, stage constants.Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	p.metrics.ObserveStage(stage, time.Since(start))
	return v, err
}
