// Package render writes the explainability artifacts of a run.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

type Config struct {
	OutputDir string
}

// Input carries everything drawn for one run.
type Input struct {
	RunID          uuid.UUID
	Page           *image.NRGBA
	Tokens         []entity.Token
	Fields         map[string]entity.Field
	FieldOrder     []string
	Anomalies      []entity.Anomaly
	Classification entity.Classification
	Decision       constants.Decision
	Contributors   []string
}

type Renderer struct {
	cfg    Config
	logger *slog.Logger
}

func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// RunDir is the directory holding the artifacts of runID.
func (r *Renderer) RunDir(runID uuid.UUID) string {
	return filepath.Join(r.cfg.OutputDir, runID.String())
}

// Render draws the heatmap, field and decision views concurrently and
// writes them under RunDir. Only I/O failures produce a RenderError.
func (r *Renderer) Render(ctx context.Context, in Input) (entity.Artifacts, error) {
	dir := r.RunDir(in.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return entity.Artifacts{}, common.RenderError("create run directory", err)
	}
	arts := entity.Artifacts{
		Heatmap:  filepath.Join(dir, constants.HeatmapArtifact),
		Fields:   filepath.Join(dir, constants.FieldsArtifact),
		Decision: filepath.Join(dir, constants.DecisionArtifact),
	}

	var g errgroup.Group
	g.Go(func() error { return save(arts.Heatmap, heatmap(in)) })
	g.Go(func() error { return save(arts.Fields, fieldView(in)) })
	g.Go(func() error { return save(arts.Decision, decisionView(in)) })
	if err := g.Wait(); err != nil {
		return entity.Artifacts{}, common.RenderError("write artifacts", err)
	}

	r.logger.Debug("artifacts rendered", "run_id", in.RunID, "dir", dir)
	return arts, nil
}

func save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func base(in Input) *image.NRGBA {
	if in.Page == nil {
		return imaging.New(1, 1, colorLabelBG)
	}
	return imaging.Clone(in.Page)
}

// heatmap tints every token from green (confident) to red (uncertain).
func heatmap(in Input) *image.NRGBA {
	img := base(in)
	for _, t := range in.Tokens {
		fillRect(img, t.Box.Rect(), confidenceColor(t.Confidence, 110))
	}
	label(img, 8, 8, "confidence: green high, red low", colorTextDark)
	return img
}

// fieldView outlines each extracted field with its name.
func fieldView(in Input) *image.NRGBA {
	img := base(in)
	for i, name := range in.FieldOrder {
		f, ok := in.Fields[name]
		if !ok || f.Box.Empty() {
			continue
		}
		c := fieldPalette[i%len(fieldPalette)]
		strokeRect(img, f.Box.Rect(), c, 2)
		label(img, f.Box.X, max(f.Box.Y-16, 0), fmt.Sprintf("%s %.2f", name, f.Confidence), c)
	}
	return img
}

// decisionView highlights the fields behind the decision and adds a banner.
func decisionView(in Input) *image.NRGBA {
	img := base(in)
	severity := make(map[string]constants.Severity)
	for _, a := range in.Anomalies {
		for _, f := range a.Fields {
			if a.Severity.Weight() > severity[f].Weight() {
				severity[f] = a.Severity
			}
		}
	}
	contributor := make(map[string]bool, len(in.Contributors))
	for _, c := range in.Contributors {
		contributor[c] = true
	}

	for _, name := range in.FieldOrder {
		f, ok := in.Fields[name]
		if !ok || f.Box.Empty() {
			continue
		}
		if !contributor[name] {
			strokeRect(img, f.Box.Rect(), colorNeutral, 1)
			continue
		}
		c := colorReview
		if severity[name] == constants.SeverityCritical {
			c = colorReject
		}
		fillRect(img, f.Box.Rect(), withAlpha(c, 70))
		strokeRect(img, f.Box.Rect(), c, 3)
	}

	banner := decisionColor(in.Decision)
	w := img.Bounds().Dx()
	fillRect(img, image.Rect(0, 0, w, 22), withAlpha(banner, 230))
	label(img, 6, 4, fmt.Sprintf("%s  %s %.2f",
		strings.ToUpper(string(in.Decision)), in.Classification.Type, in.Classification.Confidence), colorTextDark)
	return img
}

func decisionColor(d constants.Decision) color.NRGBA {
	switch d {
	case constants.DecisionApprove:
		return colorApprove
	case constants.DecisionReject:
		return colorReject
	default:
		return colorReview
	}
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}
