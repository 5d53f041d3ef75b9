// Package layout turns a canonical page bitmap into an ordered token stream.
package layout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

type Config struct {
	MinInkRatio    float64 // below this the page is treated as blank
	LineOverlap    float64 // vertical overlap fraction for words sharing a line
	BlockGapFactor float64 // gap, in median line heights, that starts a new block
}

// Extraction is the extractor output consumed by every later stage.
type Extraction struct {
	Tokens         []entity.Token
	Lines          []entity.Line
	Text           string
	Language       string
	MeanConfidence float64
	InkRatio       float64
	Engine         string
	Duration       time.Duration
}

type Extractor struct {
	cfg    Config
	engine ocr.Engine
	logger *slog.Logger
}

func NewExtractor(cfg Config, engine ocr.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinInkRatio <= 0 {
		cfg.MinInkRatio = 0.0005
	}
	if cfg.LineOverlap <= 0 {
		cfg.LineOverlap = 0.5
	}
	if cfg.BlockGapFactor <= 0 {
		cfg.BlockGapFactor = 1.6
	}
	return &Extractor{cfg: cfg, engine: engine, logger: logger}
}

// Extract binarizes the page, runs recognition and orders the tokens.
// A page with no ink or no recognized words is an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, img *entity.CanonicalImage) (*Extraction, error) {
	if e.engine == nil {
		return nil, common.ModelUnavailableError("no OCR engine configured", nil)
	}
	start := time.Now()

	bin := binarize(img.Pixels)
	if bin.InkRatio < e.cfg.MinInkRatio {
		e.logger.Info("no text region detected", "ink_ratio", bin.InkRatio, "min_ink_ratio", e.cfg.MinInkRatio)
		return nil, common.ExtractionError("no text region detected", nil)
	}

	words, err := e.engine.Recognize(ctx, bin.Image)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ExtractionError("recognition interrupted", err)
		}
		return nil, common.ExtractionError("text recognition failed", err)
	}

	words = lo.FilterMap(words, func(w ocr.Word, _ int) (ocr.Word, bool) {
		w.Text = ocr.NormalizeToken(w.Text)
		return w, w.Text != "" && !w.Box.Empty()
	})
	if len(words) == 0 {
		e.logger.Info("no words recognized", "engine", e.engine.Name(), "ink_ratio", bin.InkRatio)
		return nil, common.ExtractionError("no text recognized on page", nil)
	}

	tokens := orderTokens(words, e.cfg.LineOverlap, e.cfg.BlockGapFactor)
	lines := entity.GroupLines(tokens)
	text := joinLines(lines, tokens)

	out := &Extraction{
		Tokens:         tokens,
		Lines:          lines,
		Text:           text,
		Language:       detectLanguage(text),
		MeanConfidence: entity.MeanConfidence(tokens),
		InkRatio:       bin.InkRatio,
		Engine:         e.engine.Name(),
		Duration:       time.Since(start),
	}
	e.logger.Debug("layout extracted",
		"engine", out.Engine,
		"tokens", len(tokens),
		"lines", len(lines),
		"language", out.Language,
		"mean_confidence", out.MeanConfidence,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

func joinLines(lines []entity.Line, tokens []entity.Token) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text(tokens)
	}
	return ocr.Normalize(strings.Join(parts, "\n"))
}

// minLanguageConfidence admits a top guess that whatlanggo does not call
// reliable; short, table-heavy pages rarely reach its own threshold.
const minLanguageConfidence = 0.3

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() && info.Confidence < minLanguageConfidence {
		return ""
	}
	return info.Lang.Iso6391()
}
