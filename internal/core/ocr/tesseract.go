package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

// Config configures the tesseract engine.
type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // page segmentation mode; 0 keeps tesseract's default
	OEM         int // 1 = LSTM; leave 0 to use default
	Timeout     time.Duration
}

// Tesseract runs the tesseract CLI in TSV mode and returns word boxes.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (t *Tesseract) Name() string { return "tesseract-" + t.cfg.Lang }

// Available reports whether the tesseract binary can be resolved.
func (t *Tesseract) Available() error {
	if _, err := t.runner.LookPath(t.cfg.Tesseract); err != nil {
		return fmt.Errorf("tesseract binary %q not found: %w", t.cfg.Tesseract, err)
	}
	return nil
}

// Recognize writes img to a temp PNG and parses tesseract's TSV word rows.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	f, err := os.CreateTemp("", "docsense-ocr-*.png")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			t.logger.Warn("failed to remove ocr temp file", "file", path, "error", err)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("encode ocr input: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w (%s)", err, truncate(string(errb), 512))
	}
	return ParseTSV(string(out)), nil
}

// ParseTSV parses tesseract TSV output, keeping word rows (level 5) with
// non-empty text. Columns: level page_num block_num par_num line_num
// word_num left top width height conf text.
func ParseTSV(out string) []Word {
	var words []Word
	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || strings.TrimSpace(ln) == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.Join(cols[11:], " ")
		if strings.TrimSpace(text) == "" {
			continue
		}
		ints := make([]int, 0, 9)
		ok := true
		for _, c := range cols[2:10] {
			v, err := strconv.Atoi(strings.TrimSpace(c))
			if err != nil {
				ok = false
				break
			}
			ints = append(ints, v)
		}
		if !ok {
			continue
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		if err != nil || conf < 0 {
			conf = 0
		}
		words = append(words, Word{
			Text:       text,
			Block:      ints[0],
			Paragraph:  ints[1],
			Line:       ints[2],
			Box:        entity.BBox{X: ints[4], Y: ints[5], W: ints[6], H: ints[7]},
			Confidence: entity.ClampUnit(conf / 100.0),
		})
	}
	return words
}
