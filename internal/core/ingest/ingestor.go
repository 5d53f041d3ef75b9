// Package ingest normalizes raw image input into a CanonicalImage.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// Config bounds what the ingestor accepts.
type Config struct {
	MaxBytes      int
	MaxWidth      int
	MaxHeight     int
	MaxPixels     int
	HeicConverter string // heif-convert | magick | sips
}

// Source is either a filesystem path or an in-memory buffer.
type Source struct {
	Name string
	Path string
	Data []byte
}

func FromPath(path string) Source {
	return Source{Name: filepath.Base(path), Path: path}
}

func FromBytes(name string, data []byte) Source {
	return Source{Name: name, Data: data}
}

type Ingestor struct {
	cfg    Config
	runner ocr.Runner
	logger *slog.Logger
}

func NewIngestor(cfg Config, runner ocr.Runner, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.NewExecRunner(logger)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 25 << 20
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 12000
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 12000
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = 60_000_000
	}
	if cfg.HeicConverter == "" {
		cfg.HeicConverter = "magick"
	}
	return &Ingestor{cfg: cfg, runner: runner, logger: logger}
}

// Ingest decodes src into an upright, white-flattened NRGBA bitmap.
func (i *Ingestor) Ingest(ctx context.Context, src Source) (*entity.CanonicalImage, error) {
	data, err := i.read(src)
	if err != nil {
		return nil, err
	}

	mt := mimetype.Detect(data)
	format, ok := constants.SupportedMIMETypes[mt.String()]
	if !ok {
		// mimetype reports the closest parent (e.g. "application/octet-stream")
		for p := mt.Parent(); p != nil && !ok; p = p.Parent() {
			format, ok = constants.SupportedMIMETypes[p.String()]
		}
	}
	if !ok {
		i.logger.Warn("unsupported input format", "name", src.Name, "mime", mt.String())
		return nil, common.IngestionError(fmt.Sprintf("unsupported input format %q", mt.String()), nil)
	}

	if format == constants.FormatHEIC {
		png, warns, err := ocr.ConvertHEIC(ctx, i.runner, i.logger, i.cfg.HeicConverter, data)
		if err != nil {
			i.logger.Error("heic conversion failed", "name", src.Name, "error", err, "warnings", warns)
			return nil, common.IngestionError("cannot convert HEIC input", err)
		}
		data = png
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.IngestionError("cannot decode image header", err)
	}
	orientation := exifOrientation(format, data)
	// bounds apply to the upright page; orientations 5-8 swap the axes
	w, h := cfg.Width, cfg.Height
	if orientation >= 5 {
		w, h = h, w
	}
	if err := i.checkBounds(w, h); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, common.IngestionError("cannot decode image", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, common.IngestionError("image has zero dimensions", nil)
	}

	// flatten transparency onto white, which also normalizes the color model
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	canvas = imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	out := &entity.CanonicalImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Pixels:      canvas,
		Format:      format,
		MIME:        mt.String(),
		Orientation: orientation,
		Rotated:     orientation > 1,
		SizeBytes:   len(data),
	}
	i.logger.Debug("ingested image",
		"name", src.Name,
		"format", out.Format,
		"width", out.Width,
		"height", out.Height,
		"orientation", out.Orientation,
	)
	return out, nil
}

// exifOrientation returns the EXIF orientation tag (1-8) of JPEG input, or 1
// when absent or unreadable. It matches what imaging.AutoOrientation applies.
func exifOrientation(format string, data []byte) int {
	if format != constants.FormatJPEG {
		return 1
	}
	// a partial decode still carries the main IFD
	x, _ := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func (i *Ingestor) read(src Source) ([]byte, error) {
	if src.Path == "" {
		if len(src.Data) == 0 {
			return nil, common.IngestionError("input is empty", nil)
		}
		if len(src.Data) > i.cfg.MaxBytes {
			return nil, common.IngestionError(fmt.Sprintf("input exceeds %d bytes", i.cfg.MaxBytes), nil)
		}
		return src.Data, nil
	}

	st, err := os.Stat(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.IngestionError(fmt.Sprintf("input %q does not exist", src.Path), err)
		}
		return nil, common.IngestionError("cannot stat input", err)
	}
	if st.IsDir() {
		return nil, common.IngestionError(fmt.Sprintf("input %q is a directory", src.Path), nil)
	}
	if st.Size() == 0 {
		return nil, common.IngestionError("input is empty", nil)
	}
	if st.Size() > int64(i.cfg.MaxBytes) {
		return nil, common.IngestionError(fmt.Sprintf("input exceeds %d bytes", i.cfg.MaxBytes), nil)
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, common.IngestionError("cannot read input", err)
	}
	return data, nil
}

func (i *Ingestor) checkBounds(w, h int) error {
	switch {
	case w <= 0 || h <= 0:
		return common.IngestionError("image has zero dimensions", nil)
	case w > i.cfg.MaxWidth || h > i.cfg.MaxHeight:
		return common.IngestionError(fmt.Sprintf("image %dx%d exceeds maximum %dx%d", w, h, i.cfg.MaxWidth, i.cfg.MaxHeight), nil)
	case w*h > i.cfg.MaxPixels:
		return common.IngestionError(fmt.Sprintf("image has %d pixels, maximum is %d", w*h, i.cfg.MaxPixels), nil)
	}
	return nil
}
