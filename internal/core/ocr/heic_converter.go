package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ConvertHEIC converts HEIC/HEIF bytes to PNG bytes with an external converter
// (heif-convert | magick | sips). Temp files are always removed.
func ConvertHEIC(ctx context.Context, r Runner, logger *slog.Logger, converter string, data []byte) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpDir, err := os.MkdirTemp("", "docsense-heic-*")
	if err != nil {
		return nil, nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove heic temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "page.heic")
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, nil, err
	}

	switch converter {
	case "heif-convert":
		if _, errb, err2 := r.Run(ctx, "heif-convert", in, out); err2 != nil {
			return nil, []string{string(errb)}, fmt.Errorf("heif-convert failed: %w", err2)
		}
	case "magick":
		if _, errb, err2 := r.Run(ctx, "magick", in, out); err2 != nil {
			return nil, []string{string(errb)}, fmt.Errorf("magick convert failed: %w", err2)
		}
	case "sips":
		if _, errb, err2 := r.Run(ctx, "sips", "-s", "format", "png", in, "--out", out); err2 != nil {
			return nil, []string{string(errb)}, fmt.Errorf("sips convert failed: %w", err2)
		}
	default:
		return nil, nil, fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	logger.Debug("converted heic to png", "converter", converter, "in_bytes", len(data), "out_bytes", len(png))
	return png, nil, nil
}
