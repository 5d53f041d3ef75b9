package ocr

import (
	"context"
	"image"

	"github.com/joseph-ayodele/docsense/internal/entity"
)

//go:generate mockgen -source=engine.go -destination=mocks/engine_mock.go -package=mocks

// Word is one recognized word as reported by an engine, before reading-order
// assignment. Confidence is normalized to [0,1].
type Word struct {
	Text       string
	Box        entity.BBox
	Confidence float64
	Block      int
	Paragraph  int
	Line       int
}

// Engine recognizes words in a page bitmap. Implementations are shared by
// concurrent runs and must not mutate state per call.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
}
