package fixtures

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// DefaultConfidence is the confidence reported for every fixture word.
const DefaultConfidence = 0.95

// Words returns the word boxes a perfect recognizer would report.
func (d Document) Words() []ocr.Word {
	var words []ocr.Word
	for li, l := range d.Lines {
		scale := max(l.Scale, 1)
		col := 0
		for _, f := range strings.Split(l.Text, " ") {
			if f == "" {
				col++
				continue
			}
			words = append(words, ocr.Word{
				Text:       f,
				Box:        entity.BBox{X: l.X + col*glyphWidth*scale, Y: l.Y, W: len(f) * glyphWidth * scale, H: glyphHeight * scale},
				Confidence: DefaultConfidence,
				Line:       li,
			})
			col += len(f) + 1
		}
	}
	return words
}

// Tokens returns Words as a reading-order token sequence.
func (d Document) Tokens() []entity.Token {
	words := d.Words()
	out := make([]entity.Token, len(words))
	for i, w := range words {
		out[i] = entity.Token{Index: i, Text: w.Text, Box: w.Box, Confidence: w.Confidence, Line: w.Line}
	}
	return out
}

// Image draws the document with the 7x13 bitmap face.
func (d Document) Image() *image.NRGBA {
	img := imaging.New(d.Width, d.Height, color.White)
	for _, l := range d.Lines {
		scale := max(l.Scale, 1)
		w, h := len(l.Text)*glyphWidth, glyphHeight
		strip := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(strip, strip.Bounds(), image.White, image.Point{}, draw.Src)
		dr := &font.Drawer{
			Dst:  strip,
			Src:  image.Black,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(0, basicfont.Face7x13.Ascent),
		}
		dr.DrawString(l.Text)
		var glyphs image.Image = strip
		if scale > 1 {
			glyphs = imaging.Resize(strip, w*scale, h*scale, imaging.NearestNeighbor)
		}
		img = imaging.Paste(img, glyphs, image.Pt(l.X, l.Y))
	}
	return img
}

// PNG encodes Image.
func (d Document) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, d.Image()); err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.Name, err)
	}
	return buf.Bytes(), nil
}

// Canonical returns the document as an ingested page.
func (d Document) Canonical() *entity.CanonicalImage {
	return &entity.CanonicalImage{
		Width:  d.Width,
		Height: d.Height,
		Pixels: d.Image(),
		Format: "png",
		MIME:   "image/png",
	}
}

// Engine is a recognizer that replays fixed words regardless of input.
type Engine struct {
	Label string
	Words []ocr.Word
}

// EngineFor returns an Engine replaying the words of d.
func EngineFor(d Document) *Engine {
	return &Engine{Label: "fixture", Words: d.Words()}
}

func (e *Engine) Name() string {
	if e.Label == "" {
		return "fixture"
	}
	return e.Label
}

func (e *Engine) Recognize(ctx context.Context, _ image.Image) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]ocr.Word, len(e.Words))
	copy(out, e.Words)
	return out, nil
}

// Catalog replays words for whichever sample document matches the page.
// Pages are matched by which pixel rows carry ink, so one engine can serve
// a batch of different samples.
type Catalog struct {
	rows  []map[int]bool
	words [][]ocr.Word
}

func NewCatalog(docs ...Document) *Catalog {
	c := &Catalog{}
	for _, d := range docs {
		c.rows = append(c.rows, inkRows(d.Image()))
		c.words = append(c.words, d.Words())
	}
	return c
}

func (c *Catalog) Name() string { return "fixture-catalog" }

// Recognize returns the words of the closest fixture, or none when no
// fixture shares at least 80% of its inked rows with img.
func (c *Catalog) Recognize(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := inkRows(img)
	best, bestScore := -1, 0.8
	for i, r := range c.rows {
		if s := jaccard(rows, r); s >= bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return nil, nil
	}
	out := make([]ocr.Word, len(c.words[best]))
	copy(out, c.words[best])
	return out, nil
}

func inkRows(img image.Image) map[int]bool {
	b := img.Bounds()
	rows := make(map[int]bool)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 128 {
				rows[y-b.Min.Y] = true
				break
			}
		}
	}
	return rows
}

func jaccard(a, b map[int]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
