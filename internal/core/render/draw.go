package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	colorApprove  = color.NRGBA{R: 46, G: 160, B: 67, A: 255}
	colorReview   = color.NRGBA{R: 230, G: 160, B: 20, A: 255}
	colorReject   = color.NRGBA{R: 210, G: 45, B: 45, A: 255}
	colorNeutral  = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	colorLabelBG  = color.NRGBA{R: 255, G: 255, B: 255, A: 220}
	colorTextDark = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
)

// fieldPalette cycles across fields in schema order.
var fieldPalette = []color.NRGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
}

// confidenceColor runs from red at 0 to green at 1.
func confidenceColor(conf float64, alpha uint8) color.NRGBA {
	conf = max(0, min(1, conf))
	return color.NRGBA{
		R: uint8(220 * (1 - conf)),
		G: uint8(190 * conf),
		B: 40,
		A: alpha,
	}
}

func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func strokeRect(img draw.Image, r image.Rectangle, c color.Color, width int) {
	for i := 0; i < width; i++ {
		fillRect(img, image.Rect(r.Min.X-i, r.Min.Y-i, r.Max.X+i, r.Min.Y-i+1), c)
		fillRect(img, image.Rect(r.Min.X-i, r.Max.Y+i-1, r.Max.X+i, r.Max.Y+i), c)
		fillRect(img, image.Rect(r.Min.X-i, r.Min.Y-i, r.Min.X-i+1, r.Max.Y+i), c)
		fillRect(img, image.Rect(r.Max.X+i-1, r.Min.Y-i, r.Max.X+i, r.Max.Y+i), c)
	}
}

// label draws text on a translucent backing with its top-left at (x, y).
func label(img draw.Image, x, y int, text string, fg color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Height
	fillRect(img, image.Rect(x-2, y, x+w+2, y+h+2), colorLabelBG)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent+1),
	}
	d.DrawString(text)
}
