package entity

import "image"

// CanonicalImage is a decoded, orientation-corrected page bitmap owned by a single run.
type CanonicalImage struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Pixels      *image.NRGBA `json:"-"`
	Format      string       `json:"format"` // constants.FormatPNG | FormatJPEG | ...
	MIME        string       `json:"mime"`   // sniffed content type
	Orientation int          `json:"exif_orientation"` // 1 when upright or untagged
	Rotated     bool         `json:"auto_rotated"`
	SizeBytes   int          `json:"size_bytes"`
}

// BBox is an axis-aligned box in source-image pixel space.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (b BBox) Empty() bool { return b.W <= 0 || b.H <= 0 }

func (b BBox) MaxX() int { return b.X + b.W }
func (b BBox) MaxY() int { return b.Y + b.H }

// CenterY returns the vertical midpoint.
func (b BBox) CenterY() float64 { return float64(b.Y) + float64(b.H)/2 }

// Union returns the minimal box covering both b and o. Empty boxes are ignored.
func (b BBox) Union(o BBox) BBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	x0, y0 := min(b.X, o.X), min(b.Y, o.Y)
	x1, y1 := max(b.MaxX(), o.MaxX()), max(b.MaxY(), o.MaxY())
	return BBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// VerticalOverlap returns the overlap of the two vertical extents as a
// fraction of the shorter one, in [0,1].
func (b BBox) VerticalOverlap(o BBox) float64 {
	top := max(b.Y, o.Y)
	bottom := min(b.MaxY(), o.MaxY())
	if bottom <= top {
		return 0
	}
	shorter := min(b.H, o.H)
	if shorter <= 0 {
		return 0
	}
	return float64(bottom-top) / float64(shorter)
}

// Rect converts to an image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.MaxX(), b.MaxY())
}
