package layout

import (
	"image"

	"github.com/disintegration/imaging"
)

// minContrast is the smallest max-min luminance spread treated as content.
const minContrast = 40

// Binarized is the preprocessed page handed to the recognition engine.
type Binarized struct {
	Image     *image.Gray
	Threshold uint8
	InkRatio  float64
}

// binarize converts img to grayscale and applies a global Otsu threshold,
// then clears isolated dark pixels. Pages without meaningful contrast come
// back all white with InkRatio 0.
func binarize(img image.Image) Binarized {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	var hist [256]int
	lo, hi := uint8(255), uint8(0)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			v := row[x*4]
			hist[v]++
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		out.Pix[i] = 255
	}
	if int(hi)-int(lo) < minContrast {
		return Binarized{Image: out, Threshold: 0}
	}

	t := otsu(hist, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			if row[x*4] <= t {
				out.Pix[y*out.Stride+x] = 0
			}
		}
	}

	dark := despeckle(out)
	return Binarized{Image: out, Threshold: t, InkRatio: float64(dark) / float64(w*h)}
}

// otsu returns the threshold maximizing between-class variance.
func otsu(hist [256]int, total int) uint8 {
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}
	var sumB, wB float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// despeckle whitens dark pixels with no dark 8-neighbour and returns the
// remaining dark pixel count.
func despeckle(g *image.Gray) int {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	isDark := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return g.Pix[y*g.Stride+x] == 0
	}
	var clear []int
	dark := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !isDark(x, y) {
				continue
			}
			lonely := true
			for dy := -1; dy <= 1 && lonely; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if (dx != 0 || dy != 0) && isDark(x+dx, y+dy) {
						lonely = false
						break
					}
				}
			}
			if lonely {
				clear = append(clear, y*g.Stride+x)
				continue
			}
			dark++
		}
	}
	for _, i := range clear {
		g.Pix[i] = 255
	}
	return dark
}
