// Package viz renders swarm snapshots as PNG images: a filled contour of the
// objective over the search domain with particles drawn on top.
package viz

import (
	"image"
	"image/color"
	"math"

	"github.com/cwbudde/psoswarm/internal/pso"
)

// contourLevels is the number of color bands in the background.
const contourLevels = 12

var (
	particleColor = color.NRGBA{255, 255, 255, 255}
	bestColor     = color.NRGBA{220, 30, 30, 255}
)

// palette runs from dark blue (low) to yellow (high).
var palette = []color.NRGBA{
	{68, 1, 84, 255},
	{59, 82, 139, 255},
	{33, 145, 140, 255},
	{94, 201, 98, 255},
	{253, 231, 37, 255},
}

// Render draws snap over a size x size view of domain. Particles outside the
// domain are not drawn.
func Render(snap pso.Snapshot, objective pso.Objective, domain pso.Bounds, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	if size <= 0 {
		return img
	}
	if objective == nil {
		objective = pso.Paraboloid
	}

	drawContour(img, objective, domain)

	for _, p := range snap.Positions {
		if x, y, ok := toPixel(p, domain, size); ok {
			fillSquare(img, x, y, 1, particleColor)
		}
	}
	if x, y, ok := toPixel(snap.Best.Position, domain, size); ok {
		drawCross(img, x, y, 3, bestColor)
	}
	return img
}

// drawContour fills the background with banded colors of log(1+|f|).
func drawContour(img *image.NRGBA, objective pso.Objective, domain pso.Bounds) {
	size := img.Bounds().Dx()
	values := make([]float64, size*size)
	lo, hi := math.Inf(1), math.Inf(-1)

	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			x, y := toDomain(px, py, domain, size)
			v := objective(x, y)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = math.NaN()
			} else {
				v = math.Log1p(math.Abs(v))
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			values[py*size+px] = v
		}
	}

	span := hi - lo
	for i, v := range values {
		c := color.NRGBA{0, 0, 0, 255}
		if !math.IsNaN(v) {
			t := 0.0
			if span > 0 {
				t = (v - lo) / span
			}
			// Quantize into bands to get a filled-contour look.
			band := math.Min(math.Floor(t*contourLevels), contourLevels-1)
			c = colorAt(band / (contourLevels - 1))
		}
		img.SetNRGBA(i%size, i/size, c)
	}
}

func colorAt(t float64) color.NRGBA {
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(palette)-1)
	i := int(pos)
	if i >= len(palette)-1 {
		return palette[len(palette)-1]
	}
	frac := pos - float64(i)
	a, b := palette[i], palette[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.NRGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 255}
}

// toDomain maps a pixel center to domain coordinates; y grows upward.
func toDomain(px, py int, domain pso.Bounds, size int) (float64, float64) {
	span := domain.Max - domain.Min
	x := domain.Min + (float64(px)+0.5)/float64(size)*span
	y := domain.Max - (float64(py)+0.5)/float64(size)*span
	return x, y
}

func toPixel(p pso.Vec2, domain pso.Bounds, size int) (int, int, bool) {
	if !domain.Contains(p) {
		return 0, 0, false
	}
	span := domain.Max - domain.Min
	if span <= 0 {
		return size / 2, size / 2, true
	}
	px := int((p.X - domain.Min) / span * float64(size))
	py := int((domain.Max - p.Y) / span * float64(size))
	return min(px, size-1), min(py, size-1), true
}

func fillSquare(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	b := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if image.Pt(x, y).In(b) {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawCross(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	b := img.Bounds()
	for d := -r; d <= r; d++ {
		for _, pt := range []image.Point{{cx + d, cy}, {cx, cy + d}} {
			if pt.In(b) {
				img.SetNRGBA(pt.X, pt.Y, c)
			}
		}
	}
}
