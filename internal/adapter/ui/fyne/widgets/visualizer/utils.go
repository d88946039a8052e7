package visualizer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// DrawingUtils rasterizes primitives onto an RGBA image.
// Colors are non-premultiplied and alpha-blended over what is already drawn.
type DrawingUtils struct{}

// FillBackground fills the image with a solid color.
func (DrawingUtils) FillBackground(img *image.RGBA, col color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// Draw rasterizes prims back to front.
func (d DrawingUtils) Draw(img *image.RGBA, prims []domain.Primitive) {
	for _, p := range prims {
		switch p.Kind {
		case domain.KindRect:
			d.FillRect(img, p.X, p.Y, p.W, p.H, p.Color)
		case domain.KindLine:
			d.DrawThickLine(img, p.X, p.Y, p.X2, p.Y2, p.StrokeWidth, p.Color)
		case domain.KindPoint:
			d.DrawFilledCircle(img, p.X, p.Y, p.Radius, p.Color)
		}
	}
}

// FillRect blends a rectangle anchored at its top-left corner.
func (DrawingUtils) FillRect(img *image.RGBA, x, y, w, h float64, col color.NRGBA) {
	if !(w > 0) || !(h > 0) {
		return
	}
	r := image.Rect(
		int(math.Floor(x)), int(math.Floor(y)),
		int(math.Ceil(x+w)), int(math.Ceil(y+h)),
	).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// DrawThickLine draws a line with the specified thickness.
func (DrawingUtils) DrawThickLine(img *image.RGBA, x1, y1, x2, y2, thickness float64, col color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Sqrt(dx*dx + dy*dy)

	half := int(math.Max(thickness, 1)) / 2
	if length == 0 {
		blendAt(img, int(x1), int(y1), col)
		return
	}

	// Perpendicular unit vector for thickness
	perpX := -dy / length
	perpY := dx / length

	steps := int(length) + 1
	seen := make(map[image.Point]struct{}, (steps+1)*(2*half+1))

	for t := -half; t <= half; t++ {
		offsetX := float64(t) * perpX
		offsetY := float64(t) * perpY

		for i := 0; i <= steps; i++ {
			progress := float64(i) / float64(steps)
			pt := image.Point{
				X: int(math.Round(x1 + dx*progress + offsetX)),
				Y: int(math.Round(y1 + dy*progress + offsetY)),
			}
			if _, ok := seen[pt]; ok {
				continue
			}
			seen[pt] = struct{}{}
			blendAt(img, pt.X, pt.Y, col)
		}
	}
}

// DrawFilledCircle draws a filled disc centred on (cx, cy).
func (DrawingUtils) DrawFilledCircle(img *image.RGBA, cx, cy, radius float64, col color.NRGBA) {
	if !(radius > 0) {
		return
	}
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	r := int(math.Ceil(radius))
	r2 := radius * radius

	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if float64(dx*dx+dy*dy) <= r2 {
				blendAt(img, x0+dx, y0+dy, col)
			}
		}
	}
}

// blendAt composites col over the pixel at (x, y). Out-of-bounds is ignored.
func blendAt(img *image.RGBA, x, y int, col color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) || col.A == 0 {
		return
	}
	a := uint32(col.A)
	inv := 255 - a
	dst := img.RGBAAt(x, y)
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((uint32(col.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(col.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(col.B)*a + uint32(dst.B)*inv) / 255),
		A: uint8(a + uint32(dst.A)*inv/255),
	})
}
