package render

import (
	"image/color"
	"math"
)

// Layer opacities.
const (
	SpectrumFillAlpha = 0.7
	BarAlpha          = 0.8
	GlowAlpha         = 0.3
	CenterDiscAlpha   = 0.3
	BaselineAlpha     = 0.3
)

// WithAlpha returns c with its opacity set to alpha in [0, 1].
func WithAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	alpha = math.Min(math.Max(alpha, 0), 1)
	c.A = uint8(math.Round(alpha * 255))
	return c
}

// Lighten mixes c towards white by amount in [0, 1], keeping its alpha.
func Lighten(c color.NRGBA, amount float64) color.NRGBA {
	amount = math.Min(math.Max(amount, 0), 1)
	mix := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) + (255-float64(v))*amount))
	}
	return color.NRGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}
