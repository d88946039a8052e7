// Package render maps pipeline output to drawing primitives.
//
// Every function here is pure: the same inputs always yield the same primitive
// list, and nothing is retained between calls. Coordinates are in viewport units
// with the origin at the top-left corner. Degenerate input (an empty viewport,
// no bands, no samples) yields no primitives rather than an error.
package render

import (
	"math"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// Stroke widths and point sizes, in viewport units.
const (
	lineWidth     = 2.0
	baselineWidth = 1.0
	minPointSize  = 1.5
)

// Render produces the primitives for mode. Band-driven modes read bands;
// waveform reads frame.
func Render(mode domain.VisualizationMode, bands domain.BandSet, frame domain.AudioFrame, theme domain.ColorTheme, vp domain.Viewport) []domain.Primitive {
	switch mode {
	case domain.ModeSpectrum:
		return Spectrum(bands, theme, vp)
	case domain.ModeBars:
		return Bars(bands, theme, vp)
	case domain.ModeCircular:
		return Circular(bands, theme, vp)
	case domain.ModeWaveform:
		return Waveform(frame, theme, vp)
	default:
		return nil
	}
}

// level clamps a band value into [0, 1], mapping NaN to 0.
func level(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, 1)
}

// Spectrum draws one translucent filled column per band with a line tracing the tops.
func Spectrum(bands domain.BandSet, theme domain.ColorTheme, vp domain.Viewport) []domain.Primitive {
	if vp.IsEmpty() || len(bands) == 0 {
		return nil
	}

	base := theme.Color()
	fill := WithAlpha(base, SpectrumFillAlpha)
	colW := vp.Width / float64(len(bands))

	out := make([]domain.Primitive, 0, 2*len(bands)-1)
	for i, v := range bands {
		h := level(v) * vp.Height
		out = append(out, domain.NewRect(float64(i)*colW, vp.Height-h, colW, h, fill, i))
	}

	prevX, prevY := 0.0, 0.0
	for i, v := range bands {
		x := (float64(i) + 0.5) * colW
		y := vp.Height - level(v)*vp.Height
		if i > 0 {
			out = append(out, domain.NewLine(prevX, prevY, x, y, lineWidth, base, i))
		}
		prevX, prevY = x, y
	}
	return out
}

// Bars draws separated bars with a glow over the upper half of each.
func Bars(bands domain.BandSet, theme domain.ColorTheme, vp domain.Viewport) []domain.Primitive {
	if vp.IsEmpty() || len(bands) == 0 {
		return nil
	}

	base := theme.Color()
	body := WithAlpha(base, BarAlpha)
	glow := WithAlpha(Lighten(base, 0.5), GlowAlpha)

	slot := vp.Width / float64(len(bands))
	barW := slot * 0.8
	pad := (slot - barW) / 2

	out := make([]domain.Primitive, 0, 2*len(bands))
	for i, v := range bands {
		h := level(v) * vp.Height
		x := float64(i)*slot + pad
		y := vp.Height - h
		out = append(out,
			domain.NewRect(x, y, barW, h, body, i),
			domain.NewRect(x, y, barW, h/2, glow, i),
		)
	}
	return out
}

// Circular draws bands as polar points around the viewport centre, joined into
// a closed loop, over a translucent disc at the base radius.
func Circular(bands domain.BandSet, theme domain.ColorTheme, vp domain.Viewport) []domain.Primitive {
	if vp.IsEmpty() || len(bands) == 0 {
		return nil
	}

	base := theme.Color()
	cx, cy := vp.Width/2, vp.Height/2
	r := math.Min(vp.Width, vp.Height) / 2
	pointSize := math.Max(minPointSize, r*0.015)

	n := len(bands)
	out := make([]domain.Primitive, 0, 1+2*n)
	out = append(out, domain.NewPoint(cx, cy, 0.3*r, WithAlpha(base, CenterDiscAlpha), -1))

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, v := range bands {
		// Start at twelve o'clock and run clockwise
		theta := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		radius := r * (0.3 + 0.4*level(v))
		xs[i] = cx + radius*math.Cos(theta)
		ys[i] = cy + radius*math.Sin(theta)
	}

	if n > 1 {
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			out = append(out, domain.NewLine(xs[i], ys[i], xs[j], ys[j], lineWidth, base, i))
		}
	}
	for i := range bands {
		out = append(out, domain.NewPoint(xs[i], ys[i], pointSize, base, i))
	}
	return out
}

// Waveform reduces the mono mix of frame to one point per viewport column,
// the mean of the samples in that column, and joins them over a dim centre line.
func Waveform(frame domain.AudioFrame, theme domain.ColorTheme, vp domain.Viewport) []domain.Primitive {
	n := frame.Len()
	if vp.IsEmpty() || n == 0 {
		return nil
	}

	base := theme.Color()
	mid := vp.Height / 2
	mono := frame.Mono(nil)

	cols := int(vp.Width)
	cols = max(min(cols, n), 1)
	colW := vp.Width / float64(cols)

	out := make([]domain.Primitive, 0, cols+1)
	out = append(out, domain.NewLine(0, mid, vp.Width, mid, baselineWidth, WithAlpha(base, BaselineAlpha), -1))

	prevX, prevY := 0.0, 0.0
	for c := 0; c < cols; c++ {
		start := c * n / cols
		end := (c + 1) * n / cols
		var sum float64
		for _, s := range mono[start:end] {
			sum += s
		}
		mean := sum / float64(end-start)
		if math.IsNaN(mean) {
			mean = 0
		}
		mean = math.Min(math.Max(mean, -1), 1)

		x := (float64(c) + 0.5) * colW
		y := mid - mean*mid
		if cols == 1 {
			out = append(out, domain.NewPoint(x, y, minPointSize, base, -1))
			break
		}
		if c > 0 {
			out = append(out, domain.NewLine(prevX, prevY, x, y, lineWidth, base, -1))
		}
		prevX, prevY = x, y
	}
	return out
}
