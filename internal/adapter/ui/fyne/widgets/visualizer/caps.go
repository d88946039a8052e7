package visualizer

import (
	"github.com/charmbracelet/harmonica"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/render"
)

const (
	capHeight    = 3.0
	capFrequency = 5.0 // spring angular frequency
	capDamping   = 0.7 // spring damping ratio
	capLighten   = 0.5
)

// Caps draws a small marker above every column that jumps up with the column
// and settles back down on a spring.
type Caps struct {
	spring harmonica.Spring

	mode domain.VisualizationMode
	pos  []float64 // cap top, surface units
	vel  []float64
	x    []float64
	w    []float64
}

// NewCaps creates caps animated at fps updates per second.
func NewCaps(fps int) *Caps {
	return &Caps{
		spring: harmonica.NewSpring(harmonica.FPS(fps), capFrequency, capDamping),
	}
}

// Update moves the caps toward the column tops of frame.
// Only column modes have caps.
func (c *Caps) Update(frame domain.RenderFrame) {
	if frame.Mode != domain.ModeSpectrum && frame.Mode != domain.ModeBars {
		c.Reset()
		return
	}

	n := len(frame.Bands)
	tops, xs, ws := columnTops(frame.Primitives, n)

	if frame.Mode != c.mode || len(c.pos) != n {
		c.mode = frame.Mode
		c.pos = append([]float64(nil), tops...)
		c.vel = make([]float64, n)
		c.x, c.w = xs, ws
		return
	}
	c.x, c.w = xs, ws

	for i, top := range tops {
		if top <= c.pos[i] {
			c.pos[i], c.vel[i] = top, 0
			continue
		}
		c.pos[i], c.vel[i] = c.spring.Update(c.pos[i], c.vel[i], top)
	}
}

// Reset drops all caps.
func (c *Caps) Reset() {
	c.mode = ""
	c.pos, c.vel, c.x, c.w = nil, nil, nil, nil
}

// Positions returns the current cap tops.
func (c *Caps) Positions() []float64 {
	return append([]float64(nil), c.pos...)
}

// Primitives returns one rectangle per cap.
func (c *Caps) Primitives(theme domain.ColorTheme) []domain.Primitive {
	if len(c.pos) == 0 {
		return nil
	}
	col := render.Lighten(theme.Color(), capLighten)
	out := make([]domain.Primitive, 0, len(c.pos))
	for i, y := range c.pos {
		if !(c.w[i] > 0) {
			continue
		}
		out = append(out, domain.NewRect(c.x[i], y-capHeight, c.w[i], capHeight, col, i))
	}
	return out
}

// columnTops finds, per band, the highest rectangle edge and its horizontal extent.
func columnTops(prims []domain.Primitive, n int) (tops, xs, ws []float64) {
	tops = make([]float64, n)
	xs = make([]float64, n)
	ws = make([]float64, n)
	found := make([]bool, n)

	bottom := 0.0
	for _, p := range prims {
		if p.Kind == domain.KindRect && p.Band >= 0 && p.Band < n {
			b := p.Band
			if !found[b] || p.Y < tops[b] {
				tops[b], xs[b], ws[b] = p.Y, p.X, p.W
				found[b] = true
			}
			bottom = max(bottom, p.Y+p.H)
		}
	}
	for b := range tops {
		if !found[b] {
			tops[b] = bottom
		}
	}
	return tops, xs, ws
}
