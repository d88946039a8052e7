package terminal

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// Each terminal cell is a 2x4 braille dot grid.
const (
	dotsPerCellX = 2
	dotsPerCellY = 4

	// Layers fainter than this (glow, baselines) are not drawn; a dot is either on or off.
	minAlpha = 128
)

// Braille dot positions (col, row) -> bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [dotsPerCellX][dotsPerCellY]uint8{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// brailleGrid rasterizes primitives into braille cells.
// Coordinates are in dots: a grid of cols x rows cells is 2*cols x 4*rows dots.
type brailleGrid struct {
	cols, rows int
	cells      []uint8
	colors     []color.NRGBA
}

func newBrailleGrid(cols, rows int) *brailleGrid {
	cols, rows = max(cols, 0), max(rows, 0)
	return &brailleGrid{
		cols:   cols,
		rows:   rows,
		cells:  make([]uint8, cols*rows),
		colors: make([]color.NRGBA, cols*rows),
	}
}

// viewport is the drawable size in dots.
func (g *brailleGrid) viewport() domain.Viewport {
	return domain.Viewport{Width: float64(g.cols * dotsPerCellX), Height: float64(g.rows * dotsPerCellY)}
}

// set turns on the dot at x, y. Dots outside the grid are ignored.
func (g *brailleGrid) set(x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= g.cols*dotsPerCellX || y >= g.rows*dotsPerCellY {
		return
	}
	i := (y/dotsPerCellY)*g.cols + x/dotsPerCellX
	g.cells[i] |= 1 << brailleBits[x%dotsPerCellX][y%dotsPerCellY]
	g.colors[i] = c
}

// draw rasterizes prims back to front.
func (g *brailleGrid) draw(prims []domain.Primitive) {
	for _, p := range prims {
		if p.Color.A < minAlpha {
			continue
		}
		switch p.Kind {
		case domain.KindRect:
			g.rect(p.X, p.Y, p.W, p.H, p.Color)
		case domain.KindLine:
			g.line(p.X, p.Y, p.X2, p.Y2, p.Color)
		case domain.KindPoint:
			g.point(p.X, p.Y, p.Radius, p.Color)
		}
	}
}

func (g *brailleGrid) rect(x, y, w, h float64, c color.NRGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := int(math.Ceil(x+w)), int(math.Ceil(y+h))
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			g.set(px, py, c)
		}
	}
}

// line uses Bresenham's algorithm; stroke width is ignored at dot resolution.
func (g *brailleGrid) line(fx0, fy0, fx1, fy1 float64, c color.NRGBA) {
	x0, y0 := int(math.Round(fx0)), int(math.Round(fy0))
	x1, y1 := int(math.Round(fx1)), int(math.Round(fy1))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		g.set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (g *brailleGrid) point(cx, cy, r float64, c color.NRGBA) {
	g.set(int(math.Round(cx)), int(math.Round(cy)), c)
	if r < 1 {
		return
	}
	for py := int(math.Floor(cy - r)); py <= int(math.Ceil(cy+r)); py++ {
		for px := int(math.Floor(cx - r)); px <= int(math.Ceil(cx+r)); px++ {
			ddx, ddy := float64(px)-cx, float64(py)-cy
			if ddx*ddx+ddy*ddy <= r*r {
				g.set(px, py, c)
			}
		}
	}
}

// String renders the grid as rows of colored braille characters.
func (g *brailleGrid) String() string {
	styles := make(map[color.NRGBA]lipgloss.Style)

	var sb strings.Builder
	for row := range g.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := range g.cols {
			i := row*g.cols + col
			if g.cells[i] == 0 {
				sb.WriteByte(' ')
				continue
			}
			c := g.colors[i]
			style, ok := styles[c]
			if !ok {
				style = lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(c)))
				styles[c] = style
			}
			sb.WriteString(style.Render(string(rune(0x2800 + int(g.cells[i])))))
		}
	}
	return sb.String()
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
