// Package visualizer provides the widget that paints rendered frames in the Fyne host.
package visualizer

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// capFPS is the rate the cap springs are tuned for; it matches the default refresh.
const capFPS = 20

// Canvas is a widget that rasterizes the primitives of the latest frame.
// Present may be called from any goroutine.
type Canvas struct {
	widget.BaseWidget

	Raster *canvas.Raster
	Mu     sync.Mutex

	frame      domain.RenderFrame
	caps       *Caps
	background color.Color

	// OnResize is called with the pixel size whenever the drawable area changes
	OnResize func(domain.Viewport)

	lastWidth  int
	lastHeight int

	draw DrawingUtils
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	v := &Canvas{
		caps:       NewCaps(capFPS),
		background: color.Black,
	}

	v.Raster = canvas.NewRaster(v.render)
	v.ExtendBaseWidget(v)

	return v
}

// CreateRenderer implements fyne.Widget.
func (v *Canvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.Raster)
}

// MinSize returns the minimum size of the visualizer.
func (v *Canvas) MinSize() fyne.Size {
	return fyne.NewSize(160, 120)
}

// Present stores frame and schedules a repaint on the UI thread.
func (v *Canvas) Present(frame domain.RenderFrame) {
	v.Mu.Lock()
	v.frame = frame
	v.caps.Update(frame)
	v.Mu.Unlock()

	fyne.Do(v.Raster.Refresh)
}

// Reset clears the canvas.
func (v *Canvas) Reset() {
	v.Mu.Lock()
	v.frame = domain.RenderFrame{}
	v.caps.Reset()
	v.Mu.Unlock()

	fyne.Do(v.Raster.Refresh)
}

// render draws the current frame at w x h pixels.
func (v *Canvas) render(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	v.draw.FillBackground(img, v.background)

	v.Mu.Lock()
	resized := w != v.lastWidth || h != v.lastHeight
	v.lastWidth, v.lastHeight = w, h
	prims := v.frame.Primitives
	caps := v.caps.Primitives(v.frame.Theme)
	onResize := v.OnResize
	v.Mu.Unlock()

	if resized && onResize != nil {
		onResize(domain.Viewport{Width: float64(w), Height: float64(h)})
	}

	v.draw.Draw(img, prims)
	v.draw.Draw(img, caps)

	return img
}

// Verify that Canvas can be used as a rendering surface
var _ ports.Surface = (*Canvas)(nil)
