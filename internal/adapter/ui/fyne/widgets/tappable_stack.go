// Package widgets provides custom Fyne widgets for the music visualizer.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// TappableStack wraps the visualizer canvas and turns pointer input into
// commands. Unset handlers are ignored.
type TappableStack struct {
	widget.BaseWidget

	content fyne.CanvasObject

	OnTapped          func()
	OnSecondaryTapped func()
	OnDoubleTapped    func()

	// OnScrolled gets +1 per wheel notch up and -1 per notch down.
	OnScrolled func(steps int)
}

// NewTappableStack wraps content.
func NewTappableStack(content fyne.CanvasObject) *TappableStack {
	t := &TappableStack{content: content}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TappableStack) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

func (t *TappableStack) Tapped(*fyne.PointEvent) {
	call(t.OnTapped)
}

func (t *TappableStack) TappedSecondary(*fyne.PointEvent) {
	call(t.OnSecondaryTapped)
}

func (t *TappableStack) DoubleTapped(*fyne.PointEvent) {
	call(t.OnDoubleTapped)
}

// Scrolled reports whole wheel notches; trackpad jitter below one notch is dropped.
func (t *TappableStack) Scrolled(ev *fyne.ScrollEvent) {
	if t.OnScrolled == nil || ev == nil {
		return
	}
	const notch = 10
	steps := int(ev.Scrolled.DY / notch)
	if steps == 0 {
		return
	}
	t.OnScrolled(steps)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

var (
	_ fyne.Tappable          = (*TappableStack)(nil)
	_ fyne.SecondaryTappable = (*TappableStack)(nil)
	_ fyne.DoubleTappable    = (*TappableStack)(nil)
	_ fyne.Scrollable        = (*TappableStack)(nil)
)
