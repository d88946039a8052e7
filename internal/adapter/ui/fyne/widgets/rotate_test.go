package widgets

import (
	"testing"

	"fyne.io/fyne/v2"
)

func TestRotator(t *testing.T) {
	r := NewRotator("abc", 20)
	if got := r.Rotate(); got != "    abc" {
		t.Errorf("short text should not rotate, got %q", got)
	}

	r = NewRotator("héllo", 4)
	want := []string{"   héllo ", "  héllo  ", " héllo   ", "héllo    ", "éllo    h"}
	for i, w := range want {
		if got := r.Rotate(); got != w {
			t.Errorf("step %d: expected %q, got %q", i, w, got)
		}
	}

	r.SetText("new")
	if got := r.Text(); got != "    new" {
		t.Errorf("SetText should restart, got %q", got)
	}
}

func TestTappableStack(t *testing.T) {
	taps, secondary, double := 0, 0, 0
	var scrolled []int

	s := NewTappableStack(nil)
	s.OnTapped = func() { taps++ }
	s.OnSecondaryTapped = func() { secondary++ }
	s.OnDoubleTapped = func() { double++ }
	s.OnScrolled = func(steps int) { scrolled = append(scrolled, steps) }

	s.Tapped(nil)
	s.Tapped(nil)
	s.TappedSecondary(nil)
	s.DoubleTapped(nil)

	if taps != 2 || secondary != 1 || double != 1 {
		t.Errorf("expected 2/1/1 taps, got %d/%d/%d", taps, secondary, double)
	}

	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 20}})
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 3}})
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -10}})
	if len(scrolled) != 2 || scrolled[0] != 2 || scrolled[1] != -1 {
		t.Errorf("expected [2 -1], got %v", scrolled)
	}

	// Unset handlers are ignored
	empty := NewTappableStack(nil)
	empty.Tapped(nil)
	empty.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 10}})
}
