package widgets

import "sync"

// Rotator scrolls text that is too long for its label one rune at a time.
// It is safe for concurrent use.
type Rotator struct {
	mu    sync.Mutex
	runes []rune
	len   int
}

// NewRotator creates a rotator for text shown in maxLength runes.
func NewRotator(text string, maxLength int) *Rotator {
	r := &Rotator{len: maxLength}
	r.SetText(text)
	return r
}

// SetText replaces the scrolled text and starts from its beginning.
func (r *Rotator) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runes = []rune("    " + text)
}

// Text returns the current window of the text.
func (r *Rotator) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.runes)
}

// Rotate moves the first rune to the end and returns the result.
// Text that fits is returned unchanged.
func (r *Rotator) Rotate() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.runes) <= r.len {
		return string(r.runes)
	}
	r.runes = append(r.runes[1:], r.runes[0])
	return string(r.runes)
}
