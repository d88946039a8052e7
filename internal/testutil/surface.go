package testutil

import (
	"sync"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// RecordingSurface is a ports.Surface that keeps every presented frame.
type RecordingSurface struct {
	mu     sync.Mutex
	frames []domain.RenderFrame
}

// NewRecordingSurface creates an empty recording surface.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

// Present records frame.
func (s *RecordingSurface) Present(frame domain.RenderFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

// Count returns how many frames were presented.
func (s *RecordingSurface) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Last returns the most recent frame, if any.
func (s *RecordingSurface) Last() (domain.RenderFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return domain.RenderFrame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Frames returns a copy of all presented frames.
func (s *RecordingSurface) Frames() []domain.RenderFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RenderFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

var _ ports.Surface = (*RecordingSurface)(nil)
