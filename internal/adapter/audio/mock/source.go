// Package mock provides a synthetic implementation of the AudioSource interface.
// This is used for testing services and for the demo mode, without decoding files or opening an audio device.
package mock

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// Signal returns the amplitude of a synthetic waveform at t seconds.
type Signal func(t float64) float64

// Sine returns a pure tone.
func Sine(freq, amplitude float64) Signal {
	return func(t float64) float64 {
		return amplitude * math.Sin(2*math.Pi*freq*t)
	}
}

// Silence returns a signal that is always zero.
func Silence() Signal {
	return func(float64) float64 { return 0 }
}

// Demo returns a 440/880/1320 Hz mixture with a little noise.
// The noise generator is seeded so repeated runs produce the same audio.
func Demo() Signal {
	rng := rand.New(rand.NewPCG(0x6d75, 0x7669))
	return func(t float64) float64 {
		v := 0.5*math.Sin(2*math.Pi*440*t) +
			0.3*math.Sin(2*math.Pi*880*t) +
			0.2*math.Sin(2*math.Pi*1320*t)
		v *= 0.8
		return v + 0.05*(rng.Float64()*2-1)
	}
}

// Config configures a synthetic source.
type Config struct {
	// SampleRate of generated frames in Hz. Default: 44100.
	SampleRate int

	// Channels of generated frames. Default: 2.
	Channels int

	// Signal to generate. Default: Demo().
	Signal Signal

	// Duration of tracks returned by Load. Zero means endless.
	Duration time.Duration

	// Clock drives the playback position. Default: time.Now.
	Clock func() time.Time
}

// Source is a synthetic AudioSource.
// It generates its signal at the current playback position, or serves
// frames queued with Enqueue first.
//
// Thread-safety: This implementation is thread-safe.
type Source struct {
	mu sync.Mutex

	sampleRate int
	channels   int
	signal     Signal
	duration   time.Duration
	clock      func() time.Time

	track   domain.Track
	loaded  bool
	status  domain.PlaybackStatus
	volume  float64
	closed  bool
	started time.Time
	offset  time.Duration

	script []domain.AudioFrame
	pulls  int

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
}

// NewSource creates a synthetic source.
func NewSource(cfg Config) *Source {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.Signal == nil {
		cfg.Signal = Demo()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Source{
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		signal:     cfg.Signal,
		duration:   cfg.Duration,
		clock:      cfg.Clock,
		volume:     1.0,
	}
}

// NewDemoSource returns a source with an endless demo track loaded.
func NewDemoSource(sampleRate int) *Source {
	s := NewSource(Config{SampleRate: sampleRate, Signal: Demo()})
	s.track = domain.Track{
		Title:      "Demo Signal",
		Format:     "synth",
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}
	s.loaded = true
	return s
}

// SetFailLoad configures the source to fail loading tracks (for testing).
func (s *Source) SetFailLoad(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad = fail
}

// SetFailPlay configures the source to fail playback (for testing).
func (s *Source) SetFailPlay(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPlay = fail
}

// Enqueue queues frames to be returned by NextFrame before any generated audio.
// A zero AudioFrame in the queue is served as an Empty pull. Queued frames are
// served regardless of playback status.
func (s *Source) Enqueue(frames ...domain.AudioFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, frames...)
}

// Pulls returns how many times NextFrame has been called (for testing).
func (s *Source) Pulls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

// Load pretends to open filePath. Nothing is read from disk.
func (s *Source) Load(filePath string) (domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Track{}, domain.ErrAlreadyClosed
	}
	if filePath == "" {
		return domain.Track{}, domain.ErrInvalidFilePath
	}
	if s.failLoad {
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "mock load failed", nil)
	}

	base := filepath.Base(filePath)
	ext := filepath.Ext(base)

	s.track = domain.Track{
		FilePath:   filePath,
		Title:      strings.TrimSuffix(base, ext),
		Artist:     "Mock Artist",
		Album:      "Mock Album",
		Format:     strings.TrimPrefix(strings.ToLower(ext), "."),
		Duration:   s.duration,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}
	s.loaded = true
	s.status = domain.StatusStopped
	s.offset = 0
	return s.track, nil
}

// Track returns the loaded track.
func (s *Source) Track() (domain.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track, s.loaded
}

// Play starts or resumes playback.
func (s *Source) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}
	if s.failPlay {
		return domain.NewAudioSourceError("play", s.track.FilePath, "mock playback failed", nil)
	}
	if s.status == domain.StatusPlaying {
		return nil
	}
	s.status = domain.StatusPlaying
	s.started = s.clock()
	return nil
}

// Pause pauses playback, keeping the position.
func (s *Source) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}
	if s.status == domain.StatusPlaying {
		s.offset = s.positionLocked()
		s.status = domain.StatusPaused
	}
	return nil
}

// Stop stops playback and rewinds.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}
	s.status = domain.StatusStopped
	s.offset = 0
	return nil
}

// Status returns the playback status.
func (s *Source) Status() domain.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkEndLocked()
	return s.status
}

// Position returns the playback position.
func (s *Source) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkEndLocked()
	return s.positionLocked()
}

// PositionMs returns the playback position in milliseconds.
func (s *Source) PositionMs() int64 {
	return s.Position().Milliseconds()
}

// Duration returns the loaded track's duration.
func (s *Source) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Duration
}

// SetVolume sets the volume.
func (s *Source) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.NewValidationError("volume", volume, "must be between 0.0 and 1.0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	return nil
}

// Volume returns the volume.
func (s *Source) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Close stops playback. Further loads fail.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrAlreadyClosed
	}
	s.closed = true
	s.status = domain.StatusStopped
	return nil
}

// NextFrame returns sampleCount frames of the signal ending at the current position.
func (s *Source) NextFrame(sampleCount int) (domain.AudioFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulls++

	if len(s.script) > 0 {
		f := s.script[0]
		s.script = s.script[1:]
		return f, !f.IsEmpty()
	}

	s.checkEndLocked()
	if sampleCount <= 0 || s.status != domain.StatusPlaying {
		return domain.AudioFrame{}, false
	}

	end := s.positionLocked().Seconds()
	dt := 1 / float64(s.sampleRate)
	start := end - float64(sampleCount)*dt

	samples := make([]float64, sampleCount*s.channels)
	for i := 0; i < sampleCount; i++ {
		v := s.signal(start + float64(i)*dt)
		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = v
		}
	}
	return domain.NewAudioFrame(samples, s.channels, s.sampleRate), true
}

// SimulateProgress advances the position by delta (for testing).
func (s *Source) SimulateProgress(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += delta
	s.checkEndLocked()
}

func (s *Source) positionLocked() time.Duration {
	pos := s.offset
	if s.status == domain.StatusPlaying {
		pos += s.clock().Sub(s.started)
	}
	return pos
}

// checkEndLocked stops a finite track once its end has been reached.
func (s *Source) checkEndLocked() {
	if s.track.Duration <= 0 || s.status != domain.StatusPlaying {
		return
	}
	if s.positionLocked() >= s.track.Duration {
		s.status = domain.StatusStopped
		s.offset = 0
	}
}

// Verify that Source implements the AudioSource interface
var _ ports.AudioSource = (*Source)(nil)
