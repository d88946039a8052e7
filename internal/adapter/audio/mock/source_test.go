package mock

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/testutil"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSource(clock *fakeClock, signal Signal) *Source {
	return NewSource(Config{SampleRate: 8000, Channels: 2, Signal: signal, Clock: clock.Now})
}

// TestNewSource tests the defaults of a new source.
func TestNewSource(t *testing.T) {
	src := NewSource(Config{})

	if src.sampleRate != 44100 || src.channels != 2 {
		t.Errorf("Expected 44100 Hz stereo, got %d Hz, %d channels", src.sampleRate, src.channels)
	}
	if src.Status() != domain.StatusStopped {
		t.Errorf("Expected stopped, got %v", src.Status())
	}
	if _, ok := src.Track(); ok {
		t.Error("New source should have no track")
	}
	if src.Volume() != 1.0 {
		t.Errorf("Expected volume 1.0, got %f", src.Volume())
	}
}

// TestLoad tests loading a track.
func TestLoad(t *testing.T) {
	src := newTestSource(newFakeClock(), Silence())

	track, err := src.Load("/music/Artist - Song.FLAC")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if track.Title != "Artist - Song" {
		t.Errorf("Expected title from file name, got %q", track.Title)
	}
	if track.Format != "flac" {
		t.Errorf("Expected format flac, got %q", track.Format)
	}
	if track.SampleRate != 8000 || track.Channels != 2 {
		t.Errorf("Unexpected track layout: %+v", track)
	}

	if _, err := src.Load(""); !errors.Is(err, domain.ErrInvalidFilePath) {
		t.Errorf("Expected ErrInvalidFilePath, got %v", err)
	}

	src.SetFailLoad(true)
	_, err = src.Load("/music/other.mp3")
	var srcErr *domain.AudioSourceError
	if !errors.As(err, &srcErr) {
		t.Errorf("Expected AudioSourceError, got %v", err)
	}
}

// TestPlaybackControl tests play, pause and stop without a track and with one.
func TestPlaybackControl(t *testing.T) {
	clock := newFakeClock()
	src := newTestSource(clock, Silence())

	if err := src.Play(); !errors.Is(err, domain.ErrNoTrackLoaded) {
		t.Errorf("Expected ErrNoTrackLoaded, got %v", err)
	}

	if _, err := src.Load("/music/song.mp3"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := src.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	clock.Advance(1500 * time.Millisecond)

	if src.Status() != domain.StatusPlaying {
		t.Errorf("Expected playing, got %v", src.Status())
	}
	if src.PositionMs() != 1500 {
		t.Errorf("Expected position 1500ms, got %d", src.PositionMs())
	}

	if err := src.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	clock.Advance(time.Second)
	if src.PositionMs() != 1500 {
		t.Errorf("Position should not advance while paused, got %d", src.PositionMs())
	}

	if err := src.Play(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	clock.Advance(500 * time.Millisecond)
	if src.PositionMs() != 2000 {
		t.Errorf("Expected position 2000ms after resume, got %d", src.PositionMs())
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if src.Position() != 0 {
		t.Errorf("Stop should rewind, got %v", src.Position())
	}

	src.SetFailPlay(true)
	if err := src.Play(); err == nil {
		t.Error("Expected Play to fail")
	}
}

// TestFiniteTrackStops tests that a track with a duration stops at its end.
func TestFiniteTrackStops(t *testing.T) {
	clock := newFakeClock()
	src := NewSource(Config{Duration: 2 * time.Second, Signal: Silence(), Clock: clock.Now})

	if _, err := src.Load("/music/short.wav"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := src.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	src.SimulateProgress(3 * time.Second)
	if src.Status() != domain.StatusStopped {
		t.Errorf("Expected stopped after the end, got %v", src.Status())
	}
	if _, ok := src.NextFrame(256); ok {
		t.Error("Stopped source should return Empty")
	}
}

// TestNextFrame tests generated frames.
func TestNextFrame(t *testing.T) {
	clock := newFakeClock()
	src := newTestSource(clock, Sine(1000, 0.5))

	if _, ok := src.NextFrame(256); ok {
		t.Error("Source without a track should return Empty")
	}

	if _, err := src.Load("/music/tone.wav"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := src.NextFrame(256); ok {
		t.Error("Stopped source should return Empty")
	}

	if err := src.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	clock.Advance(time.Second)

	frame, ok := src.NextFrame(256)
	if !ok {
		t.Fatal("Playing source should return a frame")
	}
	if !frame.Conforms(256) {
		t.Errorf("Frame does not conform: len=%d channels=%d", frame.Len(), frame.Channels)
	}

	var peak float64
	for i := 0; i < frame.Len(); i++ {
		left, right := frame.Samples[2*i], frame.Samples[2*i+1]
		if left != right {
			t.Fatalf("Channels differ at %d: %f != %f", i, left, right)
		}
		peak = math.Max(peak, math.Abs(left))
	}
	if peak > 0.5+1e-9 || peak < 0.45 {
		t.Errorf("Expected peak near 0.5, got %f", peak)
	}

	if err := src.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if _, ok := src.NextFrame(256); ok {
		t.Error("Paused source should return Empty")
	}
	if src.Pulls() != 4 {
		t.Errorf("Expected 4 pulls, got %d", src.Pulls())
	}
}

// TestEnqueue tests scripted frames.
func TestEnqueue(t *testing.T) {
	src := newTestSource(newFakeClock(), Silence())

	scripted := domain.NewAudioFrame([]float64{0.1, 0.2, 0.3, 0.4}, 1, 8000)
	src.Enqueue(scripted, domain.AudioFrame{})

	frame, ok := src.NextFrame(4)
	if !ok || len(frame.Samples) != 4 || frame.Samples[2] != 0.3 {
		t.Errorf("Expected the scripted frame, got %+v (ok=%v)", frame, ok)
	}
	if _, ok := src.NextFrame(4); ok {
		t.Error("A zero frame in the script should be served as Empty")
	}
	if _, ok := src.NextFrame(4); ok {
		t.Error("Drained script on a stopped source should be Empty")
	}
}

// TestDemoSource tests the demo signal.
func TestDemoSource(t *testing.T) {
	src := NewDemoSource(44100)

	track, ok := src.Track()
	if !ok || track.Title == "" {
		t.Fatalf("Demo source should have a track, got %+v", track)
	}
	if err := src.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	frame, ok := src.NextFrame(1024)
	if !ok {
		t.Fatal("Demo source should produce frames")
	}
	for i, v := range frame.Samples {
		if math.IsNaN(v) || math.Abs(v) > 1 {
			t.Fatalf("Sample %d out of range: %f", i, v)
		}
	}
}

// TestSetVolume tests volume validation.
func TestSetVolume(t *testing.T) {
	src := NewSource(Config{})

	if err := src.SetVolume(0.25); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if src.Volume() != 0.25 {
		t.Errorf("Expected 0.25, got %f", src.Volume())
	}

	for _, v := range []float64{-0.1, 1.1, math.NaN()} {
		if err := src.SetVolume(v); !errors.Is(err, domain.ErrInvalidVolume) {
			t.Errorf("SetVolume(%v): expected ErrInvalidVolume, got %v", v, err)
		}
	}
	if src.Volume() != 0.25 {
		t.Errorf("Invalid volume should be ignored, got %f", src.Volume())
	}
}

// TestClose tests closing the source.
func TestClose(t *testing.T) {
	src := NewSource(Config{})

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Close(); !errors.Is(err, domain.ErrAlreadyClosed) {
		t.Errorf("Expected ErrAlreadyClosed, got %v", err)
	}
	if _, err := src.Load("/music/song.mp3"); !errors.Is(err, domain.ErrAlreadyClosed) {
		t.Errorf("Expected ErrAlreadyClosed on load, got %v", err)
	}
}

// TestConcurrentAccess tests pulling frames while controlling playback.
func TestConcurrentAccess(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	src := NewDemoSource(44100)
	_ = src.Play()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				src.NextFrame(512)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = src.Pause()
				_ = src.Play()
				_ = src.Position()
			}
		}()
	}
	wg.Wait()
}
