// Package decoder provides a file-backed implementation of the AudioSource interface.
// Files are decoded in pure Go and played through oto; every frame handed to
// the device is also kept in a ring buffer the visualizer reads from.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// DefaultRingFrames is how many played frames are kept for analysis.
// It has to cover the device buffer plus the largest analysis frame.
const DefaultRingFrames = 1 << 17

// DefaultPlaybackRate is the device rate used when NewSource is given none.
const DefaultPlaybackRate = 44100

// Player is the part of an output device player the source drives.
// *oto.Player satisfies it.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	BufferedSize() int
}

// Output creates players reading stereo 16-bit PCM at sampleRate from r.
type Output func(sampleRate int, r io.Reader) (Player, error)

var (
	otoCtx     *oto.Context
	otoRate    int
	otoOnce    sync.Once
	otoInitErr error
)

// OtoOutput plays through the system audio device. The device is opened on
// first use; oto allows one context per process, so every later player must
// ask for the same rate. Source resamples each track to its playback rate.
func OtoOutput(sampleRate int, r io.Reader) (Player, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: outputChannels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoInitErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if sampleRate != otoRate {
		return nil, fmt.Errorf("device opened at %d Hz, player wants %d Hz: %w", otoRate, sampleRate, domain.ErrUnsupportedFormat)
	}
	return otoCtx.NewPlayer(r), nil
}

// Source plays audio files and serves the played samples as frames.
//
// Thread-safety: This implementation is thread-safe. The output device reads
// from its own goroutine through the tap.
type Source struct {
	logger *slog.Logger
	output Output
	rate   int

	mu     sync.Mutex
	file   *os.File
	tap    *tap
	ring   *sampleRing
	player Player
	track  domain.Track
	loaded bool
	status domain.PlaybackStatus
	volume float64
	closed bool
}

// NewSource creates a source playing at sampleRate; every track is resampled
// to it. A nil output plays through OtoOutput and a rate of zero or less
// means DefaultPlaybackRate.
func NewSource(output Output, sampleRate int, logger *slog.Logger) *Source {
	if output == nil {
		output = OtoOutput
	}
	if sampleRate <= 0 {
		sampleRate = DefaultPlaybackRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		logger: logger.With(slog.String("component", "decoder")),
		output: output,
		rate:   sampleRate,
		volume: 1.0,
	}
}

// Load opens and decodes filePath, replacing any loaded track.
func (s *Source) Load(filePath string) (domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Track{}, domain.ErrAlreadyClosed
	}
	if filePath == "" {
		return domain.Track{}, domain.ErrInvalidFilePath
	}
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Track{}, domain.NewAudioSourceError("load", filePath, "file not found", domain.ErrFileNotFound)
		}
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "cannot stat file", err)
	}
	if err := checkFormat(filePath); err != nil {
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "unsupported format", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "cannot open file", err)
	}
	dec, err := openDecoder(f)
	if err != nil {
		_ = f.Close()
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "cannot decode file", err)
	}

	pcm, err := resample(dec, s.rate)
	if err != nil {
		_ = f.Close()
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "cannot resample file", fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err))
	}

	ring := newSampleRing(DefaultRingFrames, outputChannels)
	t := newTap(pcm, pcm.ChannelCount(), ring)
	player, err := s.output(s.rate, t)
	if err != nil {
		_ = f.Close()
		return domain.Track{}, domain.NewAudioSourceError("load", filePath, "cannot open output", err)
	}

	s.releaseLocked()

	track := readTrackInfo(filePath)
	track.SampleRate = dec.SampleRate()
	track.Channels = dec.ChannelCount()
	if length := dec.Length(); length > 0 && track.SampleRate > 0 {
		frames := length / int64(track.Channels*2)
		track.Duration = time.Duration(frames) * time.Second / time.Duration(track.SampleRate)
	}

	player.SetVolume(s.volume)
	s.file, s.tap, s.ring, s.player = f, t, ring, player
	s.track = track
	s.loaded = true
	s.status = domain.StatusStopped

	s.logger.Info("track loaded",
		slog.String("path", filePath),
		slog.Int("sample_rate", track.SampleRate),
		slog.Int("playback_rate", s.rate),
		slog.Int("channels", track.Channels),
		slog.Duration("duration", track.Duration))

	return track, nil
}

// Track returns the loaded track.
func (s *Source) Track() (domain.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track, s.loaded
}

// Play starts or resumes playback. A finished track starts over.
func (s *Source) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}
	if s.statusLocked() == domain.StatusStopped && s.tap.Ended() {
		if err := s.rewindLocked(); err != nil {
			return domain.NewAudioSourceError("play", s.track.FilePath, "cannot rewind", err)
		}
	}
	s.player.Play()
	s.status = domain.StatusPlaying
	return nil
}

// Pause pauses playback.
func (s *Source) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}
	if s.statusLocked() == domain.StatusPlaying {
		s.player.Pause()
		s.status = domain.StatusPaused
	}
	return nil
}

// Stop stops playback and rewinds to the start.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}
	if err := s.rewindLocked(); err != nil {
		return domain.NewAudioSourceError("stop", s.track.FilePath, "cannot rewind", err)
	}
	s.status = domain.StatusStopped
	return nil
}

// Status returns the playback status. A track that played to its end reports stopped.
func (s *Source) Status() domain.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Position returns the position of the sample currently leaving the device.
func (s *Source) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0
	}
	return time.Duration(s.playedLocked()) * time.Second / time.Duration(s.rate)
}

// PositionMs returns Position in milliseconds.
func (s *Source) PositionMs() int64 {
	return s.Position().Milliseconds()
}

// Duration returns the loaded track's length.
func (s *Source) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Duration
}

// SetVolume sets the output volume.
func (s *Source) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.NewValidationError("volume", volume, "must be between 0.0 and 1.0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	if s.player != nil {
		s.player.SetVolume(volume)
	}
	return nil
}

// Volume returns the output volume.
func (s *Source) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// NextFrame returns the sampleCount frames that most recently left the device.
// It is Empty unless playing, and until enough audio has been played.
func (s *Source) NextFrame(sampleCount int) (domain.AudioFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded || sampleCount <= 0 || s.statusLocked() != domain.StatusPlaying {
		return domain.AudioFrame{}, false
	}

	samples := make([]float64, sampleCount*outputChannels)
	if !s.ring.ReadAt(samples, s.playedLocked(), sampleCount) {
		return domain.AudioFrame{}, false
	}
	return domain.NewAudioFrame(samples, outputChannels, s.rate), true
}

// Close stops playback and releases the file.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrAlreadyClosed
	}
	s.closed = true
	s.releaseLocked()
	s.loaded = false
	s.status = domain.StatusStopped
	return nil
}

func (s *Source) statusLocked() domain.PlaybackStatus {
	if s.status == domain.StatusPlaying && s.tap.Ended() && !s.player.IsPlaying() {
		s.status = domain.StatusStopped
	}
	return s.status
}

// playedLocked is the absolute ring index of the next frame the device will play.
func (s *Source) playedLocked() int64 {
	return max(s.tap.Frames()-int64(s.player.BufferedSize()/outputFrameBytes), 0)
}

// rewindLocked seeks to the start. The device player is replaced so nothing
// it buffered from the old position is heard.
func (s *Source) rewindLocked() error {
	s.player.Pause()
	if err := s.tap.Rewind(); err != nil {
		return err
	}
	player, err := s.output(s.rate, s.tap)
	if err != nil {
		return err
	}
	player.SetVolume(s.volume)
	s.player = player
	return nil
}

func (s *Source) releaseLocked() {
	if s.player != nil {
		s.player.Pause()
		s.player = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			s.logger.Warn("failed to close audio file", slog.Any("error", err))
		}
		s.file = nil
	}
	s.tap = nil
	s.ring = nil
}

// Verify that Source implements the AudioSource interface
var _ ports.AudioSource = (*Source)(nil)
