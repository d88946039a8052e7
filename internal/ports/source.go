// Package ports define interfaces for dependency inversion.
// These interfaces allow the visualization pipeline to remain independent of audio and UI libraries.
package ports

import (
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// FrameSource supplies the pipeline with audio on each tick.
// It is pulled, never pushed: the pipeline asks for exactly the samples it needs.
//
// Implementations must be thread-safe: the scheduler goroutine pulls frames while
// the UI goroutine drives playback.
type FrameSource interface {
	// NextFrame returns the most recent sampleCount sample frames at the current
	// playback position.
	//
	// The second return value is false ("Empty") when playback is stopped or paused,
	// or when not enough audio has been decoded yet. NextFrame must never block.
	NextFrame(sampleCount int) (domain.AudioFrame, bool)

	// PositionMs returns the current playback position in milliseconds.
	PositionMs() int64
}

// AudioSource is a FrameSource that also owns playback of a loaded track.
// This abstracts the decoder and output libraries and allows testing with a synthetic source.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioSource interface {
	FrameSource

	// Track loading methods

	// Load opens an audio file and prepares it for playback.
	// Any previously loaded track is stopped and released.
	//
	// filePath: Path to the audio file
	//
	// Returns the track metadata, or an error wrapping domain.ErrFileNotFound,
	// domain.ErrUnsupportedFormat or a decoder failure.
	Load(filePath string) (domain.Track, error)

	// Track returns the currently loaded track, if any.
	Track() (domain.Track, bool)

	// Playback control methods

	// Play starts or resumes playback of the loaded track.
	//
	// Returns domain.ErrNoTrackLoaded if nothing is loaded.
	Play() error

	// Pause pauses playback. The playback position is preserved.
	Pause() error

	// Stop stops playback and rewinds to the beginning of the track.
	Stop() error

	// Status returns the current playback status.
	Status() domain.PlaybackStatus

	// Position returns the current playback position.
	Position() time.Duration

	// Duration returns the total duration of the loaded track (zero if unknown).
	Duration() time.Duration

	// Volume control methods

	// SetVolume sets the playback volume from 0.0 (silent) to 1.0 (full volume).
	//
	// Returns an error wrapping domain.ErrInvalidVolume when out of range.
	SetVolume(volume float64) error

	// Volume returns the current volume level.
	Volume() float64

	// Lifecycle

	// Close stops playback and releases all resources.
	Close() error
}
