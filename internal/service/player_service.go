package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// PlaybackService orchestrates playback of the track feeding the visualizer.
// All operations are thread-safe via sync.RWMutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger *slog.Logger
	source ports.AudioSource
	bus    ports.EventBus

	// State
	track          domain.Track
	loaded         bool
	updateInterval time.Duration

	// Concurrency control
	mu            sync.RWMutex
	stopUpdate    chan struct{}
	updateRunning bool
	updateWg      sync.WaitGroup // WaitGroup to wait for update goroutine to exit
	manualStop    bool           // True if the user explicitly stopped playback
	hasPlayed     bool           // True if the current track has been played
}

// NewPlaybackService creates a new playback service and starts watching for
// the end of the track.
func NewPlaybackService(
	logger *slog.Logger,
	source ports.AudioSource,
	bus ports.EventBus,
) *PlaybackService {
	service := &PlaybackService{
		logger:         logger.With(slog.String("service", "playback")),
		source:         source,
		bus:            bus,
		updateInterval: 250 * time.Millisecond,
		stopUpdate:     make(chan struct{}),
	}

	// Pick up a track the source already holds, like the demo signal
	if track, ok := source.Track(); ok {
		service.track = track
		service.loaded = true
	}

	logger.Debug("playback service initialized")

	service.startUpdateRoutine()

	return service
}

// LoadTrack loads a file for playback, replacing the current track.
func (s *PlaybackService) LoadTrack(path string) (domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("loading track", slog.String("path", path))

	track, err := s.source.Load(path)
	if err != nil {
		s.logger.Error("failed to load track", slog.String("path", path), slog.Any("error", err))
		s.bus.Publish(domain.NewTrackErrorEvent(path, err))
		return domain.Track{}, err
	}

	s.track = track
	s.loaded = true
	s.hasPlayed = false
	s.manualStop = false

	s.bus.Publish(domain.NewTrackLoadedEvent(track))

	s.logger.Info("track loaded",
		slog.String("title", track.Title),
		slog.Duration("duration", track.Duration))

	return track, nil
}

// Play starts or resumes playback.
func (s *PlaybackService) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}

	if err := s.source.Play(); err != nil {
		s.bus.Publish(domain.NewTrackErrorEvent(s.track.FilePath, err))
		return err
	}

	s.manualStop = false
	s.hasPlayed = true
	s.bus.Publish(domain.NewTrackStartedEvent(s.track))

	s.logger.Debug("playback started", slog.String("title", s.track.Title))
	return nil
}

// Pause pauses playback, keeping the position.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.ErrNoTrackLoaded
	}

	if err := s.source.Pause(); err != nil {
		return err
	}

	s.bus.Publish(domain.NewTrackPausedEvent(s.track, s.source.Position()))
	return nil
}

// TogglePlayPause pauses a playing track and plays anything else.
func (s *PlaybackService) TogglePlayPause() error {
	if s.Status() == domain.StatusPlaying {
		return s.Pause()
	}
	return s.Play()
}

// Stop stops playback and rewinds.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopInternal()
}

// stopInternal stops playback without acquiring the lock.
// Caller must hold the write lock.
func (s *PlaybackService) stopInternal() error {
	if !s.loaded {
		return nil
	}

	s.manualStop = true
	if err := s.source.Stop(); err != nil {
		s.logger.Warn("failed to stop track", slog.Any("error", err))
		return err
	}

	s.bus.Publish(domain.NewTrackStoppedEvent(s.track))
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (s *PlaybackService) SetVolume(volume float64) error {
	if err := s.source.SetVolume(volume); err != nil {
		return err
	}
	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// Volume returns the current volume level.
func (s *PlaybackService) Volume() float64 {
	return s.source.Volume()
}

// Status returns the playback status.
func (s *PlaybackService) Status() domain.PlaybackStatus {
	return s.source.Status()
}

// Position returns the playback position.
func (s *PlaybackService) Position() time.Duration {
	return s.source.Position()
}

// Track returns the loaded track.
func (s *PlaybackService) Track() (domain.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track, s.loaded
}

// Shutdown stops playback and cleans up resources.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()

	// Stop update routine
	if s.updateRunning {
		close(s.stopUpdate)
		s.updateRunning = false
	}

	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	s.mu.Unlock()

	s.updateWg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopInternal()
}

// startUpdateRoutine starts a goroutine that notices when a track plays to its end.
func (s *PlaybackService) startUpdateRoutine() {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		return
	}
	s.updateRunning = true
	s.updateWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.updateWg.Done()
		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopUpdate:
				return

			case <-ticker.C:
				s.checkFinished()
			}
		}
	}()
}

// checkFinished publishes a stop event once for a track that ran out on its own.
func (s *PlaybackService) checkFinished() {
	s.mu.Lock()
	if !s.loaded || !s.hasPlayed || s.manualStop || s.source.Status() != domain.StatusStopped {
		s.mu.Unlock()
		return
	}
	s.hasPlayed = false
	track := s.track
	s.mu.Unlock()

	s.logger.Debug("track finished", slog.String("title", track.Title))
	s.bus.Publish(domain.NewTrackStoppedEvent(track))
}

// Verify that PlaybackService implements the expected interface patterns
var _ interface {
	LoadTrack(string) (domain.Track, error)
	Play() error
	Pause() error
	TogglePlayPause() error
	Stop() error
	SetVolume(float64) error
	Volume() float64
	Status() domain.PlaybackStatus
	Shutdown() error
} = (*PlaybackService)(nil)
