// Package fyne provides Fyne UI adapter implementations.
// This package implements the desktop host using the Fyne toolkit.
package fyne

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/audio/decoder"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
	"github.com/tbrumbaugh5396/music-visualizer/internal/service"
)

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates
// - Translate UI commands to service method calls
//
// Thread-safety: All operations are thread-safe.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	visualizer        *service.VisualizerService
	playbackService   *service.PlaybackService
	preferenceService *service.PreferenceService

	bus  ports.EventBus
	view ports.UI

	// Concurrency control
	mu           sync.Mutex
	subs         []domain.SubscriptionID
	shutdownOnce sync.Once

	// Progress display, guarded by mu
	duration    time.Duration
	shownSecond time.Duration
}

// NewPresenter creates a new presenter and syncs the view with the services.
func NewPresenter(
	logger *slog.Logger,
	visualizer *service.VisualizerService,
	playbackService *service.PlaybackService,
	preferenceService *service.PreferenceService,
	bus ports.EventBus,
	view ports.UI,
) *Presenter {
	p := &Presenter{
		logger:            logger.With(slog.String("component", "presenter")),
		visualizer:        visualizer,
		playbackService:   playbackService,
		preferenceService: preferenceService,
		bus:               bus,
		view:              view,
		shownSecond:       -1,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Playback events
		domain.EventTrackLoaded:  p.onTrackLoaded,
		domain.EventTrackStarted: p.onTrackStarted,
		domain.EventTrackPaused:  p.onTrackPaused,
		domain.EventTrackStopped: p.onTrackStopped,
		domain.EventTrackError:   p.onTrackError,

		// Volume events
		domain.EventVolumeChanged: p.onVolumeChanged,

		// Visualizer events
		domain.EventModeChanged:  p.onModeChanged,
		domain.EventThemeChanged: p.onThemeChanged,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.bus.Subscribe(eventType, handler))
	}
}

// syncInitialState makes the view reflect the services' current state.
func (p *Presenter) syncInitialState() {
	p.view.SetMode(p.visualizer.Mode())
	p.view.SetColorTheme(p.visualizer.ColorTheme())

	if p.playbackService == nil {
		return
	}
	p.view.SetVolume(p.playbackService.Volume())
	if track, ok := p.playbackService.Track(); ok {
		p.view.SetTrackInfo(track)
		p.resetProgress(track.Duration, p.playbackService.Position())
	}
	p.view.SetPlayState(p.playbackService.Status() == domain.StatusPlaying)
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	p.view.SetTrackInfo(e.Track)
	p.resetProgress(e.Track.Duration, 0)
}

func (p *Presenter) onTrackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onTrackPaused(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onTrackStopped(domain.Event) {
	p.view.SetPlayState(false)
	p.mu.Lock()
	duration := p.duration
	p.mu.Unlock()
	p.resetProgress(duration, 0)
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}
	p.view.ShowError("Playback Error", describeError(e.Path, e.Error))
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	p.view.SetVolume(e.Volume)
}

func (p *Presenter) onModeChanged(event domain.Event) {
	e, ok := event.(domain.ModeChangedEvent)
	if !ok {
		return
	}
	p.view.SetMode(e.Mode)
}

func (p *Presenter) onThemeChanged(event domain.Event) {
	e, ok := event.(domain.ThemeChangedEvent)
	if !ok {
		return
	}
	p.view.SetColorTheme(e.Theme)
}

// resetProgress shows position right away, whatever second was shown before.
func (p *Presenter) resetProgress(duration, position time.Duration) {
	p.mu.Lock()
	p.duration = duration
	p.shownSecond = position.Truncate(time.Second)
	p.mu.Unlock()
	p.view.SetProgress(position, duration)
}

// Present forwards frame to the view. The progress display follows the
// frame's position and only moves when the shown second changes.
func (p *Presenter) Present(frame domain.RenderFrame) {
	p.view.Present(frame)

	second := frame.Position.Truncate(time.Second)
	p.mu.Lock()
	changed := second != p.shownSecond
	p.shownSecond = second
	duration := p.duration
	p.mu.Unlock()

	if changed {
		p.view.SetProgress(frame.Position, duration)
	}
}

// describeError turns common failures into a sentence for the user.
func describeError(path string, err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return fmt.Sprintf("%s is not a supported audio file (mp3, wav, ogg, flac).", path)
	case errors.Is(err, domain.ErrFileNotFound):
		return fmt.Sprintf("%s could not be found.", path)
	default:
		return err.Error()
	}
}

// UI command handlers

// OnFileOpened loads path and starts playing it.
func (p *Presenter) OnFileOpened(path string) error {
	if p.playbackService == nil {
		return domain.ErrNotInitialized
	}
	if _, err := p.playbackService.LoadTrack(path); err != nil {
		// The error event already reached the view
		return err
	}
	return p.playbackService.Play()
}

// OnFolderOpened plays the first supported file in dir.
func (p *Presenter) OnFolderOpened(dir string) error {
	path, err := decoder.FirstSupported(dir)
	if err != nil {
		p.view.ShowError("Open Folder", describeError(dir, err))
		return err
	}
	return p.OnFileOpened(path)
}

// OnPlayPauseClicked toggles playback.
func (p *Presenter) OnPlayPauseClicked() {
	if p.playbackService == nil {
		return
	}
	if err := p.playbackService.TogglePlayPause(); err != nil {
		if errors.Is(err, domain.ErrNoTrackLoaded) {
			p.view.ShowError("Nothing to play", "Open an audio file first.")
			return
		}
		p.logger.Warn("failed to toggle playback", slog.Any("error", err))
	}
}

// OnStopClicked stops playback.
func (p *Presenter) OnStopClicked() {
	if p.playbackService == nil {
		return
	}
	if err := p.playbackService.Stop(); err != nil {
		p.logger.Warn("failed to stop playback", slog.Any("error", err))
	}
}

// OnVolumeChanged sets the volume from a 0-100 slider value.
func (p *Presenter) OnVolumeChanged(percent float64) {
	if p.playbackService == nil {
		return
	}
	if err := p.playbackService.SetVolume(percent / 100.0); err != nil {
		p.logger.Warn("failed to set volume", slog.Float64("percent", percent), slog.Any("error", err))
	}
}

// OnModeSelected switches to the mode with the given display or config name.
func (p *Presenter) OnModeSelected(name string) {
	mode, ok := modeByDisplayName(name)
	if !ok {
		var err error
		if mode, err = domain.ParseMode(name); err != nil {
			p.view.ShowError("Visualization", err.Error())
			return
		}
	}
	if err := p.visualizer.SetMode(mode); err != nil {
		p.view.ShowError("Visualization", err.Error())
	}
}

// OnCycleMode advances to the next visualization mode.
func (p *Presenter) OnCycleMode() {
	p.visualizer.CycleMode()
}

// OnCycleColors advances to the next color theme.
func (p *Presenter) OnCycleColors() {
	p.visualizer.CycleColorTheme()
}

// OnViewportChanged hands the drawable size to the pipeline.
func (p *Presenter) OnViewportChanged(vp domain.Viewport) {
	p.visualizer.SetViewport(vp)
}

// OnFullscreenToggled remembers the fullscreen state.
func (p *Presenter) OnFullscreenToggled(enabled bool) {
	if p.preferenceService == nil {
		return
	}
	if err := p.preferenceService.SetFullscreen(enabled); err != nil {
		p.logger.Warn("failed to save fullscreen state", slog.Any("error", err))
	}
}

// Shutdown unsubscribes from the event bus. It is safe to call more than once.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()

		for _, id := range subs {
			p.bus.Unsubscribe(id)
		}
	})
}

// modeNames returns the display names offered in the mode picker.
func modeNames() []string {
	modes := domain.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.DisplayName()
	}
	return names
}

func modeByDisplayName(name string) (domain.VisualizationMode, bool) {
	for _, m := range domain.Modes() {
		if m.DisplayName() == name {
			return m, true
		}
	}
	return "", false
}

// Verify ports.Surface implementation
var _ ports.Surface = (*Presenter)(nil)
