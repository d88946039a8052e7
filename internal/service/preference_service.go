package service

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// maxRecentFiles bounds the recent files list kept in memory.
const maxRecentFiles = 10

// Preferences is a snapshot of the saved settings.
type Preferences struct {
	Mode        domain.VisualizationMode
	Theme       domain.ColorTheme
	RefreshMs   int // 0 when never saved
	Volume      float64
	Fullscreen  bool
	RecentFiles []string
}

// PreferenceService keeps the user's settings and persists them as they change.
// It listens on the event bus, so the services publishing the changes never
// talk to the repository themselves.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	prefs Preferences
	subs  []domain.SubscriptionID

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service, loads the saved
// settings and starts persisting changes published on bus.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	service := &PreferenceService{
		logger:     logger.With(slog.String("service", "preferences")),
		repository: repository,
		bus:        bus,
		prefs:      defaultPreferences(),
	}

	service.loadPreferences()

	if bus != nil {
		service.subs = []domain.SubscriptionID{
			bus.Subscribe(domain.EventModeChanged, service.onModeChanged),
			bus.Subscribe(domain.EventThemeChanged, service.onThemeChanged),
			bus.Subscribe(domain.EventRefreshChanged, service.onRefreshChanged),
			bus.Subscribe(domain.EventVolumeChanged, service.onVolumeChanged),
			bus.SubscribeFiltered(domain.EventTrackLoaded, fromFile, service.onTrackLoaded),
		}
	}

	logger.Debug("preference service initialized")

	return service
}

func defaultPreferences() Preferences {
	return Preferences{
		Mode:        domain.ModeSpectrum,
		Theme:       domain.ThemeCyan,
		Volume:      1.0,
		RecentFiles: []string{},
	}
}

// loadPreferences loads all preferences from the repository into the cache.
// A value that fails to load keeps its default.
func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode, err := s.repository.LoadMode(); err == nil {
		s.prefs.Mode = mode
	} else {
		s.logger.Warn("ignoring saved mode", slog.Any("error", err))
	}
	if theme, err := s.repository.LoadColorTheme(); err == nil {
		s.prefs.Theme = theme
	} else {
		s.logger.Warn("ignoring saved color theme", slog.Any("error", err))
	}
	if ms, err := s.repository.LoadRefreshInterval(); err == nil {
		s.prefs.RefreshMs = ms
	}
	if vol, err := s.repository.LoadVolume(); err == nil {
		s.prefs.Volume = vol
	}
	if fs, err := s.repository.LoadFullscreen(); err == nil {
		s.prefs.Fullscreen = fs
	}
	if recent, err := s.repository.LoadRecentFiles(); err == nil {
		s.prefs.RecentFiles = recent
	} else {
		s.logger.Warn("ignoring saved recent files", slog.Any("error", err))
	}
}

// Get returns a copy of the cached preferences.
func (s *PreferenceService) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.prefs
	p.RecentFiles = slices.Clone(s.prefs.RecentFiles)
	return p
}

// SetFullscreen saves the fullscreen state.
func (s *PreferenceService) SetFullscreen(enabled bool) error {
	s.mu.Lock()
	s.prefs.Fullscreen = enabled
	s.mu.Unlock()

	return s.repository.SaveFullscreen(enabled)
}

// AddRecentFile moves path to the front of the recent files list.
func (s *PreferenceService) AddRecentFile(path string) error {
	if path == "" {
		return domain.ErrInvalidFilePath
	}

	s.mu.Lock()
	recent := slices.DeleteFunc(slices.Clone(s.prefs.RecentFiles), func(p string) bool { return p == path })
	recent = append([]string{path}, recent...)
	if len(recent) > maxRecentFiles {
		recent = recent[:maxRecentFiles]
	}
	s.prefs.RecentFiles = recent
	s.mu.Unlock()

	return s.repository.SaveRecentFiles(recent)
}

// ResetToDefaults clears the repository and the cache.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	s.prefs = defaultPreferences()
	s.mu.Unlock()

	return s.repository.Clear()
}

func (s *PreferenceService) onModeChanged(event domain.Event) {
	e, ok := event.(domain.ModeChangedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.Mode = e.Mode
	s.mu.Unlock()

	if err := s.repository.SaveMode(e.Mode); err != nil {
		s.logger.Warn("failed to save mode", slog.Any("error", err))
	}
}

func (s *PreferenceService) onThemeChanged(event domain.Event) {
	e, ok := event.(domain.ThemeChangedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.Theme = e.Theme
	s.mu.Unlock()

	if err := s.repository.SaveColorTheme(e.Theme); err != nil {
		s.logger.Warn("failed to save color theme", slog.Any("error", err))
	}
}

func (s *PreferenceService) onRefreshChanged(event domain.Event) {
	e, ok := event.(domain.RefreshChangedEvent)
	if !ok {
		return
	}
	ms := int(e.Interval.Milliseconds())
	s.mu.Lock()
	s.prefs.RefreshMs = ms
	s.mu.Unlock()

	if err := s.repository.SaveRefreshInterval(ms); err != nil {
		s.logger.Warn("failed to save refresh interval", slog.Any("error", err))
	}
}

func (s *PreferenceService) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.Volume = e.Volume
	s.mu.Unlock()

	if err := s.repository.SaveVolume(e.Volume); err != nil {
		s.logger.Warn("failed to save volume", slog.Any("error", err))
	}
}

// fromFile skips tracks with no backing file, like the demo signal.
func fromFile(event domain.Event) bool {
	e, ok := event.(domain.TrackLoadedEvent)
	return ok && e.Track.FilePath != ""
}

func (s *PreferenceService) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	if err := s.AddRecentFile(e.Track.FilePath); err != nil {
		s.logger.Warn("failed to save recent file", slog.Any("error", err))
	}
}

// Shutdown stops listening for changes.
func (s *PreferenceService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}

// Verify that PreferenceService implements the expected interface patterns
var _ interface {
	Get() Preferences
	SetFullscreen(bool) error
	AddRecentFile(string) error
	ResetToDefaults() error
	Shutdown() error
} = (*PreferenceService)(nil)
