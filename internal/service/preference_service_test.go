package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/eventbus"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/logger"
)

// Mock preferences repository for testing
type mockPreferencesRepository struct {
	mu         sync.RWMutex
	mode       domain.VisualizationMode
	theme      domain.ColorTheme
	refreshMs  int
	volume     float64
	recent     []string
	fullscreen bool
	modeErr    error
	saves      int
}

func newMockPreferencesRepository() *mockPreferencesRepository {
	return &mockPreferencesRepository{
		mode:   domain.ModeSpectrum,
		theme:  domain.ThemeCyan,
		volume: 1.0,
	}
}

func (m *mockPreferencesRepository) SaveMode(mode domain.VisualizationMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.saves++
	return nil
}

func (m *mockPreferencesRepository) LoadMode() (domain.VisualizationMode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode, m.modeErr
}

func (m *mockPreferencesRepository) SaveColorTheme(theme domain.ColorTheme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = theme
	m.saves++
	return nil
}

func (m *mockPreferencesRepository) LoadColorTheme() (domain.ColorTheme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme, nil
}

func (m *mockPreferencesRepository) SaveRefreshInterval(ms int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshMs = ms
	m.saves++
	return nil
}

func (m *mockPreferencesRepository) LoadRefreshInterval() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshMs, nil
}

func (m *mockPreferencesRepository) SaveVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	m.saves++
	return nil
}

func (m *mockPreferencesRepository) LoadVolume() (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume, nil
}

func (m *mockPreferencesRepository) SaveRecentFiles(paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = append([]string(nil), paths...)
	m.saves++
	return nil
}

func (m *mockPreferencesRepository) LoadRecentFiles() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.recent...), nil
}

func (m *mockPreferencesRepository) SaveFullscreen(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullscreen = enabled
	m.saves++
	return nil
}

func (m *mockPreferencesRepository) LoadFullscreen() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fullscreen, nil
}

func (m *mockPreferencesRepository) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = domain.ModeSpectrum
	m.theme = domain.ThemeCyan
	m.refreshMs = 0
	m.volume = 1.0
	m.recent = nil
	m.fullscreen = false
	return nil
}

func TestPreferenceService_LoadsSavedValues(t *testing.T) {
	repo := newMockPreferencesRepository()
	repo.mode = domain.ModeCircular
	repo.theme = domain.ThemeYellow
	repo.refreshMs = 33
	repo.volume = 0.4
	repo.fullscreen = true
	repo.recent = []string{"/a.mp3"}

	service := NewPreferenceService(logger.NewTestLogger(t), repo, eventbus.NewSyncEventBus(nil))
	defer service.Shutdown()

	assert.Equal(t, Preferences{
		Mode:        domain.ModeCircular,
		Theme:       domain.ThemeYellow,
		RefreshMs:   33,
		Volume:      0.4,
		Fullscreen:  true,
		RecentFiles: []string{"/a.mp3"},
	}, service.Get())
}

func TestPreferenceService_InvalidSavedModeFallsBack(t *testing.T) {
	repo := newMockPreferencesRepository()
	repo.mode = domain.ModeSpectrum
	repo.modeErr = errors.New("stored mode is not valid")

	service := NewPreferenceService(logger.NewTestLogger(t), repo, eventbus.NewSyncEventBus(nil))
	defer service.Shutdown()

	assert.Equal(t, domain.ModeSpectrum, service.Get().Mode)
}

func TestPreferenceService_PersistsPublishedChanges(t *testing.T) {
	repo := newMockPreferencesRepository()
	bus := eventbus.NewSyncEventBus(nil)
	service := NewPreferenceService(logger.NewTestLogger(t), repo, bus)
	defer service.Shutdown()

	bus.Publish(domain.NewModeChangedEvent(domain.ModeBars, domain.ModeSpectrum))
	bus.Publish(domain.NewThemeChangedEvent(domain.ThemeMagenta))
	bus.Publish(domain.NewRefreshChangedEvent(100 * time.Millisecond))
	bus.Publish(domain.NewVolumeChangedEvent(0.6))
	bus.Publish(domain.NewTrackLoadedEvent(domain.Track{FilePath: "/music/one.flac"}))

	assert.Equal(t, domain.ModeBars, repo.mode)
	assert.Equal(t, domain.ThemeMagenta, repo.theme)
	assert.Equal(t, 100, repo.refreshMs)
	assert.Equal(t, 0.6, repo.volume)
	assert.Equal(t, []string{"/music/one.flac"}, repo.recent)

	prefs := service.Get()
	assert.Equal(t, domain.ModeBars, prefs.Mode)
	assert.Equal(t, 100, prefs.RefreshMs)
}

func TestPreferenceService_RecentFiles(t *testing.T) {
	repo := newMockPreferencesRepository()
	service := NewPreferenceService(logger.NewTestLogger(t), repo, eventbus.NewSyncEventBus(nil))
	defer service.Shutdown()

	assert.ErrorIs(t, service.AddRecentFile(""), domain.ErrInvalidFilePath)

	for _, p := range []string{"/a", "/b", "/c", "/a"} {
		require.NoError(t, service.AddRecentFile(p))
	}
	assert.Equal(t, []string{"/a", "/c", "/b"}, service.Get().RecentFiles)

	for i := 0; i < 20; i++ {
		require.NoError(t, service.AddRecentFile(string(rune('d'+i))))
	}
	assert.Len(t, service.Get().RecentFiles, maxRecentFiles)
	assert.Len(t, repo.recent, maxRecentFiles)
}

func TestPreferenceService_FullscreenAndReset(t *testing.T) {
	repo := newMockPreferencesRepository()
	service := NewPreferenceService(logger.NewTestLogger(t), repo, eventbus.NewSyncEventBus(nil))
	defer service.Shutdown()

	require.NoError(t, service.SetFullscreen(true))
	assert.True(t, repo.fullscreen)
	assert.True(t, service.Get().Fullscreen)

	require.NoError(t, service.AddRecentFile("/a"))
	require.NoError(t, service.ResetToDefaults())
	assert.Equal(t, defaultPreferences(), service.Get())
	assert.False(t, repo.fullscreen)
}

func TestPreferenceService_ShutdownStopsListening(t *testing.T) {
	repo := newMockPreferencesRepository()
	bus := eventbus.NewSyncEventBus(nil)
	service := NewPreferenceService(logger.NewTestLogger(t), repo, bus)

	require.NoError(t, service.Shutdown())
	bus.Publish(domain.NewModeChangedEvent(domain.ModeBars, domain.ModeSpectrum))

	assert.Zero(t, repo.saves)
	assert.Equal(t, domain.ModeSpectrum, service.Get().Mode)
}

// A visualizer and a preference service sharing a bus keep the saved mode current.
func TestPreferenceService_FollowsVisualizer(t *testing.T) {
	repo := newMockPreferencesRepository()
	bus := eventbus.NewSyncEventBus(nil)
	prefs := NewPreferenceService(logger.NewTestLogger(t), repo, bus)
	defer prefs.Shutdown()

	viz, err := NewVisualizerService(logger.NewTestLogger(t), &blockingSource{}, bus, nil, DefaultVisualizerConfig())
	require.NoError(t, err)

	require.NoError(t, viz.SetMode(domain.ModeCircular))
	require.NoError(t, viz.SetColorTheme(domain.ThemeLime))
	viz.SetRefreshIntervalMs(40)

	assert.Equal(t, domain.ModeCircular, repo.mode)
	assert.Equal(t, domain.ThemeLime, repo.theme)
	assert.Equal(t, 40, repo.refreshMs)
}
