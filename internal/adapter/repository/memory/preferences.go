// Package memory provides repositories backed by the Fyne preferences store.
package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// Preference keys.
const (
	keyMode        = "preferences.viz_mode"
	keyTheme       = "preferences.color_theme"
	keyRefreshMs   = "preferences.refresh_ms"
	keyVolume      = "preferences.volume"
	keyRecentFiles = "preferences.recent_files"
	keyFullscreen  = "preferences.fullscreen"
)

// MaxRecentFiles bounds the recent files list.
const MaxRecentFiles = 10

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
// This provides a thin wrapper around Fyne's preferences system with proper error handling.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveMode persists the visualization mode.
func (r *PreferencesRepository) SaveMode(mode domain.VisualizationMode) error {
	if !mode.IsValid() {
		return domain.NewRepositoryError("SaveMode", "preferences", fmt.Sprintf("refusing to store %q", mode), domain.ErrInvalidMode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyMode, string(mode))
	return nil
}

// LoadMode retrieves the saved visualization mode.
func (r *PreferencesRepository) LoadMode() (domain.VisualizationMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mode := domain.VisualizationMode(r.prefs.StringWithFallback(keyMode, string(domain.ModeSpectrum)))
	if !mode.IsValid() {
		return domain.ModeSpectrum, domain.NewRepositoryError("LoadMode", "preferences", fmt.Sprintf("stored mode %q is not valid", mode), domain.ErrInvalidMode)
	}
	return mode, nil
}

// SaveColorTheme persists the color theme.
func (r *PreferencesRepository) SaveColorTheme(theme domain.ColorTheme) error {
	if !theme.IsValid() {
		return domain.NewRepositoryError("SaveColorTheme", "preferences", fmt.Sprintf("refusing to store %q", theme), domain.ErrInvalidTheme)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyTheme, string(theme))
	return nil
}

// LoadColorTheme retrieves the saved color theme.
func (r *PreferencesRepository) LoadColorTheme() (domain.ColorTheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	theme := domain.ColorTheme(r.prefs.StringWithFallback(keyTheme, string(domain.ThemeCyan)))
	if !theme.IsValid() {
		return domain.ThemeCyan, domain.NewRepositoryError("LoadColorTheme", "preferences", fmt.Sprintf("stored theme %q is not valid", theme), domain.ErrInvalidTheme)
	}
	return theme, nil
}

// SaveRefreshInterval persists the tick interval in milliseconds.
func (r *PreferencesRepository) SaveRefreshInterval(ms int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetInt(keyRefreshMs, ms)
	return nil
}

// LoadRefreshInterval retrieves the saved tick interval.
func (r *PreferencesRepository) LoadRefreshInterval() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.IntWithFallback(keyRefreshMs, 0), nil
}

// SaveVolume persists the volume level.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// LoadVolume retrieves the saved volume level.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyVolume, 1.0), nil
}

// SaveRecentFiles persists the recently opened files, keeping at most MaxRecentFiles.
func (r *PreferencesRepository) SaveRecentFiles(paths []string) error {
	if len(paths) > MaxRecentFiles {
		paths = paths[:MaxRecentFiles]
	}

	data, err := json.Marshal(paths)
	if err != nil {
		return domain.NewRepositoryError("SaveRecentFiles", "preferences", "failed to marshal paths", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyRecentFiles, string(data))
	return nil
}

// LoadRecentFiles retrieves the recently opened files.
func (r *PreferencesRepository) LoadRecentFiles() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(keyRecentFiles)
	if data == "" {
		return []string{}, nil
	}

	var paths []string
	if err := json.Unmarshal([]byte(data), &paths); err != nil {
		return nil, domain.NewRepositoryError("LoadRecentFiles", "preferences", "failed to unmarshal paths", err)
	}

	return paths, nil
}

// SaveFullscreen persists the fullscreen state.
func (r *PreferencesRepository) SaveFullscreen(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetBool(keyFullscreen, enabled)
	return nil
}

// LoadFullscreen retrieves the saved fullscreen state.
func (r *PreferencesRepository) LoadFullscreen() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.BoolWithFallback(keyFullscreen, false), nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range []string{keyMode, keyTheme, keyRefreshMs, keyVolume, keyRecentFiles, keyFullscreen} {
		r.prefs.RemoveValue(key)
	}

	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
