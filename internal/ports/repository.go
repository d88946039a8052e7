// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// PreferencesRepository handles the persistence of user preferences.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Visualizer preferences

	// SaveMode persists the visualization mode.
	//
	// Returns an error if saving fails or the mode is invalid.
	SaveMode(mode domain.VisualizationMode) error

	// LoadMode retrieves the saved visualization mode.
	// If no mode was saved, returns domain.ModeSpectrum.
	// A stored value that is no longer valid yields domain.ModeSpectrum and an error.
	LoadMode() (domain.VisualizationMode, error)

	// SaveColorTheme persists the color theme.
	SaveColorTheme(theme domain.ColorTheme) error

	// LoadColorTheme retrieves the saved color theme.
	// If no theme was saved, returns domain.ThemeCyan.
	LoadColorTheme() (domain.ColorTheme, error)

	// SaveRefreshInterval persists the tick interval in milliseconds.
	SaveRefreshInterval(ms int) error

	// LoadRefreshInterval retrieves the saved tick interval.
	// If none was saved, returns 0 and the caller applies its own default.
	LoadRefreshInterval() (int, error)

	// Playback preferences

	// SaveVolume persists the volume level.
	SaveVolume(volume float64) error

	// LoadVolume retrieves the saved volume level.
	// If no volume was saved, returns 1.0 (full volume) as default.
	LoadVolume() (float64, error)

	// SaveRecentFiles persists the most recently opened files, newest first.
	SaveRecentFiles(paths []string) error

	// LoadRecentFiles retrieves the recently opened files.
	// If none were saved, returns an empty slice (not an error).
	LoadRecentFiles() ([]string, error)

	// Window preferences

	// SaveFullscreen persists the fullscreen state of the main window.
	SaveFullscreen(enabled bool) error

	// LoadFullscreen retrieves the saved fullscreen state, false by default.
	LoadFullscreen() (bool, error)

	// Utility methods

	// Clear removes all saved preferences.
	Clear() error
}
