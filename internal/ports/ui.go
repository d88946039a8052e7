// Package ports define the UI interfaces for view abstraction.
// These interfaces allow the scheduler and presenter to drive a host without depending on Fyne or bubbletea.
package ports

import (
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// Surface receives rendered frames.
// The scheduler calls Present from its own goroutine; implementations hop to
// their UI thread themselves and must not block.
type Surface interface {
	// Present hands over one frame of primitives.
	// The frame's slices are owned by the surface after the call.
	Present(frame domain.RenderFrame)
}

// UI is the interface for the user interface layer.
// This abstracts the host implementation and allows for testing without a real window.
//
// The presenter receives events from the event bus and calls these methods
// to update the UI accordingly.
type UI interface {
	Surface

	// SetTrackInfo updates the displayed track information.
	SetTrackInfo(track domain.Track)

	// SetPlayState updates the play/pause indicator.
	SetPlayState(playing bool)

	// SetVolume updates the volume indicator (0.0 to 1.0).
	SetVolume(volume float64)

	// SetProgress updates the elapsed time display.
	// A zero duration means the length is unknown.
	SetProgress(position, duration time.Duration)

	// SetMode updates the selected visualization mode.
	SetMode(mode domain.VisualizationMode)

	// SetColorTheme updates the selected color theme.
	SetColorTheme(theme domain.ColorTheme)

	// ShowError displays an error to the user.
	ShowError(title, message string)

	// Run starts the UI event loop.
	// This is a blocking call that runs until the application quits.
	Run() error

	// Quit closes the application.
	Quit()
}
