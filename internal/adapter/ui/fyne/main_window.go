package fyne

import (
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/ui/fyne/widgets"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/ui/fyne/widgets/visualizer"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

const (
	// AppName is the window title and the Fyne application ID suffix
	AppName = "Music Visualizer"

	// DefaultWidth and DefaultHeight are the initial window size in Fyne units
	DefaultWidth  = 960
	DefaultHeight = 600

	trackInfoLength = 40
	unknownLength   = "--:--"
	scrollInterval  = 300 * time.Millisecond
	volumeStep      = 5
)

// WindowConfig holds the initial window properties.
type WindowConfig struct {
	Title      string
	Width      float32
	Height     float32
	Fullscreen bool
}

// DefaultWindowConfig returns the default window properties.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Title:  AppName,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
}

// MainWindow is the main UI window implementing the ports.UI interface.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// View methods may be called from any goroutine; widget updates are
// hopped onto the UI thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	title  string

	// UI components
	canvas           *visualizer.Canvas
	openButton       *widget.Button
	playButton       *widget.Button
	stopButton       *widget.Button
	colorsButton     *widget.Button
	fullscreenButton *widget.Button
	modeSelect       *widget.Select
	songInfo         *widget.Label
	volumeSlider     *widget.Slider
	progressSlider   *widget.Slider
	currentTime      *widget.Label
	endTime          *widget.Label

	// State
	rotator    *widgets.Rotator
	stopScroll chan struct{}

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, cfg WindowConfig, logger *slog.Logger) *MainWindow {
	if cfg.Title == "" {
		cfg.Title = AppName
	}
	w := &MainWindow{
		app:        app,
		logger:     logger.With(slog.String("component", "main_window")),
		title:      cfg.Title,
		rotator:    widgets.NewRotator("No track loaded", trackInfoLength),
		stopScroll: make(chan struct{}),
	}

	// Create a window
	w.window = app.NewWindow(cfg.Title)

	// Build UI
	w.buildUI()

	// Set window properties
	w.window.Resize(fyneapp.NewSize(cfg.Width, cfg.Height))
	w.window.SetMaster()
	if cfg.Fullscreen {
		w.window.SetFullScreen(true)
	}

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	w.canvas = visualizer.NewCanvas()

	// Control buttons
	w.openButton = widget.NewButtonWithIcon("", theme.FolderOpenIcon(), w.handleOpenFile)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.colorsButton = widget.NewButtonWithIcon("Colors", theme.ColorPaletteIcon(), nil)
	w.fullscreenButton = widget.NewButtonWithIcon("", theme.ViewFullScreenIcon(), w.toggleFullscreen)

	w.modeSelect = widget.NewSelect(modeNames(), nil)

	// Song info label
	w.songInfo = widget.NewLabel(w.rotator.Text())
	w.songInfo.Truncation = fyneapp.TextTruncateClip
	w.songInfo.TextStyle = fyneapp.TextStyle{
		Bold:   true,
		Italic: true,
	}

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	w.volumeSlider.Value = 100
	volIcon := widget.NewIcon(theme.VolumeUpIcon())
	volumeHolder := container.NewBorder(nil, nil, volIcon, nil, container.NewGridWrap(fyneapp.NewSize(120, 30), w.volumeSlider))

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel(domain.FormatClock(0))
	w.endTime = widget.NewLabel(unknownLength)
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	// Button container
	buttonsHBox := container.NewHBox(
		w.openButton, w.playButton, w.stopButton,
		w.modeSelect, w.colorsButton, w.fullscreenButton,
	)
	controls := container.NewBorder(nil, nil, buttonsHBox, volumeHolder, w.songInfo)

	// Main layout: left click cycles the mode, right click the colors
	surface := widgets.NewTappableStack(w.canvas)
	surface.OnTapped = w.onCanvasTapped
	surface.OnSecondaryTapped = w.onCanvasSecondaryTapped
	surface.OnDoubleTapped = w.toggleFullscreen
	surface.OnScrolled = func(steps int) { w.nudgeVolume(float64(steps * volumeStep)) }
	w.window.SetContent(container.NewBorder(nil, container.NewVBox(sliderHolder, controls), nil, nil, surface))

	// Menu
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.canvas.OnResize = w.presenter.OnViewportChanged

	// Button handlers
	w.playButton.OnTapped = w.presenter.OnPlayPauseClicked
	w.stopButton.OnTapped = w.presenter.OnStopClicked
	w.colorsButton.OnTapped = w.presenter.OnCycleColors

	w.modeSelect.OnChanged = w.presenter.OnModeSelected

	// Volume slider
	w.volumeSlider.OnChanged = w.presenter.OnVolumeChanged

	// Dropping a file onto the window opens it
	w.window.SetOnDropped(func(_ fyneapp.Position, uris []fyneapp.URI) {
		if len(uris) == 0 {
			return
		}
		w.openPath(uris[0].Path())
	})
}

func (w *MainWindow) onCanvasTapped() {
	if w.presenter != nil {
		w.presenter.OnCycleMode()
	}
}

func (w *MainWindow) onCanvasSecondaryTapped() {
	if w.presenter != nil {
		w.presenter.OnCycleColors()
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	openFile := fyneapp.NewMenuItem("Open", w.handleOpenFile)
	openFolder := fyneapp.NewMenuItem("Open Folder", w.handleOpenFolder)
	exitMenu := fyneapp.NewMenuItem("Exit", w.Quit)

	fullscreen := fyneapp.NewMenuItem("Toggle Fullscreen", w.toggleFullscreen)
	nextMode := fyneapp.NewMenuItem("Next Visualization", w.onCanvasTapped)
	nextColors := fyneapp.NewMenuItem("Next Colors", w.onCanvasSecondaryTapped)

	about := fyneapp.NewMenuItem("About", func() { showAbout(w.window) })

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", openFile, openFolder, separator, exitMenu),
		fyneapp.NewMenu("View", fullscreen, nextMode, nextColors),
		fyneapp.NewMenu("Help", about),
	}
}

// handleOpenFile handles the "Open File" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	NewFileDialog(w.window, w.openPath, w.logger).Show()
}

// handleOpenFolder handles the "Open Folder" menu action.
func (w *MainWindow) handleOpenFolder() {
	if w.presenter == nil {
		return
	}

	NewFolderDialog(w.window, func(folderPath string) {
		// Load and decode off the UI thread
		go func() {
			if err := w.presenter.OnFolderOpened(folderPath); err != nil {
				w.logger.Warn("failed to open folder", slog.String("path", folderPath), slog.Any("error", err))
			}
		}()
	}, w.logger).Show()
}

// openPath loads a file without blocking the UI thread.
// Failures reach the user through the presenter's error event.
func (w *MainWindow) openPath(path string) {
	if w.presenter == nil {
		return
	}
	go func() {
		if err := w.presenter.OnFileOpened(path); err != nil {
			w.logger.Warn("failed to open file", slog.String("path", path), slog.Any("error", err))
		}
	}()
}

// toggleFullscreen flips fullscreen and remembers the choice.
// It must run on the UI thread.
func (w *MainWindow) toggleFullscreen() {
	enabled := !w.window.FullScreen()
	w.window.SetFullScreen(enabled)
	if w.presenter != nil {
		w.presenter.OnFullscreenToggled(enabled)
	}
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		switch ev.Name {
		case fyneapp.KeyF11:
			w.toggleFullscreen()
		case fyneapp.KeyEscape:
			if w.window.FullScreen() {
				w.toggleFullscreen()
			}
		case fyneapp.KeySpace:
			w.presenter.OnPlayPauseClicked()
		case fyneapp.KeyM:
			w.presenter.OnCycleMode()
		case fyneapp.KeyC:
			w.presenter.OnCycleColors()
		}
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.nudgeVolume(volumeStep)
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.nudgeVolume(-volumeStep)
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyO,
		Modifier: fyneapp.KeyModifierShortcutDefault,
	}, func(fyneapp.Shortcut) {
		w.handleOpenFile()
	})
}

// nudgeVolume moves the volume slider by delta percent.
// It must run on the UI thread.
func (w *MainWindow) nudgeVolume(delta float64) {
	w.volumeSlider.SetValue(min(max(w.volumeSlider.Value+delta, 0), 100))
}

// startScrollInfoRoutine starts the song info scrolling animation.
func (w *MainWindow) startScrollInfoRoutine() {
	go func() {
		ticker := time.NewTicker(scrollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stopScroll:
				return
			case <-ticker.C:
				text := w.rotator.Rotate()
				fyneapp.Do(func() {
					w.songInfo.SetText(text)
				})
			}
		}
	}()
}

// Run shows the window and runs the Fyne event loop until the window closes.
// This also starts the song info scrolling animation.
func (w *MainWindow) Run() error {
	w.startScrollInfoRoutine()
	w.window.ShowAndRun()
	w.closeOnce.Do(func() {
		close(w.stopScroll)
	})
	return nil
}

// Quit closes the window and stops the scrolling animation.
// It's safe to call multiple times and from any goroutine.
func (w *MainWindow) Quit() {
	w.closeOnce.Do(func() {
		close(w.stopScroll)
	})
	fyneapp.Do(w.app.Quit)
}

// Window returns the underlying Fyne window.
func (w *MainWindow) Window() fyneapp.Window {
	return w.window
}

// ports.UI interface implementation

// Present hands the frame to the visualizer canvas.
func (w *MainWindow) Present(frame domain.RenderFrame) {
	w.canvas.Present(frame)
}

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	icon := theme.MediaPlayIcon()
	if playing {
		icon = theme.MediaPauseIcon()
	}
	fyneapp.Do(func() {
		w.playButton.SetIcon(icon)
	})
}

// SetVolume updates the volume slider.
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		// Set the value directly so OnChanged does not echo the change back
		w.volumeSlider.Value = volume * 100.0
		w.volumeSlider.Refresh()
	})
}

// SetProgress updates the progress slider and the time labels.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	current, total := domain.FormatClock(position), unknownLength
	if duration > 0 {
		total = domain.FormatClock(duration)
	}
	fyneapp.Do(func() {
		w.currentTime.SetText(current)
		w.endTime.SetText(total)
		if duration > 0 {
			w.progressSlider.Max = duration.Seconds()
			w.progressSlider.Value = min(position.Seconds(), w.progressSlider.Max)
		} else {
			w.progressSlider.Max = 1
			w.progressSlider.Value = 0
		}
		w.progressSlider.Refresh()
	})
}

// SetTrackInfo updates the displayed track information.
func (w *MainWindow) SetTrackInfo(track domain.Track) {
	text := track.DisplayName()
	if text == "" {
		text = "No track loaded"
	}
	w.rotator.SetText(text)

	fyneapp.Do(func() {
		w.songInfo.SetText(w.rotator.Text())
		w.window.SetTitle(w.title + " - " + text)
	})
}

// SetMode selects mode in the picker.
func (w *MainWindow) SetMode(mode domain.VisualizationMode) {
	name := mode.DisplayName()
	fyneapp.Do(func() {
		if w.modeSelect.Selected != name {
			w.modeSelect.SetSelected(name)
		}
	})
}

// SetColorTheme shows the theme on the colors button.
func (w *MainWindow) SetColorTheme(colorTheme domain.ColorTheme) {
	fyneapp.Do(func() {
		w.colorsButton.SetText("Colors: " + string(colorTheme))
	})
}

// ShowError displays an error dialog.
func (w *MainWindow) ShowError(title, message string) {
	w.logger.Warn("showing error", slog.String("title", title), slog.String("message", message))
	fyneapp.Do(func() {
		showMessage(w.window, title, message)
	})
}

// Verify ports.UI implementation
var _ ports.UI = (*MainWindow)(nil)
