// Package terminal provides a Bubbletea host that draws the visualization
// with braille characters.
package terminal

import (
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

const appName = "Music Visualizer"

// Host runs the terminal UI. It implements ports.UI.
//
// Before Run, view updates change the initial model; afterwards they are
// sent to the running program. All methods are safe for concurrent use.
type Host struct {
	logger *slog.Logger
	opts   []tea.ProgramOption

	mu      sync.Mutex
	model   Model
	program *tea.Program
	done    bool
}

// NewHost creates a host. Options are passed to tea.NewProgram; by default
// the program uses the alternate screen.
func NewHost(logger *slog.Logger, opts ...tea.ProgramOption) *Host {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Host{
		logger: logger.With(slog.String("component", "terminal")),
		opts:   opts,
		model:  NewModel(nil),
	}
}

// SetController connects the command handler. It must be called before Run.
func (h *Host) SetController(c Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.model.controller = c
}

// Run starts the program and blocks until the user quits.
func (h *Host) Run() error {
	h.mu.Lock()
	if h.model.controller == nil {
		h.mu.Unlock()
		return domain.NewServiceError("terminal", "run", "no controller connected", domain.ErrNotInitialized)
	}
	if h.done {
		h.mu.Unlock()
		return nil
	}
	h.program = tea.NewProgram(h.model, h.opts...)
	p := h.program
	h.mu.Unlock()

	_, err := p.Run()

	h.mu.Lock()
	h.done = true
	h.program = nil
	h.mu.Unlock()

	if err != nil {
		h.logger.Error("terminal program failed", slog.Any("error", err))
	}
	return err
}

// Quit stops the running program. Calling Quit before Run makes Run return at once.
func (h *Host) Quit() {
	h.mu.Lock()
	p := h.program
	h.done = p == nil
	h.mu.Unlock()

	if p != nil {
		p.Quit()
	}
}

// send delivers msg to the program, or applies it to the initial model.
func (h *Host) send(msg tea.Msg) {
	h.mu.Lock()
	p := h.program
	if p == nil {
		next, _ := h.model.Update(msg)
		h.model = next.(Model)
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	p.Send(msg)
}

// Present hands a frame to the program.
func (h *Host) Present(frame domain.RenderFrame) {
	h.mu.Lock()
	running := h.program != nil
	h.mu.Unlock()

	// Frames before the first paint are useless
	if running {
		h.send(frameMsg(frame))
	}
}

// SetTrackInfo updates the displayed track information.
func (h *Host) SetTrackInfo(track domain.Track) { h.send(trackMsg(track)) }

// SetPlayState updates the play/pause indicator.
func (h *Host) SetPlayState(playing bool) { h.send(playStateMsg(playing)) }

// SetVolume updates the volume indicator.
func (h *Host) SetVolume(volume float64) { h.send(volumeMsg(volume)) }

// SetProgress updates the elapsed time shown in the status line.
func (h *Host) SetProgress(position, duration time.Duration) {
	h.send(progressMsg{position: position, duration: duration})
}

// SetMode updates the mode shown in the status line.
func (h *Host) SetMode(mode domain.VisualizationMode) { h.send(modeMsg(mode)) }

// SetColorTheme updates the theme shown in the status line.
func (h *Host) SetColorTheme(theme domain.ColorTheme) { h.send(themeMsg(theme)) }

// ShowError shows message in place of the help line for a few seconds.
func (h *Host) ShowError(title, message string) {
	h.logger.Warn("showing error", slog.String("title", title), slog.String("message", message))
	h.send(errorMsg{title: title, message: message})
}

// Verify ports.UI implementation
var _ ports.UI = (*Host)(nil)
