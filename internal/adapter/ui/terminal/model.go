package terminal

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

const (
	// header, status and help lines around the visualization
	chromeLines = 3

	volumeStep     = 5
	errorLifetime  = 5 * time.Second
	noTrackMessage = "No track loaded"
)

// Controller receives the commands the terminal forwards.
type Controller interface {
	OnPlayPauseClicked()
	OnStopClicked()
	OnVolumeChanged(percent float64)
	OnModeSelected(name string)
	OnCycleMode()
	OnCycleColors()
	OnViewportChanged(vp domain.Viewport)
}

type frameMsg domain.RenderFrame
type trackMsg domain.Track
type playStateMsg bool
type volumeMsg float64
type modeMsg domain.VisualizationMode
type themeMsg domain.ColorTheme
type progressMsg struct {
	position time.Duration
	duration time.Duration
}
type errorMsg struct {
	title   string
	message string
}

// Model is the Bubbletea model for the terminal visualizer.
type Model struct {
	controller Controller

	frame   domain.RenderFrame
	track   domain.Track
	playing bool
	volume  float64
	mode    domain.VisualizationMode
	theme   domain.ColorTheme

	position time.Duration
	duration time.Duration

	width    int
	height   int
	quitting bool

	errText string
	errTime time.Time
	now     func() time.Time
}

// NewModel creates a model forwarding commands to controller.
func NewModel(controller Controller) Model {
	return Model{
		controller: controller,
		volume:     1.0,
		mode:       domain.ModeSpectrum,
		theme:      domain.ThemeCyan,
		now:        time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(appName)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.controller.OnViewportChanged(m.newGrid().viewport())
		return m, nil

	case frameMsg:
		m.frame = domain.RenderFrame(msg)
		if m.errText != "" && m.now().Sub(m.errTime) > errorLifetime {
			m.errText = ""
		}
		return m, nil

	case trackMsg:
		m.track = domain.Track(msg)
		return m, tea.SetWindowTitle(m.windowTitle())

	case playStateMsg:
		m.playing = bool(msg)
		return m, nil

	case progressMsg:
		m.position, m.duration = msg.position, msg.duration
		return m, nil

	case volumeMsg:
		m.volume = float64(msg)
		return m, nil

	case modeMsg:
		m.mode = domain.VisualizationMode(msg)
		return m, nil

	case themeMsg:
		m.theme = domain.ColorTheme(msg)
		return m, nil

	case errorMsg:
		m.errText = msg.title + ": " + msg.message
		m.errTime = m.now()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	case " ":
		m.controller.OnPlayPauseClicked()
	case "s":
		m.controller.OnStopClicked()
	case "m", "v":
		m.controller.OnCycleMode()
	case "c":
		m.controller.OnCycleColors()
	case "up", "+", "=":
		m.controller.OnVolumeChanged(min(m.volume*100+volumeStep, 100))
	case "down", "-":
		m.controller.OnVolumeChanged(max(m.volume*100-volumeStep, 0))
	case "1", "2", "3", "4":
		modes := domain.Modes()
		if i := int(key[0] - '1'); i < len(modes) {
			m.controller.OnModeSelected(string(modes[i]))
		}
	}
	return m, nil
}

// newGrid is the braille area left after the chrome lines.
func (m Model) newGrid() *brailleGrid {
	return newBrailleGrid(m.width, m.height-chromeLines)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	grid := m.newGrid()
	grid.draw(m.frame.Primitives)

	title := noTrackMessage
	if m.track.FilePath != "" {
		title = m.track.DisplayName()
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(appName) + "  " + titleStyle.Render(title) + "\n")
	if grid.rows > 0 {
		sb.WriteString(grid.String() + "\n")
	}
	sb.WriteString(statusStyle.Render(m.statusLine()) + "\n")
	if m.errText != "" {
		sb.WriteString(errorStyle.Render(m.errText))
	} else {
		sb.WriteString(helpStyle.Render(helpText))
	}
	return sb.String()
}

func (m Model) statusLine() string {
	state := "■ stopped"
	switch {
	case m.playing:
		state = "▶ playing"
	case m.track.FilePath != "":
		state = "❚❚ paused"
	}
	line := state
	if m.playing || m.track.FilePath != "" {
		line += "  " + m.clock()
	}
	line += fmt.Sprintf("  %s  %s  vol %d%%", m.mode.DisplayName(), m.theme, int(m.volume*100+0.5))
	if m.frame.Held {
		line += "  (held)"
	}
	return line
}

// clock is the elapsed time, followed by the length when it is known.
func (m Model) clock() string {
	if m.duration <= 0 {
		return domain.FormatClock(m.position)
	}
	return domain.FormatClock(m.position) + " / " + domain.FormatClock(m.duration)
}

func (m Model) windowTitle() string {
	if m.track.FilePath == "" {
		return appName
	}
	return m.track.DisplayName() + " - " + appName
}

const helpText = "space play/pause  s stop  m mode  1-4 pick mode  c colors  +/- volume  q quit"
