package fyne

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/audio/mock"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/eventbus"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/repository/memory"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/logger"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
	"github.com/tbrumbaugh5396/music-visualizer/internal/service"
	"github.com/tbrumbaugh5396/music-visualizer/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.VerifyTestMain(m, testutil.IgnoreFyneGoroutines()...)
}

// fakeView records what the presenter asks the UI to show.
type fakeView struct {
	mu      sync.Mutex
	track   domain.Track
	playing bool
	volume  float64
	mode    domain.VisualizationMode
	theme   domain.ColorTheme
	errors  []string
	frames  int

	position time.Duration
	duration time.Duration
	progress int
}

func (v *fakeView) Present(domain.RenderFrame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames++
}

func (v *fakeView) SetTrackInfo(track domain.Track) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.track = track
}

func (v *fakeView) SetPlayState(playing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = playing
}

func (v *fakeView) SetVolume(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = volume
}

func (v *fakeView) SetProgress(position, duration time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position, v.duration = position, duration
	v.progress++
}

func (v *fakeView) SetMode(mode domain.VisualizationMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *fakeView) SetColorTheme(theme domain.ColorTheme) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.theme = theme
}

func (v *fakeView) ShowError(title, _ string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, title)
}

func (v *fakeView) Run() error { return nil }
func (v *fakeView) Quit()      {}

func (v *fakeView) state() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		track:   v.track,
		playing: v.playing,
		volume:  v.volume,
		mode:    v.mode,
		theme:   v.theme,
		errors:  append([]string(nil), v.errors...),
		frames:  v.frames,

		position: v.position,
		duration: v.duration,
		progress: v.progress,
	}
}

var _ ports.UI = (*fakeView)(nil)

type presenterFixture struct {
	presenter *Presenter
	view      *fakeView
	viz       *service.VisualizerService
	playback  *service.PlaybackService
	source    *mock.Source
}

func newPresenterFixture(t *testing.T) *presenterFixture {
	t.Helper()
	return newPresenterFixtureWith(t, mock.Config{})
}

func newPresenterFixtureWith(t *testing.T, cfg mock.Config) *presenterFixture {
	t.Helper()

	log := logger.NewTestLogger(t)
	bus := eventbus.NewSyncEventBus(nil)
	source := mock.NewSource(cfg)

	viz, err := service.NewVisualizerService(log, source, bus, nil, service.DefaultVisualizerConfig())
	require.NoError(t, err)

	playback := service.NewPlaybackService(log, source, bus)
	view := &fakeView{}
	presenter := NewPresenter(log, viz, playback, nil, bus, view)

	t.Cleanup(func() {
		presenter.Shutdown()
		_ = playback.Shutdown()
	})

	return &presenterFixture{
		presenter: presenter,
		view:      view,
		viz:       viz,
		playback:  playback,
		source:    source,
	}
}

func TestPresenter_SyncsInitialState(t *testing.T) {
	f := newPresenterFixture(t)

	state := f.view.state()
	assert.Equal(t, domain.ModeSpectrum, state.mode)
	assert.Equal(t, domain.ThemeCyan, state.theme)
	assert.Equal(t, 1.0, state.volume)
	assert.False(t, state.playing)
	assert.Empty(t, state.errors)
}

func TestPresenter_OpenAndControlPlayback(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnFileOpened("/music/Night Drive.mp3"))

	state := f.view.state()
	assert.Equal(t, "Mock Artist - Night Drive", state.track.DisplayName())
	assert.True(t, state.playing)

	f.presenter.OnPlayPauseClicked()
	assert.False(t, f.view.state().playing)
	assert.Equal(t, domain.StatusPaused, f.playback.Status())

	f.presenter.OnPlayPauseClicked()
	assert.True(t, f.view.state().playing)

	f.presenter.OnStopClicked()
	assert.False(t, f.view.state().playing)
	assert.Equal(t, domain.StatusStopped, f.playback.Status())
}

func TestPresenter_ReportsErrors(t *testing.T) {
	f := newPresenterFixture(t)

	// Nothing loaded yet
	f.presenter.OnPlayPauseClicked()
	assert.Equal(t, []string{"Nothing to play"}, f.view.state().errors)

	f.source.SetFailLoad(true)
	assert.Error(t, f.presenter.OnFileOpened("/music/broken.mp3"))
	assert.Equal(t, []string{"Nothing to play", "Playback Error"}, f.view.state().errors)
}

func TestPresenter_OpenFolder(t *testing.T) {
	f := newPresenterFixture(t)

	dir := t.TempDir()
	assert.Error(t, f.presenter.OnFolderOpened(dir))
	assert.Equal(t, []string{"Open Folder"}, f.view.state().errors)

	for _, name := range []string{"notes.txt", "b.flac", "a.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	require.NoError(t, f.presenter.OnFolderOpened(dir))
	track, ok := f.playback.Track()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a.mp3"), track.FilePath)
}

func TestPresenter_VisualizerControls(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnCycleMode()
	assert.Equal(t, domain.ModeSpectrum.Next(), f.view.state().mode)

	f.presenter.OnModeSelected(domain.ModeCircular.DisplayName())
	assert.Equal(t, domain.ModeCircular, f.viz.Mode())
	assert.Equal(t, domain.ModeCircular, f.view.state().mode)

	// Config names work too
	f.presenter.OnModeSelected("bars")
	assert.Equal(t, domain.ModeBars, f.view.state().mode)

	f.presenter.OnModeSelected("kaleidoscope")
	assert.Equal(t, domain.ModeBars, f.viz.Mode())
	assert.Equal(t, []string{"Visualization"}, f.view.state().errors)

	f.presenter.OnCycleColors()
	assert.Equal(t, domain.ThemeCyan.Next(), f.view.state().theme)

	f.presenter.OnViewportChanged(domain.Viewport{Width: 320, Height: 200})
	assert.Equal(t, domain.Viewport{Width: 320, Height: 200}, f.viz.Viewport())
}

func TestPresenter_Volume(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnVolumeChanged(50)
	assert.InDelta(t, 0.5, f.playback.Volume(), 1e-9)
	assert.InDelta(t, 0.5, f.view.state().volume, 1e-9)

	// Out of range values are rejected by the service
	f.presenter.OnVolumeChanged(150)
	assert.InDelta(t, 0.5, f.playback.Volume(), 1e-9)
}

func TestPresenter_FollowsFramePosition(t *testing.T) {
	f := newPresenterFixtureWith(t, mock.Config{Duration: 200 * time.Second})

	require.NoError(t, f.presenter.OnFileOpened("/music/long.mp3"))
	state := f.view.state()
	assert.Zero(t, state.position)
	assert.Equal(t, 200*time.Second, state.duration)
	updates := state.progress

	f.presenter.Present(domain.RenderFrame{Position: 1500 * time.Millisecond})
	state = f.view.state()
	assert.Equal(t, 1, state.frames, "frames reach the view")
	assert.Equal(t, 1500*time.Millisecond, state.position)
	assert.Equal(t, updates+1, state.progress)

	// Within the same second only the frame moves on
	f.presenter.Present(domain.RenderFrame{Position: 1900 * time.Millisecond})
	state = f.view.state()
	assert.Equal(t, 2, state.frames)
	assert.Equal(t, updates+1, state.progress)

	f.presenter.Present(domain.RenderFrame{Position: 2 * time.Second})
	state = f.view.state()
	assert.Equal(t, 2*time.Second, state.position)
	assert.Equal(t, updates+2, state.progress)

	f.presenter.OnStopClicked()
	state = f.view.state()
	assert.Zero(t, state.position)
	assert.Equal(t, 200*time.Second, state.duration)
}

func TestMainWindow_ShowsProgress(t *testing.T) {
	w := NewMainWindow(test.NewApp(), DefaultWindowConfig(), logger.NewTestLogger(t))

	w.SetProgress(75*time.Second, 200*time.Second)
	assert.Equal(t, "01:15", w.currentTime.Text)
	assert.Equal(t, "03:20", w.endTime.Text)
	assert.Equal(t, 200.0, w.progressSlider.Max)
	assert.Equal(t, 75.0, w.progressSlider.Value)

	// Unknown length
	w.SetProgress(5*time.Second, 0)
	assert.Equal(t, "00:05", w.currentTime.Text)
	assert.Equal(t, unknownLength, w.endTime.Text)
	assert.Zero(t, w.progressSlider.Value)
}

func TestPresenter_ShutdownStopsUpdates(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	f.viz.CycleMode()
	assert.Equal(t, domain.ModeSpectrum, f.view.state().mode)
}

func TestPresenter_RemembersFullscreen(t *testing.T) {
	log := logger.NewTestLogger(t)
	bus := eventbus.NewSyncEventBus(nil)
	source := mock.NewSource(mock.Config{})

	viz, err := service.NewVisualizerService(log, source, bus, nil, service.DefaultVisualizerConfig())
	require.NoError(t, err)

	repo := memory.NewPreferencesRepository(test.NewApp().Preferences())
	prefs := service.NewPreferenceService(log, repo, bus)
	presenter := NewPresenter(log, viz, nil, prefs, bus, &fakeView{})
	t.Cleanup(func() {
		presenter.Shutdown()
		_ = prefs.Shutdown()
	})

	presenter.OnFullscreenToggled(true)
	assert.True(t, prefs.Get().Fullscreen)

	saved, err := repo.LoadFullscreen()
	require.NoError(t, err)
	assert.True(t, saved)

	presenter.OnFullscreenToggled(false)
	assert.False(t, prefs.Get().Fullscreen)
}
