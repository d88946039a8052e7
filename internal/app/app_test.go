package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/repository/memory"
	"github.com/tbrumbaugh5396/music-visualizer/internal/config"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.UseMockAudio = true // Use mock for testing
	cfg.LogLevel = slog.LevelError
	cfg.TestFyneApp = test.NewApp()
	return cfg
}

func terminalOptions() []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "io.github.tbrumbaugh5396.musicvisualizer", cfg.AppID)
	assert.Equal(t, "Music Visualizer", cfg.AppName)
	require.NotNil(t, cfg.File)
	assert.Equal(t, 44100, cfg.File.Audio.SampleRate)
	assert.False(t, cfg.UseMockAudio)
	assert.False(t, cfg.Terminal)
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)

	// Verify all services were created
	viz, playback, preference := app.Services()
	assert.NotNil(t, viz)
	assert.NotNil(t, playback)
	assert.NotNil(t, preference)

	assert.NotNil(t, app.EventBus())
	assert.NotNil(t, app.FyneApp())
	assert.NotNil(t, app.UI())

	assert.Equal(t, domain.ModeSpectrum, viz.Mode())
	assert.Equal(t, domain.ThemeCyan, viz.ColorTheme())

	// Cleanup, twice is harmless
	assert.NoError(t, app.Shutdown())
	assert.NoError(t, app.Shutdown())
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.File = config.Default()
	cfg.File.Visualizer.FrameSize = 3

	_, err := NewApplication(cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Mode = "kaleidoscope"
	_, err = NewApplication(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestApplication_RestoresPreferences(t *testing.T) {
	cfg := testConfig(t)

	repo := memory.NewPreferencesRepository(cfg.TestFyneApp.Preferences())
	require.NoError(t, repo.SaveMode(domain.ModeBars))
	require.NoError(t, repo.SaveColorTheme(domain.ThemeMagenta))
	require.NoError(t, repo.SaveRefreshInterval(100))
	require.NoError(t, repo.SaveVolume(0.4))

	app, err := NewApplication(cfg)
	require.NoError(t, err)
	defer app.Shutdown()

	viz, playback, _ := app.Services()
	assert.Equal(t, domain.ModeBars, viz.Mode())
	assert.Equal(t, domain.ThemeMagenta, viz.ColorTheme())
	assert.Equal(t, 100*time.Millisecond, viz.RefreshInterval())
	assert.InDelta(t, 0.4, playback.Volume(), 1e-9)
}

func TestApplication_FlagsOverridePreferences(t *testing.T) {
	cfg := testConfig(t)
	repo := memory.NewPreferencesRepository(cfg.TestFyneApp.Preferences())
	require.NoError(t, repo.SaveMode(domain.ModeBars))

	cfg.Mode = "circle"
	cfg.Theme = "lime"

	app, err := NewApplication(cfg)
	require.NoError(t, err)
	defer app.Shutdown()

	viz, _, _ := app.Services()
	assert.Equal(t, domain.ModeCircular, viz.Mode())
	assert.Equal(t, domain.ThemeLime, viz.ColorTheme())
}

func TestApplication_PersistsModeChanges(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApplication(cfg)
	require.NoError(t, err)

	viz, _, _ := app.Services()
	require.NoError(t, viz.SetMode(domain.ModeWaveform))
	require.NoError(t, app.Shutdown())

	repo := memory.NewPreferencesRepository(cfg.TestFyneApp.Preferences())
	mode, err := repo.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWaveform, mode)
}

func TestApplication_RunTerminalUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseMockAudio = false
	cfg.Demo = true
	cfg.Terminal = true
	cfg.TerminalOptions = terminalOptions()

	app, err := NewApplication(cfg)
	require.NoError(t, err)
	defer app.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context ended")
	}

	// The demo signal was started
	_, playback, _ := app.Services()
	assert.Equal(t, domain.StatusPlaying, playback.Status())
}

func TestApplication_StartupFolder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ogg", "a.wav", "cover.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	cfg := testConfig(t)
	cfg.MediaPath = dir
	cfg.Terminal = true
	cfg.TerminalOptions = terminalOptions()

	app, err := NewApplication(cfg)
	require.NoError(t, err)
	defer app.Shutdown()

	app.startMedia()

	_, playback, preference := app.Services()
	track, ok := playback.Track()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a.wav"), track.FilePath)
	assert.Equal(t, []string{filepath.Join(dir, "a.wav")}, preference.Get().RecentFiles)
}
