// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/audio/decoder"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/audio/mock"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/eventbus"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/repository/memory"
	fyneui "github.com/tbrumbaugh5396/music-visualizer/internal/adapter/ui/fyne"
	"github.com/tbrumbaugh5396/music-visualizer/internal/adapter/ui/terminal"
	"github.com/tbrumbaugh5396/music-visualizer/internal/analysis"
	"github.com/tbrumbaugh5396/music-visualizer/internal/config"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/logger"
	"github.com/tbrumbaugh5396/music-visualizer/internal/observe"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
	"github.com/tbrumbaugh5396/music-visualizer/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	config  Config
	fyneApp fyne.App

	// Infrastructure
	eventBus    ports.EventBus
	audioSource ports.AudioSource
	provider    *observe.Provider
	metrics     *observe.Metrics

	// Repositories
	preferencesRepo ports.PreferencesRepository

	// Services
	visualizer        *service.VisualizerService
	playbackService   *service.PlaybackService
	preferenceService *service.PreferenceService
	scheduler         *service.Scheduler

	// UI
	presenter *fyneui.Presenter
	ui        ports.UI

	shutdownOnce sync.Once
	shutdownErr  error
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// File is the loaded configuration file (defaults when nil)
	File *config.Config

	// MediaPath is an audio file or a folder to play at startup.
	// Empty plays the demo signal.
	MediaPath string

	// Demo forces the synthetic demo signal even when MediaPath is set
	Demo bool

	// Mode and Theme override the saved visualization settings when set
	Mode  string
	Theme string

	// Fullscreen starts the window fullscreen
	Fullscreen bool

	// Terminal runs the Bubbletea host instead of the Fyne window
	Terminal bool

	// TerminalOptions are passed to the Bubbletea program
	TerminalOptions []tea.ProgramOption

	// UseMockAudio replaces the audio device with a silent mock source (for testing)
	UseMockAudio bool

	// AudioOutput overrides the audio device used for file playback (nil for the default device)
	AudioOutput decoder.Output

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:    "io.github.tbrumbaugh5396.musicvisualizer",
		AppName:  fyneui.AppName,
		File:     config.Default(),
		LogLevel: loggerCfg.Level,
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	if cfg.File == nil {
		cfg.File = config.Default()
	}
	if err := config.Validate(cfg.File); err != nil {
		return nil, err
	}

	app := &Application{config: cfg}

	// Step 1: Create logger; the file's log level wins over the environment
	loggerCfg := logger.DefaultConfig()
	loggerCfg.Level = cfg.LogLevel
	if cfg.File.LogLevel != "" {
		loggerCfg.Level, _ = logger.ParseLevel(cfg.File.LogLevel)
	}
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create Fyne application; its preferences store backs both hosts
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)
	app.eventBus.SubscribeAll(app.logEvent)

	// Step 4: Metrics
	if err := app.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Step 5: Create an audio source
	app.audioSource = app.newAudioSource()

	// Step 6: Create repositories and services
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())
	app.preferenceService = service.NewPreferenceService(app.logger, app.preferencesRepo, app.eventBus)
	app.playbackService = service.NewPlaybackService(app.logger, app.audioSource, app.eventBus)

	vizCfg, err := app.visualizerConfig()
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.visualizer, err = service.NewVisualizerService(app.logger, app.audioSource, app.eventBus, app.metrics, vizCfg)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create visualizer: %w", err)
	}

	// Step 7: Restore the saved volume
	app.restoreVolume()

	// Step 8: Create UI and presenter
	app.buildUI()

	// Frames go through the presenter, which moves the progress display
	app.scheduler = service.NewScheduler(app.logger, app.visualizer, app.presenter, app.eventBus)

	return app, nil
}

// logEvent records state changes. Skipped ticks are too frequent for info.
func (a *Application) logEvent(event domain.Event) {
	level := slog.LevelInfo
	if event.Type() == domain.EventTickSkipped {
		level = slog.LevelDebug
	}
	a.logger.Log(context.Background(), level, "event", slog.String("type", string(event.Type())))
}

// initMetrics exports to Prometheus when an address is configured and
// records into the global (no-op) provider otherwise.
func (a *Application) initMetrics() error {
	if a.config.File.Metrics.Addr == "" {
		a.metrics = observe.DefaultMetrics()
		return nil
	}

	provider, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceVersion: Version,
	})
	if err != nil {
		return err
	}
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		return err
	}

	a.provider = provider
	a.metrics = metrics
	return nil
}

// newAudioSource picks the demo signal, the mock or the real decoder.
func (a *Application) newAudioSource() ports.AudioSource {
	rate := a.config.File.Audio.SampleRate

	switch {
	case a.config.UseMockAudio:
		a.logger.Debug("using mock audio source")
		return mock.NewSource(mock.Config{SampleRate: rate})
	case a.config.Demo || a.config.MediaPath == "":
		a.logger.Info("no file given, playing the demo signal")
		return mock.NewDemoSource(rate)
	default:
		return decoder.NewSource(a.config.AudioOutput, rate, a.logger)
	}
}

// visualizerConfig merges the config file, saved preferences and flags.
// Flags win, then values the config file changes from the defaults, then
// whatever the previous session saved.
func (a *Application) visualizerConfig() (service.VisualizerConfig, error) {
	file := a.config.File.Visualizer
	defaults := config.Default().Visualizer
	saved := a.preferenceService.Get()

	window, err := analysis.ParseWindow(file.Window)
	if err != nil {
		return service.VisualizerConfig{}, err
	}

	cfg := service.DefaultVisualizerConfig()
	cfg.FrameSize = file.FrameSize
	cfg.Window = window
	cfg.Smoother = file.SmootherConfig()
	cfg.MinHz = file.MinHz
	cfg.MaxHz = file.MaxHz
	cfg.SampleRate = a.config.File.Audio.SampleRate

	modeName := string(saved.Mode)
	if file.Mode != defaults.Mode {
		modeName = file.Mode
	}
	if a.config.Mode != "" {
		modeName = a.config.Mode
	}
	if cfg.Mode, err = domain.ParseMode(modeName); err != nil {
		return service.VisualizerConfig{}, err
	}

	themeName := string(saved.Theme)
	if file.Theme != defaults.Theme {
		themeName = file.Theme
	}
	if a.config.Theme != "" {
		themeName = a.config.Theme
	}
	if cfg.Theme, err = domain.ParseColorTheme(themeName); err != nil {
		return service.VisualizerConfig{}, err
	}

	cfg.Refresh = file.RefreshInterval()
	if saved.RefreshMs > 0 && file.RefreshMs == defaults.RefreshMs {
		cfg.Refresh = time.Duration(saved.RefreshMs) * time.Millisecond
	}

	return cfg, nil
}

// restoreVolume applies the saved volume unless the config file sets one.
func (a *Application) restoreVolume() {
	volume := a.preferenceService.Get().Volume
	if v := a.config.File.Audio.Volume; v != config.Default().Audio.Volume {
		volume = v
	}
	if err := a.audioSource.SetVolume(volume); err != nil {
		a.logger.Warn("failed to restore volume", slog.Float64("volume", volume), slog.Any("error", err))
	}
}

// buildUI creates the host selected by the config and connects the presenter.
func (a *Application) buildUI() {
	if a.config.Terminal {
		host := terminal.NewHost(a.logger, a.config.TerminalOptions...)
		a.presenter = fyneui.NewPresenter(a.logger, a.visualizer, a.playbackService, a.preferenceService, a.eventBus, host)
		host.SetController(a.presenter)
		a.ui = host
		return
	}

	win := a.config.File.Window
	mainWindow := fyneui.NewMainWindow(a.fyneApp, fyneui.WindowConfig{
		Title:      a.config.AppName,
		Width:      float32(win.Width),
		Height:     float32(win.Height),
		Fullscreen: a.config.Fullscreen || win.Fullscreen || a.preferenceService.Get().Fullscreen,
	}, a.logger)
	a.presenter = fyneui.NewPresenter(a.logger, a.visualizer, a.playbackService, a.preferenceService, a.eventBus, mainWindow)
	mainWindow.SetPresenter(a.presenter)
	a.ui = mainWindow
}

// startMedia loads the startup file or folder, or starts the demo signal.
// Failures are shown by the UI through the error event.
func (a *Application) startMedia() {
	path := a.config.MediaPath
	if a.config.Demo || path == "" {
		if err := a.playbackService.Play(); err != nil {
			a.logger.Warn("failed to start the demo signal", slog.Any("error", err))
		}
		return
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		a.ui.ShowError("Open", fmt.Sprintf("%s could not be opened: %v", path, err))
	case info.IsDir():
		err = a.presenter.OnFolderOpened(path)
	default:
		err = a.presenter.OnFileOpened(path)
	}
	if err != nil {
		a.logger.Warn("failed to start playback", slog.String("path", path), slog.Any("error", err))
	}
}

// Run starts the application and blocks until the UI exits or ctx is cancelled.
// This is called from main.go after the application is created.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("music visualizer started",
		slog.Bool("terminal", a.config.Terminal),
		slog.String("mode", string(a.visualizer.Mode())))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if a.provider != nil {
		addr := a.config.File.Metrics.Addr
		g.Go(func() error {
			return a.provider.Serve(gctx, addr, a.logger)
		})
	}

	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})

	// Close the UI when ctx ends first
	uiDone := make(chan struct{})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			a.ui.Quit()
		case <-uiDone:
		}
		return nil
	})

	a.startMedia()

	// Blocks until the window is closed or the user quits the terminal
	uiErr := a.ui.Run()
	close(uiDone)
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(uiErr, err)
	}
	return uiErr
}

// Shutdown gracefully shuts down the application.
// It is safe to call more than once.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")
		a.shutdownErr = a.cleanup()
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// cleanup releases everything created so far, in reverse order of creation.
func (a *Application) cleanup() error {
	var errs []error

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.presenter != nil {
		a.presenter.Shutdown()
	}

	if a.preferenceService != nil {
		if err := a.preferenceService.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("preference service: %w", err))
		}
	}

	if a.playbackService != nil {
		if err := a.playbackService.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("playback service: %w", err))
		}
	}

	if a.audioSource != nil {
		if err := a.audioSource.Close(); err != nil && !errors.Is(err, domain.ErrAlreadyClosed) {
			errs = append(errs, fmt.Errorf("audio source: %w", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil && !errors.Is(err, domain.ErrAlreadyClosed) {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}

	if a.provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Services returns the application services (for testing).
func (a *Application) Services() (*service.VisualizerService, *service.PlaybackService, *service.PreferenceService) {
	return a.visualizer, a.playbackService, a.preferenceService
}

// EventBus returns the application event bus (for testing).
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// FyneApp returns the Fyne application (for testing).
func (a *Application) FyneApp() fyne.App {
	return a.fyneApp
}

// UI returns the active host.
func (a *Application) UI() ports.UI {
	return a.ui
}
