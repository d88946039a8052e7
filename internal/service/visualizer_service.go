// Package service provides the business logic of the music visualizer.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/analysis"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/observe"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
	"github.com/tbrumbaugh5396/music-visualizer/internal/render"
)

// Refresh interval bounds in milliseconds.
const (
	MinRefreshMs     = 16
	MaxRefreshMs     = 1000
	DefaultRefreshMs = 50
)

// VisualizerConfig holds the pipeline parameters fixed at construction.
type VisualizerConfig struct {
	Mode    domain.VisualizationMode
	Theme   domain.ColorTheme
	Refresh time.Duration

	// FrameSize is the number of sample frames pulled per tick
	FrameSize int
	Window    analysis.Window
	Smoother  analysis.SmootherConfig
	MinHz     float64
	MaxHz     float64

	// SampleRate is assumed until the source delivers its first frame
	SampleRate int
}

// DefaultVisualizerConfig returns the standard pipeline parameters.
func DefaultVisualizerConfig() VisualizerConfig {
	return VisualizerConfig{
		Mode:       domain.ModeSpectrum,
		Theme:      domain.ThemeCyan,
		Refresh:    DefaultRefreshMs * time.Millisecond,
		FrameSize:  2048,
		Window:     analysis.WindowHann,
		Smoother:   analysis.DefaultSmootherConfig(),
		MinHz:      analysis.DefaultMinHz,
		MaxHz:      analysis.DefaultMaxHz,
		SampleRate: 44100,
	}
}

// VisualizerService owns one visualization pipeline: the analysis state that
// carries over between ticks plus the mode, theme, viewport and refresh
// settings that control it. Several services may run side by side, each with
// its own state.
//
// Tick is serialized: a call that arrives while another tick is running
// returns domain.ErrTickSkipped without touching any state.
type VisualizerService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	source  ports.FrameSource
	bus     ports.EventBus
	metrics *observe.Metrics

	cfg VisualizerConfig

	// Pipeline state, owned by the running tick
	tickMu      sync.Mutex
	transformer *analysis.Transformer
	layout      *analysis.BandLayout
	smoother    *analysis.Smoother
	spectrum    domain.Spectrum
	raw         domain.BandSet
	bands       domain.BandSet
	lastFrame   domain.AudioFrame
	sampleRate  int
	violations  uint64

	// Control state
	mu       sync.RWMutex
	mode     domain.VisualizationMode
	theme    domain.ColorTheme
	viewport domain.Viewport
	refresh  time.Duration

	skipped atomic.Uint64
}

// NewVisualizerService creates a pipeline reading from source.
// A nil metrics disables instrumentation.
func NewVisualizerService(
	logger *slog.Logger,
	source ports.FrameSource,
	bus ports.EventBus,
	metrics *observe.Metrics,
	cfg VisualizerConfig,
) (*VisualizerService, error) {
	if source == nil {
		return nil, domain.NewServiceError("visualizer", "new", "frame source is required", domain.ErrNotInitialized)
	}
	if cfg.FrameSize < 1 {
		return nil, domain.NewValidationError("frame_size", cfg.FrameSize, "must be at least 1")
	}
	if cfg.SampleRate <= 0 {
		return nil, domain.NewValidationError("sample_rate", cfg.SampleRate, "must be positive")
	}
	if !cfg.Mode.IsValid() {
		return nil, domain.NewValidationError("mode", string(cfg.Mode), "unsupported visualization mode")
	}
	if !cfg.Theme.IsValid() {
		return nil, domain.NewValidationError("theme", string(cfg.Theme), "unsupported color theme")
	}
	if err := cfg.Smoother.Validate(); err != nil {
		return nil, err
	}
	if _, err := analysis.NewBandLayout(domain.SpectrumBands, cfg.FrameSize, cfg.SampleRate, cfg.MinHz, cfg.MaxHz); err != nil {
		return nil, err
	}

	transformer, err := analysis.NewTransformer(cfg.Window)
	if err != nil {
		return nil, err
	}

	s := &VisualizerService{
		logger:      logger.With(slog.String("service", "visualizer")),
		source:      source,
		bus:         bus,
		metrics:     metrics,
		cfg:         cfg,
		transformer: transformer,
		sampleRate:  cfg.SampleRate,
		mode:        cfg.Mode,
		theme:       cfg.Theme,
		refresh:     clampRefresh(cfg.Refresh),
	}

	s.logger.Debug("visualizer service initialized",
		slog.String("mode", string(cfg.Mode)),
		slog.Int("frame_size", cfg.FrameSize),
		slog.String("window", string(cfg.Window)))

	return s, nil
}

// Tick runs the pipeline once: pull a frame, transform, map to bands, smooth
// and render. When the source has nothing fresh, or hands back a frame of the
// wrong shape, the previous band set and frame are kept and rendered again.
func (s *VisualizerService) Tick() (domain.RenderFrame, error) {
	if !s.tickMu.TryLock() {
		n := s.skipped.Add(1)
		if s.metrics != nil {
			s.metrics.RecordSkip(context.Background())
		}
		if s.bus != nil && s.bus.HasSubscribers(domain.EventTickSkipped) {
			s.bus.Publish(domain.NewTickSkippedEvent(n))
		}
		return domain.RenderFrame{}, domain.ErrTickSkipped
	}
	defer s.tickMu.Unlock()

	start := time.Now()

	s.mu.RLock()
	mode, theme, vp := s.mode, s.theme, s.viewport
	s.mu.RUnlock()

	frame, ok := s.source.NextFrame(s.cfg.FrameSize)
	held := !ok || !frame.Conforms(s.cfg.FrameSize)
	if !held {
		s.lastFrame = frame
	}

	if count := mode.BandCount(); count > 0 {
		if err := s.ensureBands(count); err != nil {
			return domain.RenderFrame{}, err
		}
		if !held {
			if err := s.analyze(frame); err != nil {
				s.logger.Warn("analysis failed, holding previous bands", slog.Any("error", err))
				held = true
			}
		}
	} else {
		s.dropBands()
	}

	out := domain.RenderFrame{
		Mode:       mode,
		Theme:      theme,
		Bands:      s.bands.Clone(),
		Primitives: render.Render(mode, s.bands, s.lastFrame, theme, vp),
		Held:       held,
		Position:   time.Duration(s.source.PositionMs()) * time.Millisecond,
	}

	if s.metrics != nil {
		s.metrics.RecordTick(context.Background(), string(mode), time.Since(start), held)
	}
	return out, nil
}

// ensureBands makes the smoother and band set match count, starting from
// silence whenever the count changes.
func (s *VisualizerService) ensureBands(count int) error {
	if s.smoother != nil && s.smoother.Len() == count {
		return nil
	}
	sm, err := analysis.NewSmoother(count, s.cfg.Smoother, s.logger)
	if err != nil {
		return err
	}
	s.smoother = sm
	s.violations = 0
	s.bands = make(domain.BandSet, count)
	s.raw = make(domain.BandSet, count)
	s.logger.Debug("band set reinitialized", slog.Int("bands", count))
	return nil
}

// dropBands forgets the smoothing state while no band-driven mode is active.
func (s *VisualizerService) dropBands() {
	s.smoother = nil
	s.bands = nil
	s.raw = nil
}

func (s *VisualizerService) analyze(frame domain.AudioFrame) error {
	spec, err := s.transformer.Transform(frame, s.spectrum)
	if err != nil {
		return err
	}
	s.spectrum = spec

	count := len(s.bands)
	if s.layout == nil || !s.layout.Matches(count, s.cfg.FrameSize, frame.SampleRate) {
		layout, err := analysis.NewBandLayout(count, s.cfg.FrameSize, frame.SampleRate, s.cfg.MinHz, s.cfg.MaxHz)
		if err != nil {
			return err
		}
		s.layout = layout
		s.sampleRate = frame.SampleRate
	}

	if err := s.layout.Map(spec, s.raw); err != nil {
		return err
	}
	if err := s.smoother.Apply(s.raw, s.bands); err != nil {
		return err
	}

	if v := s.smoother.Violations(); v > s.violations {
		if s.metrics != nil {
			s.metrics.RecordViolations(context.Background(), "smoother", v-s.violations)
		}
		s.violations = v
	}
	return nil
}

// SetMode switches the visualization mode. An unsupported mode is rejected
// and the current one kept.
func (s *VisualizerService) SetMode(mode domain.VisualizationMode) error {
	if !mode.IsValid() {
		return domain.NewValidationError("mode", string(mode), "unsupported visualization mode")
	}

	s.mu.Lock()
	previous := s.mode
	s.mode = mode
	s.mu.Unlock()

	if previous == mode {
		return nil
	}

	s.logger.Info("visualization mode changed",
		slog.String("mode", string(mode)),
		slog.String("previous", string(previous)))
	if s.metrics != nil {
		s.metrics.RecordModeChange(context.Background(), string(mode))
	}
	if s.bus != nil {
		s.bus.Publish(domain.NewModeChangedEvent(mode, previous))
	}
	return nil
}

// SetColorTheme switches the color theme. An unsupported theme is rejected
// and the current one kept.
func (s *VisualizerService) SetColorTheme(theme domain.ColorTheme) error {
	if !theme.IsValid() {
		return domain.NewValidationError("theme", string(theme), "unsupported color theme")
	}

	s.mu.Lock()
	previous := s.theme
	s.theme = theme
	s.mu.Unlock()

	if previous != theme && s.bus != nil {
		s.bus.Publish(domain.NewThemeChangedEvent(theme))
	}
	return nil
}

// CycleMode advances to the next mode and returns it.
func (s *VisualizerService) CycleMode() domain.VisualizationMode {
	next := s.Mode().Next()
	_ = s.SetMode(next)
	return next
}

// CycleColorTheme advances to the next theme and returns it.
func (s *VisualizerService) CycleColorTheme() domain.ColorTheme {
	next := s.ColorTheme().Next()
	_ = s.SetColorTheme(next)
	return next
}

// SetRefreshIntervalMs sets the tick interval, clamped to
// [MinRefreshMs, MaxRefreshMs], and returns the interval applied.
func (s *VisualizerService) SetRefreshIntervalMs(ms int) time.Duration {
	interval := clampRefresh(time.Duration(ms) * time.Millisecond)

	s.mu.Lock()
	changed := s.refresh != interval
	s.refresh = interval
	s.mu.Unlock()

	if changed && s.bus != nil {
		s.bus.Publish(domain.NewRefreshChangedEvent(interval))
	}
	return interval
}

// SetViewport sets the drawing area used for rendering.
func (s *VisualizerService) SetViewport(vp domain.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
}

// Mode returns the current visualization mode.
func (s *VisualizerService) Mode() domain.VisualizationMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// ColorTheme returns the current color theme.
func (s *VisualizerService) ColorTheme() domain.ColorTheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// RefreshInterval returns the current tick interval.
func (s *VisualizerService) RefreshInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Viewport returns the current drawing area.
func (s *VisualizerService) Viewport() domain.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// Bands returns a copy of the current band set. It waits for a running tick.
func (s *VisualizerService) Bands() domain.BandSet {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.bands.Clone()
}

// Skipped returns how many ticks have been skipped.
func (s *VisualizerService) Skipped() uint64 {
	return s.skipped.Load()
}

func clampRefresh(d time.Duration) time.Duration {
	return min(max(d, MinRefreshMs*time.Millisecond), MaxRefreshMs*time.Millisecond)
}

// Verify that VisualizerService implements the expected interface patterns
var _ interface {
	Tick() (domain.RenderFrame, error)
	SetMode(domain.VisualizationMode) error
	SetColorTheme(domain.ColorTheme) error
	SetRefreshIntervalMs(int) time.Duration
	SetViewport(domain.Viewport)
	CycleMode() domain.VisualizationMode
	CycleColorTheme() domain.ColorTheme
} = (*VisualizerService)(nil)
