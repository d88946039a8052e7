package analysis

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// SmootherConfig tunes temporal smoothing and normalization.
type SmootherConfig struct {
	// Alpha is the weight of the newest raw value, in (0, 1]
	Alpha float64

	// PeakDecay multiplies the running peak once per tick, in (0, 1]
	PeakDecay float64

	// PeakFloor is the smallest running peak, so silence never divides by zero
	PeakFloor float64

	// Strict panics on non-finite input instead of clamping it to zero
	Strict bool
}

// DefaultSmootherConfig returns the tuned defaults.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Alpha:     0.3,
		PeakDecay: 0.995,
		PeakFloor: 1e-3,
	}
}

// Validate checks that every parameter lies in its range.
func (c SmootherConfig) Validate() error {
	if !(c.Alpha > 0 && c.Alpha <= 1) {
		return domain.NewValidationError("smoothing", c.Alpha, "must be in (0, 1]")
	}
	if !(c.PeakDecay > 0 && c.PeakDecay <= 1) {
		return domain.NewValidationError("peak_decay", c.PeakDecay, "must be in (0, 1]")
	}
	if !(c.PeakFloor > 0) || math.IsInf(c.PeakFloor, 0) {
		return domain.NewValidationError("peak_floor", c.PeakFloor, "must be a positive number")
	}
	return nil
}

// Smoother exponentially smooths band levels across ticks and normalizes them
// against a slowly decaying running peak.
//
//	smoothed[i] = alpha*raw[i] + (1-alpha)*smoothed[i]
//	peak        = max(peak*decay, max(smoothed), floor)
//	out[i]      = clamp(smoothed[i]/peak, 0, 1)
//
// Every output value is finite and within [0, 1].
type Smoother struct {
	cfg    SmootherConfig
	logger *slog.Logger

	smoothed   []float64
	peak       float64
	violations uint64
}

// NewSmoother creates a smoother for the given band count with all-zero state.
func NewSmoother(bands int, cfg SmootherConfig, logger *slog.Logger) (*Smoother, error) {
	if bands < 1 {
		return nil, domain.NewValidationError("bands", bands, "must be at least 1")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Smoother{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "smoother")),
		smoothed: make([]float64, bands),
		peak:     cfg.PeakFloor,
	}, nil
}

// Len returns the band count.
func (s *Smoother) Len() int {
	return len(s.smoothed)
}

// Apply folds raw into the smoothing state and writes the normalized levels
// into out. raw and out may be the same slice.
func (s *Smoother) Apply(raw, out domain.BandSet) error {
	if len(raw) != len(s.smoothed) || len(out) != len(s.smoothed) {
		return domain.NewValidationError("bands", fmt.Sprintf("raw=%d out=%d", len(raw), len(out)), fmt.Sprintf("smoother holds %d bands", len(s.smoothed)))
	}

	a := s.cfg.Alpha
	loudest := 0.0
	for i, v := range raw {
		v = s.sanitize(i, v)
		s.smoothed[i] = a*v + (1-a)*s.smoothed[i]
		if s.smoothed[i] > loudest {
			loudest = s.smoothed[i]
		}
	}

	s.peak = max(s.peak*s.cfg.PeakDecay, loudest, s.cfg.PeakFloor)

	for i, v := range s.smoothed {
		out[i] = min(max(v/s.peak, 0), 1)
	}
	return nil
}

// sanitize clamps negative input to zero and deals with non-finite values.
func (s *Smoother) sanitize(i int, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if s.cfg.Strict {
			panic(domain.NewInvariantError("smoother", i, v))
		}
		s.violations++
		s.logger.Warn("non-finite band level clamped",
			slog.Int("band", i),
			slog.Float64("value", v))
		return 0
	}
	if v < 0 {
		return 0
	}
	return v
}

// Reset zeroes the smoothing state and the running peak.
func (s *Smoother) Reset() {
	clear(s.smoothed)
	s.peak = s.cfg.PeakFloor
}

// Smoothed returns a copy of the un-normalized smoothed levels.
func (s *Smoother) Smoothed() []float64 {
	out := make([]float64, len(s.smoothed))
	copy(out, s.smoothed)
	return out
}

// Peak returns the running peak.
func (s *Smoother) Peak() float64 {
	return s.peak
}

// Violations returns how many non-finite inputs were clamped.
func (s *Smoother) Violations() uint64 {
	return s.violations
}
