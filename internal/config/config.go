// Package config loads the YAML configuration file of the visualizer.
//
// A config file is optional. Keys missing from the file keep their defaults, and
// unknown keys are rejected so typos surface immediately.
package config

import (
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/analysis"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// Config is the root configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error. Empty defers to MUSICVIZ_LOG_LEVEL.
	LogLevel string `yaml:"log_level"`

	Visualizer VisualizerConfig `yaml:"visualizer"`
	Audio      AudioConfig      `yaml:"audio"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Window     WindowConfig     `yaml:"window"`
}

// VisualizerConfig tunes the analysis pipeline.
type VisualizerConfig struct {
	Mode      string `yaml:"mode"`
	Theme     string `yaml:"theme"`
	RefreshMs int    `yaml:"refresh_ms"`

	// FrameSize is the number of sample frames analysed per tick
	FrameSize int    `yaml:"frame_size"`
	Window    string `yaml:"window"`

	Smoothing float64 `yaml:"smoothing"`
	PeakDecay float64 `yaml:"peak_decay"`
	PeakFloor float64 `yaml:"peak_floor"`

	MinHz float64 `yaml:"min_hz"`
	MaxHz float64 `yaml:"max_hz"`

	// Strict makes non-finite band levels panic instead of being clamped
	Strict bool `yaml:"strict"`
}

// AudioConfig configures playback and the demo signal.
type AudioConfig struct {
	// SampleRate is the playback rate; decoded files are resampled to it
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is a host:port to serve /metrics on; empty disables the endpoint
	Addr string `yaml:"addr"`
}

// WindowConfig configures the desktop window.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	sm := analysis.DefaultSmootherConfig()
	return &Config{
		LogLevel: "",
		Visualizer: VisualizerConfig{
			Mode:      string(domain.ModeSpectrum),
			Theme:     string(domain.ThemeCyan),
			RefreshMs: 50,
			FrameSize: 2048,
			Window:    string(analysis.WindowHann),
			Smoothing: sm.Alpha,
			PeakDecay: sm.PeakDecay,
			PeakFloor: sm.PeakFloor,
			MinHz:     analysis.DefaultMinHz,
			MaxHz:     analysis.DefaultMaxHz,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Volume:     1.0,
		},
		Window: WindowConfig{
			Width:  1000,
			Height: 700,
		},
	}
}

// SmootherConfig returns the smoother parameters.
func (v VisualizerConfig) SmootherConfig() analysis.SmootherConfig {
	return analysis.SmootherConfig{
		Alpha:     v.Smoothing,
		PeakDecay: v.PeakDecay,
		PeakFloor: v.PeakFloor,
		Strict:    v.Strict,
	}
}

// RefreshInterval returns the tick interval as a duration.
func (v VisualizerConfig) RefreshInterval() time.Duration {
	return time.Duration(v.RefreshMs) * time.Millisecond
}
