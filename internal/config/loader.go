package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tbrumbaugh5396/music-visualizer/internal/analysis"
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/logger"
)

// Accepted ranges.
const (
	MinFrameSize  = 64
	MaxFrameSize  = 16384
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "music-visualizer.yaml"
	}
	return filepath.Join(dir, "music-visualizer", "config.yaml")
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to [Default] when the file does not exist.
// Any other failure, a malformed file included, is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFromReader decodes a YAML config from r over the defaults and validates the result.
// An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" {
		if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
		}
	}

	v := cfg.Visualizer
	if _, err := domain.ParseMode(v.Mode); err != nil {
		errs = append(errs, fmt.Errorf("visualizer.mode: %w", err))
	}
	if _, err := domain.ParseColorTheme(v.Theme); err != nil {
		errs = append(errs, fmt.Errorf("visualizer.theme: %w", err))
	}
	if v.RefreshMs <= 0 {
		errs = append(errs, fmt.Errorf("visualizer.refresh_ms %d must be positive", v.RefreshMs))
	}
	if v.FrameSize < MinFrameSize || v.FrameSize > MaxFrameSize {
		errs = append(errs, fmt.Errorf("visualizer.frame_size %d is out of range [%d, %d]", v.FrameSize, MinFrameSize, MaxFrameSize))
	}
	if _, err := analysis.ParseWindow(v.Window); err != nil {
		errs = append(errs, fmt.Errorf("visualizer.window %q is invalid; valid values: hann, hamming, blackman, bartlett, flattop, rectangular", v.Window))
	}
	if err := v.SmootherConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("visualizer: %w", err))
	}
	if !(v.MinHz > 0) {
		errs = append(errs, fmt.Errorf("visualizer.min_hz %.1f must be positive", v.MinHz))
	}
	if !(v.MaxHz > v.MinHz) {
		errs = append(errs, fmt.Errorf("visualizer.max_hz %.1f must be above min_hz %.1f", v.MaxHz, v.MinHz))
	}

	if cfg.Audio.SampleRate < MinSampleRate || cfg.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is out of range [%d, %d]", cfg.Audio.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if cfg.Audio.Volume < 0 || cfg.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume %.2f is out of range [0, 1]", cfg.Audio.Volume))
	}

	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.addr %q: %w", cfg.Metrics.Addr, err))
		}
	}

	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", cfg.Window.Width, cfg.Window.Height))
	}

	return errors.Join(errs...)
}
