// Package domain contains core visualization models with no external dependencies.
// This package defines the fundamental entities of the music visualizer.
package domain

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

// AudioFrame is one block of decoded audio handed to the pipeline on a tick.
// Samples are interleaved when Channels > 1 and normalized to [-1, 1].
//
// A frame is immutable once produced: producers hand over a slice they no
// longer write to, and consumers never modify it.
type AudioFrame struct {
	// Samples holds Len()*Channels interleaved amplitudes
	Samples []float64

	// Channels is the number of interleaved channels (1 = mono, 2 = stereo)
	Channels int

	// SampleRate is the sample rate in Hz
	SampleRate int
}

// NewAudioFrame creates a frame from interleaved samples.
func NewAudioFrame(samples []float64, channels, sampleRate int) AudioFrame {
	return AudioFrame{
		Samples:    samples,
		Channels:   channels,
		SampleRate: sampleRate,
	}
}

// Len returns the number of sample frames (samples per channel).
func (f AudioFrame) Len() int {
	if f.Channels <= 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// IsEmpty reports whether the frame carries no usable audio.
func (f AudioFrame) IsEmpty() bool {
	return f.Len() == 0
}

// Conforms reports whether the frame is well formed and exactly n sample frames long.
// Frames failing this check are treated like an empty pull.
func (f AudioFrame) Conforms(n int) bool {
	if f.Channels <= 0 || f.SampleRate <= 0 || n <= 0 {
		return false
	}
	if len(f.Samples)%f.Channels != 0 {
		return false
	}
	return f.Len() == n
}

// Mono mixes the frame down to one channel by averaging, writing into dst when
// it has enough capacity. The returned slice has length Len().
func (f AudioFrame) Mono(dst []float64) []float64 {
	n := f.Len()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	if f.Channels == 1 {
		copy(dst, f.Samples[:n])
		return dst
	}

	scale := 1.0 / float64(f.Channels)
	for i := 0; i < n; i++ {
		var sum float64
		base := i * f.Channels
		for ch := 0; ch < f.Channels; ch++ {
			sum += f.Samples[base+ch]
		}
		dst[i] = sum * scale
	}
	return dst
}

// Spectrum holds non-negative magnitudes, one per frequency bin from DC to Nyquist.
// For a frame of N samples it has N/2+1 entries.
type Spectrum []float64

// BandSet holds one value per perceptual frequency band.
// After smoothing every value lies in [0, 1].
type BandSet []float64

// Clone returns an independent copy of the band set.
func (b BandSet) Clone() BandSet {
	if b == nil {
		return nil
	}
	out := make(BandSet, len(b))
	copy(out, b)
	return out
}

// VisualizationMode selects which render adapter consumes the pipeline output.
type VisualizationMode string

// Available visualization modes.
const (
	ModeSpectrum VisualizationMode = "spectrum"
	ModeWaveform VisualizationMode = "waveform"
	ModeBars     VisualizationMode = "bars"
	ModeCircular VisualizationMode = "circular"
)

// Band counts used by the band-driven modes.
const (
	SpectrumBands = 64
	BarsBands     = 32
	CircularBands = 64
)

// Modes returns all visualization modes in display order.
func Modes() []VisualizationMode {
	return []VisualizationMode{ModeSpectrum, ModeWaveform, ModeBars, ModeCircular}
}

// IsValid returns true for a supported mode.
func (m VisualizationMode) IsValid() bool {
	switch m {
	case ModeSpectrum, ModeWaveform, ModeBars, ModeCircular:
		return true
	default:
		return false
	}
}

// BandCount returns the BandSet length the mode renders from.
// Waveform renders raw samples and needs no bands.
func (m VisualizationMode) BandCount() int {
	switch m {
	case ModeSpectrum:
		return SpectrumBands
	case ModeBars:
		return BarsBands
	case ModeCircular:
		return CircularBands
	default:
		return 0
	}
}

// Next returns the mode that follows m in display order, wrapping around.
func (m VisualizationMode) Next() VisualizationMode {
	modes := Modes()
	for i, mode := range modes {
		if mode == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// DisplayName returns a human-readable mode name.
func (m VisualizationMode) DisplayName() string {
	switch m {
	case ModeSpectrum:
		return "Frequency Spectrum"
	case ModeWaveform:
		return "Waveform"
	case ModeBars:
		return "Frequency Bars"
	case ModeCircular:
		return "Circular Spectrum"
	default:
		return "Unknown"
	}
}

// ParseMode converts a user-supplied name into a mode.
// "circle" is accepted as an alias of circular.
func ParseMode(s string) (VisualizationMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "circle" {
		name = string(ModeCircular)
	}
	mode := VisualizationMode(name)
	if !mode.IsValid() {
		return "", NewValidationError("mode", s, fmt.Sprintf("%v; valid values: spectrum, waveform, bars, circular", ErrInvalidMode))
	}
	return mode, nil
}

// ColorTheme selects the palette primitives are painted with.
type ColorTheme string

// Available color themes.
const (
	ThemeCyan    ColorTheme = "cyan"
	ThemeMagenta ColorTheme = "magenta"
	ThemeYellow  ColorTheme = "yellow"
	ThemeLime    ColorTheme = "lime"
)

// ColorThemes returns all themes in cycling order.
func ColorThemes() []ColorTheme {
	return []ColorTheme{ThemeCyan, ThemeMagenta, ThemeYellow, ThemeLime}
}

// IsValid returns true for a supported theme.
func (t ColorTheme) IsValid() bool {
	switch t {
	case ThemeCyan, ThemeMagenta, ThemeYellow, ThemeLime:
		return true
	default:
		return false
	}
}

// Color returns the opaque base color of the theme.
func (t ColorTheme) Color() color.NRGBA {
	switch t {
	case ThemeMagenta:
		return color.NRGBA{R: 255, G: 0, B: 255, A: 255}
	case ThemeYellow:
		return color.NRGBA{R: 255, G: 255, B: 0, A: 255}
	case ThemeLime:
		return color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	default:
		return color.NRGBA{R: 0, G: 255, B: 255, A: 255}
	}
}

// Next returns the theme that follows t, wrapping around.
func (t ColorTheme) Next() ColorTheme {
	themes := ColorThemes()
	for i, theme := range themes {
		if theme == t {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

// ParseColorTheme converts a user-supplied name into a theme.
func ParseColorTheme(s string) (ColorTheme, error) {
	theme := ColorTheme(strings.ToLower(strings.TrimSpace(s)))
	if !theme.IsValid() {
		return "", NewValidationError("theme", s, fmt.Sprintf("%v; valid values: cyan, magenta, yellow, lime", ErrInvalidTheme))
	}
	return theme, nil
}

// Viewport is the drawable area in surface units (pixels or cells).
type Viewport struct {
	Width  float64
	Height float64
}

// IsEmpty reports whether nothing can be drawn in the viewport.
func (v Viewport) IsEmpty() bool {
	return !(v.Width > 0) || !(v.Height > 0)
}

// PrimitiveKind tells the surface how to interpret a Primitive.
type PrimitiveKind int

const (
	// KindRect is an axis-aligned filled rectangle anchored at its top-left corner
	KindRect PrimitiveKind = iota

	// KindLine is a straight segment from (X, Y) to (X2, Y2)
	KindLine

	// KindPoint is a filled disc centred on (X, Y)
	KindPoint
)

// String returns a human-readable representation of the primitive kind.
func (k PrimitiveKind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindLine:
		return "line"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Primitive is one drawing instruction for a rendering surface.
// The origin is the top-left corner of the viewport; Y grows downward.
type Primitive struct {
	Kind PrimitiveKind

	// X, Y is the rect corner, line start or point centre
	X, Y float64

	// W, H is the rect size
	W, H float64

	// X2, Y2 is the line end
	X2, Y2 float64

	// Radius is the point radius
	Radius float64

	// StrokeWidth is the line width
	StrokeWidth float64

	// Color is non-premultiplied; alpha carries the layer opacity
	Color color.NRGBA

	// Band is the source band index, or -1 when the primitive is decoration
	Band int
}

// NewRect creates a rectangle primitive.
func NewRect(x, y, w, h float64, c color.NRGBA, band int) Primitive {
	return Primitive{Kind: KindRect, X: x, Y: y, W: w, H: h, Color: c, Band: band}
}

// NewLine creates a line primitive.
func NewLine(x1, y1, x2, y2, width float64, c color.NRGBA, band int) Primitive {
	return Primitive{Kind: KindLine, X: x1, Y: y1, X2: x2, Y2: y2, StrokeWidth: width, Color: c, Band: band}
}

// NewPoint creates a point primitive.
func NewPoint(x, y, radius float64, c color.NRGBA, band int) Primitive {
	return Primitive{Kind: KindPoint, X: x, Y: y, Radius: radius, Color: c, Band: band}
}

// RenderFrame is the output of one pipeline tick.
type RenderFrame struct {
	// Mode and Theme the primitives were produced with
	Mode  VisualizationMode
	Theme ColorTheme

	// Bands is a snapshot of the BandSet after this tick (nil in waveform mode)
	Bands BandSet

	// Primitives to draw, back to front
	Primitives []Primitive

	// Held is true when no fresh audio arrived and the previous state was reused
	Held bool

	// Position is the playback position reported by the frame source
	Position time.Duration
}

// Track describes a loaded audio file.
type Track struct {
	// FilePath is the absolute path to the audio file
	FilePath string

	// Title is the song title (from tags or the file name)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Format is the lower-case file extension without the dot (mp3, flac, ...)
	Format string

	// Duration is the total length of the track
	Duration time.Duration

	// SampleRate is the decoded sample rate in Hz
	SampleRate int

	// Channels is the decoded channel count
	Channels int
}

// DisplayName returns "Artist - Title" when an artist is known, otherwise the title.
func (t Track) DisplayName() string {
	if t.Artist != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}

// FormatClock renders d as mm:ss, or h:mm:ss from an hour on.
func FormatClock(d time.Duration) string {
	d = max(d, 0).Truncate(time.Second)
	h, m, s := int(d/time.Hour), int(d/time.Minute)%60, int(d/time.Second)%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}
