package analysis

import (
	"fmt"
	"math"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// Default frequency bounds for band layouts.
const (
	DefaultMinHz = 20.0
	DefaultMaxHz = 22000.0
)

// binRange is a half-open range of spectrum bins [start, end).
type binRange struct {
	start, end int
}

// BandLayout partitions the bins of a spectrum into logarithmically spaced bands.
//
// Band b covers frequencies [edge(b), edge(b+1)), with edges spaced geometrically
// between the minimum and the (Nyquist capped) maximum frequency. Bins below the
// first edge belong to band 0 and bins at or above the last edge to the last band,
// so every bin is owned by exactly one band and each band owns a contiguous range.
//
// A BandLayout is immutable and safe for concurrent use.
type BandLayout struct {
	bands      int
	frameSize  int
	sampleRate int
	minHz      float64
	maxHz      float64

	edges    []float64
	ranges   []binRange
	fallback []int // nearest bin to the band centre, used when the range is empty
}

// NewBandLayout builds the layout for frames of frameSize samples at sampleRate.
// maxHz is capped at the Nyquist frequency.
func NewBandLayout(bands, frameSize, sampleRate int, minHz, maxHz float64) (*BandLayout, error) {
	switch {
	case bands < 1:
		return nil, domain.NewValidationError("bands", bands, "must be at least 1")
	case frameSize < 1:
		return nil, domain.NewValidationError("frame_size", frameSize, "must be at least 1")
	case sampleRate <= 0:
		return nil, domain.NewValidationError("sample_rate", sampleRate, "must be positive")
	case !(minHz > 0) || math.IsInf(minHz, 0):
		return nil, domain.NewValidationError("min_hz", minHz, "must be a positive frequency")
	}

	nyquist := float64(sampleRate) / 2
	if math.IsNaN(maxHz) || maxHz > nyquist {
		maxHz = nyquist
	}
	if minHz >= maxHz {
		return nil, domain.NewValidationError("min_hz", minHz, fmt.Sprintf("must be below max frequency %.1f Hz", maxHz))
	}

	l := &BandLayout{
		bands:      bands,
		frameSize:  frameSize,
		sampleRate: sampleRate,
		minHz:      minHz,
		maxHz:      maxHz,
		edges:      make([]float64, bands+1),
		ranges:     make([]binRange, bands),
		fallback:   make([]int, bands),
	}

	ratio := maxHz / minHz
	for i := range l.edges {
		l.edges[i] = minHz * math.Pow(ratio, float64(i)/float64(bands))
	}
	// Keep the end points exact
	l.edges[0] = minHz
	l.edges[bands] = maxHz

	bins := SpectrumLen(frameSize)
	band := 0
	for k := 0; k < bins; k++ {
		f := BinFrequency(k, frameSize, sampleRate)
		for band < bands-1 && f >= l.edges[band+1] {
			band++
			l.ranges[band].start = k
		}
		l.ranges[band].end = k + 1
	}
	// Bands skipped over by the loop own nothing
	for b := 1; b < bands; b++ {
		if l.ranges[b].end < l.ranges[b].start {
			l.ranges[b].end = l.ranges[b].start
		}
	}

	binHz := float64(sampleRate) / float64(frameSize)
	for b := 0; b < bands; b++ {
		centre := math.Sqrt(l.edges[b] * l.edges[b+1])
		k := int(math.Round(centre / binHz))
		l.fallback[b] = min(max(k, 0), bins-1)
	}

	return l, nil
}

// Bands returns the number of bands.
func (l *BandLayout) Bands() int { return l.bands }

// FrameSize returns the frame length the layout was built for.
func (l *BandLayout) FrameSize() int { return l.frameSize }

// SampleRate returns the sample rate the layout was built for.
func (l *BandLayout) SampleRate() int { return l.sampleRate }

// SpectrumLen returns the spectrum length Map expects.
func (l *BandLayout) SpectrumLen() int { return SpectrumLen(l.frameSize) }

// MaxHz returns the effective (Nyquist capped) upper frequency bound.
func (l *BandLayout) MaxHz() float64 { return l.maxHz }

// Edges returns a copy of the B+1 band edges in Hz.
func (l *BandLayout) Edges() []float64 {
	out := make([]float64, len(l.edges))
	copy(out, l.edges)
	return out
}

// BinRange returns the half-open bin range [start, end) owned by band b.
// The range is empty when no bin falls inside the band.
func (l *BandLayout) BinRange(b int) (start, end int) {
	r := l.ranges[b]
	return r.start, r.end
}

// BandOfBin returns the band that owns bin k.
func (l *BandLayout) BandOfBin(k int) int {
	for b, r := range l.ranges {
		if k >= r.start && k < r.end {
			return b
		}
	}
	return l.bands - 1
}

// NearestBin returns the spectrum bin closest to f, clamped to the spectrum.
func (l *BandLayout) NearestBin(f float64) int {
	k := int(math.Round(f * float64(l.frameSize) / float64(l.sampleRate)))
	return min(max(k, 0), l.SpectrumLen()-1)
}

// BandFor returns the band a tone at f lands in: the owner of the bin nearest
// to f. Near a band edge this can differ from the band whose frequency range
// holds f, because the energy of the tone is measured in whole bins.
func (l *BandLayout) BandFor(f float64) int {
	return l.BandOfBin(l.NearestBin(f))
}

// Matches reports whether the layout was built for these parameters.
func (l *BandLayout) Matches(bands, frameSize, sampleRate int) bool {
	return l != nil && l.bands == bands && l.frameSize == frameSize && l.sampleRate == sampleRate
}

// Map reduces spectrum into dst, one value per band: the largest magnitude in
// the band, or the nearest bin to the band centre when the band owns no bins.
func (l *BandLayout) Map(spectrum domain.Spectrum, dst domain.BandSet) error {
	if len(spectrum) != l.SpectrumLen() {
		return domain.NewValidationError("spectrum", len(spectrum), fmt.Sprintf("expected %d bins", l.SpectrumLen()))
	}
	if len(dst) != l.bands {
		return domain.NewValidationError("bands", len(dst), fmt.Sprintf("expected %d bands", l.bands))
	}

	for b, r := range l.ranges {
		if r.start == r.end {
			dst[b] = spectrum[l.fallback[b]]
			continue
		}
		peak := spectrum[r.start]
		for _, v := range spectrum[r.start+1 : r.end] {
			if v > peak {
				peak = v
			}
		}
		dst[b] = peak
	}
	return nil
}
