package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// lowBins is how many bins above DC a tone's mirror image still overlaps
// its main lobe under a Hann window.
const lowBins = 4

// A pure tone must light up its own band more than any other, for tones on
// and between bin centres across the whole audible range.
func TestSineLightsItsOwnBand(t *testing.T) {
	const (
		frameSize  = 2048
		sampleRate = 44100
	)

	tr, err := NewTransformer(WindowHann)
	require.NoError(t, err)

	for _, bands := range []int{domain.BarsBands, domain.CircularBands} {
		layout, err := NewBandLayout(bands, frameSize, sampleRate, DefaultMinHz, DefaultMaxHz)
		require.NoError(t, err)

		tested := 0
		for freq := DefaultMinHz; freq <= DefaultMaxHz; freq *= 1.01 {
			tested++

			sm := newTestSmoother(t, bands, DefaultSmootherConfig())
			spec, err := tr.Transform(sineFrame(freq, frameSize, sampleRate, 2, 0.8), nil)
			require.NoError(t, err)

			raw := make(domain.BandSet, bands)
			require.NoError(t, layout.Map(spec, raw))
			require.NoError(t, sm.Apply(raw, raw))
			assertNormalized(t, raw)

			accepted := toneBands(layout, freq)
			lit := false
			for _, b := range accepted {
				lit = lit || raw[b] == 1.0
			}
			assert.True(t, lit, "bands=%d freq=%.1f: none of %v is the loudest band %v", bands, freq, accepted, raw)
		}
		assert.Equal(t, 704, tested)
	}
}

// toneBands lists the bands a tone at freq may legitimately peak in. That is
// the band of the nearest bin, plus the band of the other neighbouring bin
// when the tone sits almost halfway between two bins or so close to DC that
// its mirror image shifts the peak.
func toneBands(layout *BandLayout, freq float64) []int {
	pos := freq * float64(layout.FrameSize()) / float64(layout.SampleRate())
	nearest := layout.BandFor(freq)

	frac := pos - math.Floor(pos)
	if pos >= lowBins && math.Abs(frac-0.5) > 0.05 {
		return []int{nearest}
	}

	lo := layout.BandOfBin(int(math.Floor(pos)))
	hi := layout.BandOfBin(min(int(math.Ceil(pos)), layout.SpectrumLen()-1))
	return []int{nearest, lo, hi}
}

// Tones on bin centres peak exactly in the band that owns the bin.
func TestSineOnBinCentre(t *testing.T) {
	const (
		frameSize  = 2048
		sampleRate = 44100
	)

	tr, err := NewTransformer(WindowHann)
	require.NoError(t, err)
	layout, err := NewBandLayout(domain.SpectrumBands, frameSize, sampleRate, DefaultMinHz, DefaultMaxHz)
	require.NoError(t, err)

	for _, bin := range []int{12, 47, 93, 301, 700} {
		freq := BinFrequency(bin, frameSize, sampleRate)
		assert.Equal(t, bin, layout.NearestBin(freq))

		spec, err := tr.Transform(sineFrame(freq, frameSize, sampleRate, 1, 0.8), nil)
		require.NoError(t, err)
		raw := make(domain.BandSet, domain.SpectrumBands)
		require.NoError(t, layout.Map(spec, raw))

		want := layout.BandOfBin(bin)
		for b, v := range raw {
			assert.LessOrEqual(t, v, raw[want], "bin=%d band=%d", bin, b)
		}
	}
}
