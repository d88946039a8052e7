package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

func TestBandLayout_EdgesAreGeometric(t *testing.T) {
	for _, bands := range []int{1, 8, 32, 64} {
		l, err := NewBandLayout(bands, 2048, 44100, DefaultMinHz, DefaultMaxHz)
		require.NoError(t, err)

		edges := l.Edges()
		require.Len(t, edges, bands+1)
		assert.Equal(t, DefaultMinHz, edges[0])
		assert.Equal(t, 22050.0, edges[bands], "max frequency is capped at Nyquist")

		ratio := edges[1] / edges[0]
		for i := 1; i < len(edges); i++ {
			assert.Greater(t, edges[i], edges[i-1])
			assert.InDelta(t, ratio, edges[i]/edges[i-1], 1e-9)
		}
	}
}

func TestBandLayout_PartitionIsComplete(t *testing.T) {
	cases := []struct {
		bands, frameSize, sampleRate int
	}{
		{32, 2048, 44100},
		{64, 2048, 44100},
		{64, 256, 96000},
		{64, 1000, 22050},
		{3, 17, 8000},
		{64, 1, 44100},
	}

	for _, tc := range cases {
		l, err := NewBandLayout(tc.bands, tc.frameSize, tc.sampleRate, DefaultMinHz, DefaultMaxHz)
		require.NoError(t, err)

		bins := l.SpectrumLen()
		owners := make([]int, bins)
		next := 0
		for b := 0; b < tc.bands; b++ {
			start, end := l.BinRange(b)
			if start == end {
				continue
			}
			// Non-empty ranges follow each other without gaps
			assert.Equal(t, next, start, "band %d", b)
			for k := start; k < end; k++ {
				owners[k]++
			}
			next = end
		}
		assert.Equal(t, bins, next)

		for k, n := range owners {
			assert.Equal(t, 1, n, "bin %d owned by %d bands", k, n)
			assert.Equal(t, l.BandFor(BinFrequency(k, tc.frameSize, tc.sampleRate)), l.BandOfBin(k))
		}
	}
}

func TestBandLayout_MapTakesBandMaximum(t *testing.T) {
	l, err := NewBandLayout(32, 2048, 44100, DefaultMinHz, DefaultMaxHz)
	require.NoError(t, err)

	spec := make(domain.Spectrum, l.SpectrumLen())
	spec[93] = 0.8
	spec[94] = 0.3

	out := make(domain.BandSet, 32)
	require.NoError(t, l.Map(spec, out))

	target := l.BandOfBin(93)
	assert.Equal(t, 0.8, out[target])
	for b, v := range out {
		if b != target && b != l.BandOfBin(94) {
			assert.Zero(t, v, "band %d", b)
		}
	}
}

func TestBandLayout_EmptyBandsReadNearestBin(t *testing.T) {
	const (
		bands      = 64
		frameSize  = 256
		sampleRate = 44100
	)
	l, err := NewBandLayout(bands, frameSize, sampleRate, DefaultMinHz, DefaultMaxHz)
	require.NoError(t, err)

	spec := make(domain.Spectrum, l.SpectrumLen())
	for k := range spec {
		spec[k] = float64(k + 1)
	}

	out := make(domain.BandSet, bands)
	require.NoError(t, l.Map(spec, out))

	binHz := float64(sampleRate) / frameSize
	edges := l.Edges()
	empty := 0
	for b := 0; b < bands; b++ {
		start, end := l.BinRange(b)
		if start != end {
			continue
		}
		empty++
		centre := math.Sqrt(edges[b] * edges[b+1])
		want := spec[int(math.Round(centre/binHz))]
		assert.Equal(t, want, out[b], "band %d", b)
	}
	assert.Positive(t, empty, "low bands must be empty at this resolution")

	for b, v := range out {
		assert.Positive(t, v, "band %d", b)
	}
}

func TestBandLayout_RejectsInvalidParameters(t *testing.T) {
	cases := map[string]func() (*BandLayout, error){
		"zero bands":     func() (*BandLayout, error) { return NewBandLayout(0, 2048, 44100, 20, 20000) },
		"zero frame":     func() (*BandLayout, error) { return NewBandLayout(32, 0, 44100, 20, 20000) },
		"zero rate":      func() (*BandLayout, error) { return NewBandLayout(32, 2048, 0, 20, 20000) },
		"negative min":   func() (*BandLayout, error) { return NewBandLayout(32, 2048, 44100, -5, 20000) },
		"min above max":  func() (*BandLayout, error) { return NewBandLayout(32, 2048, 44100, 5000, 1000) },
		"min above nyq.": func() (*BandLayout, error) { return NewBandLayout(32, 2048, 8000, 5000, 20000) },
		"nan min":        func() (*BandLayout, error) { return NewBandLayout(32, 2048, 44100, math.NaN(), 20000) },
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			l, err := build()
			assert.Nil(t, l)
			var vErr *domain.ValidationError
			assert.True(t, errors.As(err, &vErr), "got %v", err)
		})
	}
}

func TestBandLayout_MapRejectsMismatchedLengths(t *testing.T) {
	l, err := NewBandLayout(32, 2048, 44100, DefaultMinHz, DefaultMaxHz)
	require.NoError(t, err)

	assert.Error(t, l.Map(make(domain.Spectrum, 10), make(domain.BandSet, 32)))
	assert.Error(t, l.Map(make(domain.Spectrum, l.SpectrumLen()), make(domain.BandSet, 64)))
	assert.True(t, l.Matches(32, 2048, 44100))
	assert.False(t, l.Matches(64, 2048, 44100))
}
