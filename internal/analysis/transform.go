// Package analysis turns raw audio frames into perceptual band levels.
//
// The stages run in order on every tick: Transformer (mono mix, window, real FFT),
// BandLayout (logarithmic band reduction) and Smoother (temporal smoothing and
// normalization). Each stage owns its scratch buffers, so a value of any stage
// must not be shared between concurrently running pipelines.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// Window names a tapering function applied before the transform.
type Window string

// Supported windows.
const (
	WindowHann        Window = "hann"
	WindowHamming     Window = "hamming"
	WindowBlackman    Window = "blackman"
	WindowBartlett    Window = "bartlett"
	WindowFlatTop     Window = "flattop"
	WindowRectangular Window = "rectangular"
)

// ParseWindow converts a config value into a Window. Empty means Hann.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	if w == "" {
		return WindowHann, nil
	}
	if w.coefficients() == nil {
		return "", domain.NewValidationError("window", s, "unknown window function")
	}
	return w, nil
}

func (w Window) coefficients() func(int) []float64 {
	switch w {
	case WindowHann:
		return window.Hann
	case WindowHamming:
		return window.Hamming
	case WindowBlackman:
		return window.Blackman
	case WindowBartlett:
		return window.Bartlett
	case WindowFlatTop:
		return window.FlatTop
	case WindowRectangular:
		return window.Rectangular
	default:
		return nil
	}
}

// plan holds everything needed to transform frames of one length.
type plan struct {
	fft    *fourier.FFT
	coeffs []float64
	mono   []float64
	out    []complex128
}

// Transformer computes magnitude spectra of audio frames.
// Plans are cached per frame length, so alternating lengths stay allocation free.
type Transformer struct {
	window Window
	plans  map[int]*plan
}

// NewTransformer creates a transformer using the given window.
func NewTransformer(w Window) (*Transformer, error) {
	if w.coefficients() == nil {
		return nil, domain.NewValidationError("window", string(w), "unknown window function")
	}
	return &Transformer{
		window: w,
		plans:  make(map[int]*plan),
	}, nil
}

// Window returns the window function in use.
func (t *Transformer) Window() Window {
	return t.window
}

func (t *Transformer) planFor(n int) *plan {
	if p, ok := t.plans[n]; ok {
		return p
	}

	var coeffs []float64
	if n == 1 {
		// The symmetric window formulas divide by n-1
		coeffs = []float64{1}
	} else {
		coeffs = t.window.coefficients()(n)
	}

	p := &plan{
		fft:    fourier.NewFFT(n),
		coeffs: coeffs,
		mono:   make([]float64, n),
		out:    make([]complex128, n/2+1),
	}
	t.plans[n] = p
	return p
}

// Transform returns the magnitude spectrum of frame, bins 0..N/2 scaled by 1/N,
// where N is the number of sample frames. Any N >= 1 is accepted; no padding is applied.
//
// The result is written into dst when it has enough capacity.
func (t *Transformer) Transform(frame domain.AudioFrame, dst domain.Spectrum) (domain.Spectrum, error) {
	n := frame.Len()
	if n == 0 || len(frame.Samples)%frame.Channels != 0 {
		return dst[:0], domain.NewValidationError("frame", fmt.Sprintf("%d samples / %d channels", len(frame.Samples), frame.Channels), "frame is empty or not channel aligned")
	}

	p := t.planFor(n)
	mono := frame.Mono(p.mono)
	for i, c := range p.coeffs {
		mono[i] *= c
	}

	p.fft.Coefficients(p.out, mono)

	bins := n/2 + 1
	if cap(dst) < bins {
		dst = make(domain.Spectrum, bins)
	}
	dst = dst[:bins]

	scale := 1 / float64(n)
	for k, c := range p.out {
		dst[k] = cmplx.Abs(c) * scale
	}
	return dst, nil
}

// BinFrequency returns the centre frequency of bin k for frames of n samples.
func BinFrequency(k, n, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(n)
}

// SpectrumLen returns the number of bins produced for a frame of n samples.
func SpectrumLen(n int) int {
	return n/2 + 1
}

// Peak returns the index and value of the largest magnitude.
// It returns -1 for an empty spectrum.
func Peak(s domain.Spectrum) (int, float64) {
	idx, best := -1, math.Inf(-1)
	for i, v := range s {
		if v > best {
			idx, best = i, v
		}
	}
	if idx < 0 {
		return -1, 0
	}
	return idx, best
}
