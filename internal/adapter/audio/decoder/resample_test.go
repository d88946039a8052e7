package decoder

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPCM is an in-memory pcmDecoder.
type memPCM struct {
	*bytes.Reader
	rate     int
	channels int
	length   int64
}

func newMemPCM(rate, channels int, samples ...int16) *memPCM {
	raw := pcm16(samples...)
	return &memPCM{Reader: bytes.NewReader(raw), rate: rate, channels: channels, length: int64(len(raw))}
}

func (m *memPCM) Length() int64     { return m.length }
func (m *memPCM) SampleRate() int   { return m.rate }
func (m *memPCM) ChannelCount() int { return m.channels }

func readSamples(t *testing.T, r io.Reader) []int16 {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

func TestResample_SameRateIsUntouched(t *testing.T) {
	src := newMemPCM(8000, 1, 1, 2, 3)
	dec, err := resample(src, 8000)
	require.NoError(t, err)
	assert.Same(t, src, dec)

	_, err = resample(newMemPCM(0, 1), 8000)
	assert.Error(t, err)
}

func TestResample_Upsamples(t *testing.T) {
	dec, err := resample(newMemPCM(1000, 1, 0, 100, 200, 300), 2000)
	require.NoError(t, err)
	assert.Equal(t, 2000, dec.SampleRate())
	assert.Equal(t, 1, dec.ChannelCount())
	assert.Equal(t, int64(8*2), dec.Length())

	assert.Equal(t, []int16{0, 50, 100, 150, 200, 250, 300, 300}, readSamples(t, dec))

	pos, err := dec.Seek(3*2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
	assert.Equal(t, []int16{150, 200, 250, 300, 300}, readSamples(t, dec))
}

func TestResample_DownsamplesStereo(t *testing.T) {
	src := newMemPCM(4000, 2,
		0, -0, 10, -10, 20, -20, 30, -30,
		40, -40, 50, -50, 60, -60, 70, -70)
	dec, err := resample(src, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(4*4), dec.Length())
	assert.Equal(t, []int16{0, 0, 20, -20, 40, -40, 60, -60}, readSamples(t, dec))

	pos, err := dec.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, dec.Length(), pos)
	_, err = dec.Read(make([]byte, 16))
	assert.ErrorIs(t, err, io.EOF)
}

// stallingPCM returns no data and no error a few times before each read.
type stallingPCM struct {
	*memPCM
	stalls int
	left   int
}

func (s *stallingPCM) Read(p []byte) (int, error) {
	if s.left > 0 {
		s.left--
		return 0, nil
	}
	s.left = s.stalls
	return s.memPCM.Read(p)
}

func TestResample_WaitsOutEmptyReads(t *testing.T) {
	src := &stallingPCM{memPCM: newMemPCM(1000, 1, 0, 100), stalls: 3, left: 3}
	dec, err := resample(src, 2000)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 50, 100, 100}, readSamples(t, dec))

	stuck := &stallingPCM{memPCM: newMemPCM(1000, 1, 0, 100), stalls: maxEmptyReads, left: maxEmptyReads}
	dec, err = resample(stuck, 2000)
	require.NoError(t, err)
	_, err = dec.Read(make([]byte, 8))
	assert.ErrorIs(t, err, io.ErrNoProgress)
}
