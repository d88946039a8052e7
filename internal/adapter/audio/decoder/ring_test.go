package decoder

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleRing_ReadAt(t *testing.T) {
	r := newSampleRing(4, 2)

	r.Write([]float64{1, -1, 2, -2, 3, -3})
	assert.Equal(t, int64(3), r.Written())

	dst := make([]float64, 4)
	require.True(t, r.ReadAt(dst, 3, 2))
	assert.Equal(t, []float64{2, -2, 3, -3}, dst)

	require.True(t, r.ReadAt(dst, 2, 2))
	assert.Equal(t, []float64{1, -1, 2, -2}, dst)

	assert.False(t, r.ReadAt(dst, 4, 2), "frames not written yet")
	assert.False(t, r.ReadAt(dst, 1, 2), "before the first frame")
	assert.False(t, r.ReadAt(dst, 3, 0))
	assert.False(t, r.ReadAt(make([]float64, 1), 3, 2), "dst too short")
}

func TestSampleRing_WrapsAndForgets(t *testing.T) {
	r := newSampleRing(4, 1)

	r.Write([]float64{1, 2, 3})
	r.Write([]float64{4, 5, 6})
	assert.Equal(t, int64(6), r.Written())

	dst := make([]float64, 4)
	require.True(t, r.ReadAt(dst, 6, 4))
	assert.Equal(t, []float64{3, 4, 5, 6}, dst)
	assert.False(t, r.ReadAt(dst[:2], 2, 2), "overwritten frames are gone")

	// A write larger than the ring keeps only its tail
	r.Write([]float64{10, 11, 12, 13, 14, 15})
	assert.Equal(t, int64(12), r.Written())
	require.True(t, r.ReadAt(dst, 12, 4))
	assert.Equal(t, []float64{12, 13, 14, 15}, dst)

	r.Reset()
	assert.Zero(t, r.Written())
	assert.False(t, r.ReadAt(dst, 4, 4))
}

func pcm16(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func TestTap_UpmixesMonoAndFillsRing(t *testing.T) {
	ring := newSampleRing(16, outputChannels)
	tp := newTap(bytes.NewReader(pcm16(16384, -16384, 32767)), 1, ring)

	out := make([]byte, 64)
	n, err := tp.Read(out)
	require.NoError(t, err)
	require.Equal(t, 3*outputFrameBytes, n)

	assert.Equal(t, pcm16(16384, 16384, -16384, -16384, 32767, 32767), out[:n])
	assert.Equal(t, int64(3), tp.Frames())

	dst := make([]float64, 6)
	require.True(t, ring.ReadAt(dst, 3, 3))
	assert.Equal(t, 0.5, dst[0])
	assert.Equal(t, 0.5, dst[1])
	assert.Equal(t, -0.5, dst[2])

	n, err = tp.Read(out)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, tp.Ended())

	require.NoError(t, tp.Rewind())
	assert.Zero(t, tp.Frames())
	assert.False(t, tp.Ended())
	assert.Zero(t, ring.Written())
}

func TestTap_KeepsPartialFrames(t *testing.T) {
	ring := newSampleRing(16, outputChannels)
	src := pcm16(1, 2, 3, 4, 5, 6)
	tp := newTap(bytes.NewReader(src), 2, ring)

	// Room for one output frame at a time
	out := make([]byte, outputFrameBytes)
	var got []byte
	for {
		n, err := tp.Read(out)
		got = append(got, out[:n]...)
		if err != nil {
			break
		}
	}
	assert.Equal(t, src, got)
	assert.Equal(t, int64(3), tp.Frames())
}

// stallingReader returns no data and no error before every real read.
type stallingReader struct {
	readSeeker
	stalls int
	left   int
}

func (s *stallingReader) Read(p []byte) (int, error) {
	if s.left > 0 {
		s.left--
		return 0, nil
	}
	s.left = s.stalls
	return s.Reader.Read(p)
}

func TestTap_ReadsPastEmptyReads(t *testing.T) {
	ring := newSampleRing(16, outputChannels)
	src := &stallingReader{readSeeker: readSeeker{bytes.NewReader(pcm16(7, 8, 9, 10))}, stalls: 2, left: 2}
	tp := newTap(src, 2, ring)

	out := make([]byte, 2*outputFrameBytes)
	n, err := tp.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 2*outputFrameBytes, n, "empty reads are retried")
	assert.Equal(t, pcm16(7, 8, 9, 10), out[:n])

	n, err = tp.Read(out)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	stuck := &stallingReader{readSeeker: readSeeker{bytes.NewReader(pcm16(1, 2))}, stalls: maxEmptyReads, left: maxEmptyReads}
	tp = newTap(stuck, 2, ring)
	n, err = tp.Read(out)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.ErrNoProgress)
}

type readSeeker struct{ io.Reader }

func (readSeeker) Seek(int64, int) (int64, error) { return 0, nil }

func TestTap_AssemblesFramesFromByteReads(t *testing.T) {
	ring := newSampleRing(16, outputChannels)
	tp := newTap(readSeeker{iotest.OneByteReader(bytes.NewReader(pcm16(3, 4)))}, 2, ring)

	out := make([]byte, outputFrameBytes)
	n, err := tp.Read(out)
	require.NoError(t, err)
	assert.Equal(t, outputFrameBytes, n, "one frame spread over four reads")
	assert.Equal(t, pcm16(3, 4), out)
}
