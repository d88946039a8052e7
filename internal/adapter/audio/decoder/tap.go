package decoder

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// outputChannels is the channel layout handed to the output device.
const outputChannels = 2

const outputFrameBytes = outputChannels * 2

// tap sits between a decoder and the output player. It converts the
// decoder's PCM to stereo for the device and copies every frame it hands
// out into a ring so the visualizer can read what is being played.
type tap struct {
	mu       sync.Mutex
	src      io.ReadSeeker
	channels int
	ring     *sampleRing

	scratch []byte
	pending []byte
	floats  []float64

	frames atomic.Int64
	eof    atomic.Bool
}

func newTap(src io.ReadSeeker, channels int, ring *sampleRing) *tap {
	return &tap{src: src, channels: channels, ring: ring}
}

// Read implements io.Reader for the output player.
func (t *tap) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	want := len(p) / outputFrameBytes
	if want == 0 {
		return 0, nil
	}

	// Keep reading until a whole frame is in hand so the player never gets (0, nil)
	inFrame := t.channels * 2
	var err error
	for empty := 0; len(t.pending) < inFrame && err == nil; {
		need := want*inFrame - len(t.pending)
		if cap(t.scratch) < need {
			t.scratch = make([]byte, need)
		}
		var n int
		n, err = t.src.Read(t.scratch[:need])
		t.pending = append(t.pending, t.scratch[:n]...)
		if n > 0 {
			empty = 0
		} else if empty++; err == nil && empty >= maxEmptyReads {
			err = io.ErrNoProgress
		}
	}

	data := t.pending
	whole := min(len(data)/inFrame, want)
	if cap(t.floats) < whole*outputChannels {
		t.floats = make([]float64, whole*outputChannels)
	}
	floats := t.floats[:whole*outputChannels]

	for i := 0; i < whole; i++ {
		in := data[i*inFrame:]
		left := int16(binary.LittleEndian.Uint16(in))
		right := left
		if t.channels > 1 {
			right = int16(binary.LittleEndian.Uint16(in[2:]))
		}
		binary.LittleEndian.PutUint16(p[i*outputFrameBytes:], uint16(left))
		binary.LittleEndian.PutUint16(p[i*outputFrameBytes+2:], uint16(right))
		floats[2*i] = float64(left) / -math.MinInt16
		floats[2*i+1] = float64(right) / -math.MinInt16
	}
	t.pending = t.pending[:copy(t.pending, data[whole*inFrame:])]

	t.ring.Write(floats)
	t.frames.Add(int64(whole))
	if err == io.EOF {
		t.eof.Store(true)
	}
	return whole * outputFrameBytes, err
}

// Frames returns how many frames have been handed to the output.
func (t *tap) Frames() int64 {
	return t.frames.Load()
}

// Ended reports whether the decoder has been read to the end.
func (t *tap) Ended() bool {
	return t.eof.Load()
}

// Rewind seeks the decoder back to the start and forgets all counters.
func (t *tap) Rewind() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	t.pending = t.pending[:0]
	t.ring.Reset()
	t.frames.Store(0)
	t.eof.Store(false)
	return nil
}
