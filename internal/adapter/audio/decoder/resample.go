package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// maxEmptyReads bounds how often a reader may return no data and no error
// before it is treated as stuck.
const maxEmptyReads = 100

const resampleChunkFrames = 2048

// resample returns dec converted to rate. A decoder already at rate is
// returned as is.
func resample(dec pcmDecoder, rate int) (pcmDecoder, error) {
	srcRate, channels := dec.SampleRate(), dec.ChannelCount()
	if srcRate <= 0 {
		return nil, fmt.Errorf("sample rate %d", srcRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("channel count %d", channels)
	}
	if srcRate == rate {
		return dec, nil
	}

	r := &resampler{
		src:        dec,
		rate:       int64(rate),
		srcRate:    int64(srcRate),
		channels:   channels,
		frameBytes: channels * 2,
		totalOut:   -1,
	}
	if length := dec.Length(); length >= 0 {
		r.totalSrc = length / int64(r.frameBytes)
		r.totalOut = r.totalSrc * r.rate / r.srcRate
		if r.totalSrc > 0 && r.totalOut == 0 {
			r.totalOut = 1
		}
	}
	return r, nil
}

// resampler converts 16-bit PCM from one sample rate to another by linear
// interpolation between neighbouring source frames. The channel layout is kept.
type resampler struct {
	src        pcmDecoder
	rate       int64
	srcRate    int64
	channels   int
	frameBytes int

	totalSrc int64
	totalOut int64 // -1 when the source length is unknown
	outFrame int64

	// samples holds decoded source frames starting at frame base
	base    int64
	samples []int16
	partial []byte
	raw     []byte
	srcEOF  bool
}

func (r *resampler) Length() int64 {
	if r.totalOut < 0 {
		return -1
	}
	return r.totalOut * int64(r.frameBytes)
}

func (r *resampler) SampleRate() int   { return int(r.rate) }
func (r *resampler) ChannelCount() int { return r.channels }

func (r *resampler) Read(p []byte) (int, error) {
	want := len(p) / r.frameBytes
	if want == 0 {
		return 0, io.ErrShortBuffer
	}

	written := 0
	for written < want {
		if r.totalOut >= 0 && r.outFrame >= r.totalOut {
			break
		}
		num := r.outFrame * r.srcRate
		i, frac := num/r.rate, num%r.rate

		if err := r.fill(i + 1); err != nil {
			if written > 0 {
				return written * r.frameBytes, nil
			}
			return 0, err
		}
		if !r.has(i) {
			break
		}
		next := i
		if frac > 0 && r.has(i+1) {
			next = i + 1
		}

		out := p[written*r.frameBytes:]
		for ch := 0; ch < r.channels; ch++ {
			a := r.sample(i, ch)
			b := r.sample(next, ch)
			putSample(out[ch*2:], interpolate(a, b, frac, r.rate))
		}
		written++
		r.outFrame++
	}

	r.compact(r.outFrame * r.srcRate / r.rate)
	if written == 0 {
		return 0, io.EOF
	}
	return written * r.frameBytes, nil
}

func (r *resampler) Seek(offset int64, whence int) (int64, error) {
	pos := r.outFrame * int64(r.frameBytes)
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos += offset
	case io.SeekEnd:
		if r.totalOut < 0 {
			return pos, errors.New("seek from end of a stream of unknown length")
		}
		pos = r.Length() + offset
	default:
		return pos, fmt.Errorf("invalid seek whence: %d", whence)
	}
	pos = max(pos, 0)
	if r.totalOut >= 0 {
		pos = min(pos, r.Length())
	}

	outFrame := pos / int64(r.frameBytes)
	srcFrame := outFrame * r.srcRate / r.rate
	if _, err := r.src.Seek(srcFrame*int64(r.frameBytes), io.SeekStart); err != nil {
		return r.outFrame * int64(r.frameBytes), err
	}
	r.outFrame = outFrame
	r.base = srcFrame
	r.samples = r.samples[:0]
	r.partial = r.partial[:0]
	r.srcEOF = false
	return outFrame * int64(r.frameBytes), nil
}

func (r *resampler) has(frame int64) bool {
	return frame >= r.base && frame < r.base+int64(len(r.samples)/r.channels)
}

func (r *resampler) sample(frame int64, ch int) int16 {
	return r.samples[int(frame-r.base)*r.channels+ch]
}

// fill decodes until frame is buffered or the source ends.
func (r *resampler) fill(frame int64) error {
	empty := 0
	for !r.srcEOF && !r.has(frame) {
		readSize := resampleChunkFrames * r.frameBytes
		if cap(r.raw) < readSize {
			r.raw = make([]byte, readSize)
		}
		n, err := r.src.Read(r.raw[:readSize])
		if n > 0 {
			empty = 0
			r.decode(r.raw[:n])
		}
		switch {
		case errors.Is(err, io.EOF):
			r.srcEOF = true
		case err != nil:
			return err
		case n == 0:
			if empty++; empty >= maxEmptyReads {
				return io.ErrNoProgress
			}
		}
	}
	return nil
}

// decode converts whole frames of data and keeps a trailing partial frame.
func (r *resampler) decode(data []byte) {
	if len(r.partial) > 0 {
		data = append(r.partial, data...)
	}
	whole := len(data) / r.frameBytes * r.frameBytes
	for off := 0; off < whole; off += 2 {
		r.samples = append(r.samples, int16(binary.LittleEndian.Uint16(data[off:])))
	}
	r.partial = append(r.partial[:0], data[whole:]...)
}

// compact drops buffered frames before frame.
func (r *resampler) compact(frame int64) {
	drop := frame - r.base
	if drop <= 0 {
		return
	}
	buffered := int64(len(r.samples) / r.channels)
	if drop >= buffered {
		r.samples = r.samples[:0]
		r.base += buffered
		return
	}
	n := copy(r.samples, r.samples[drop*int64(r.channels):])
	r.samples = r.samples[:n]
	r.base += drop
}

func interpolate(a, b int16, frac, rate int64) int {
	if frac == 0 || a == b {
		return int(a)
	}
	diff := float64(int(b) - int(a))
	return int(a) + int(math.Round(diff*float64(frac)/float64(rate)))
}
