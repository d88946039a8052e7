package decoder

import "sync"

// sampleRing keeps the most recent sample frames handed to the output,
// addressed by their absolute frame index since the last reset.
type sampleRing struct {
	mu       sync.Mutex
	buf      []float64
	size     int // capacity in frames
	channels int
	written  int64
}

func newSampleRing(frames, channels int) *sampleRing {
	return &sampleRing{
		buf:      make([]float64, frames*channels),
		size:     frames,
		channels: channels,
	}
}

// Write appends interleaved samples. Partial trailing frames are dropped.
func (r *sampleRing) Write(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(samples) / r.channels
	if frames > r.size {
		skip := frames - r.size
		samples = samples[skip*r.channels:]
		r.written += int64(skip)
		frames = r.size
	}
	for i := 0; i < frames; i++ {
		at := int(r.written%int64(r.size)) * r.channels
		copy(r.buf[at:at+r.channels], samples[i*r.channels:])
		r.written++
	}
}

// Written returns the absolute index one past the newest frame.
func (r *sampleRing) Written() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// ReadAt copies the frames [end-frames, end) into dst and reports whether
// they were all still held.
func (r *sampleRing) ReadAt(dst []float64, end int64, frames int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := end - int64(frames)
	if frames <= 0 || start < 0 || end > r.written || start < r.written-int64(r.size) {
		return false
	}
	if len(dst) < frames*r.channels {
		return false
	}
	for i := 0; i < frames; i++ {
		at := int((start+int64(i))%int64(r.size)) * r.channels
		copy(dst[i*r.channels:(i+1)*r.channels], r.buf[at:at+r.channels])
	}
	return true
}

// Reset forgets every frame.
func (r *sampleRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.written = 0
}
