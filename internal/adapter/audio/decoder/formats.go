package decoder

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// SupportedExtensions lists the file extensions Source can play.
var SupportedExtensions = []string{".mp3", ".wav", ".ogg", ".flac"}

// recognised but not decodable
var rejectedExtensions = []string{".m4a", ".aac", ".mp4"}

// IsSupported reports whether path has a playable extension.
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// FirstSupported returns the first playable file in dir, sorted by name.
func FirstSupported(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && IsSupported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no supported audio files in %s: %w", dir, domain.ErrFileNotFound)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// checkFormat returns an error wrapping domain.ErrUnsupportedFormat for
// anything Source cannot decode.
func checkFormat(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case slices.Contains(SupportedExtensions, ext):
		return nil
	case slices.Contains(rejectedExtensions, ext):
		return fmt.Errorf("%s files cannot be decoded: %w", ext, domain.ErrUnsupportedFormat)
	default:
		return fmt.Errorf("%q: %w", ext, domain.ErrUnsupportedFormat)
	}
}

// pcmDecoder yields interleaved 16-bit little-endian PCM in the file's own
// channel layout.
type pcmDecoder interface {
	io.ReadSeeker
	// Length is the total PCM size in bytes, or -1 when unknown.
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// openDecoder picks a decoder by file extension.
func openDecoder(f *os.File) (pcmDecoder, error) {
	if err := checkFormat(f.Name()); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(f.Name())) {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	default:
		return newOGGDecoder(f)
	}
}

// pcmStream holds the converted bytes a decoder could not hand out yet, and
// the output position used for seeking.
type pcmStream struct {
	buf      []byte
	pos      int64
	total    int64
	channels int
}

// drain copies buffered bytes into p.
func (s *pcmStream) drain(p []byte) (int, bool) {
	if len(s.buf) == 0 {
		return 0, false
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	s.pos += int64(n)
	return n, true
}

// emit copies raw into p and keeps what does not fit.
func (s *pcmStream) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		s.buf = raw[n:]
	}
	s.pos += int64(n)
	return n
}

// target resolves a Seek request to a clamped, frame aligned output offset.
func (s *pcmStream) target(offset int64, whence int) int64 {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.total + offset
	}
	pos = max(pos, 0)
	if s.total >= 0 {
		pos = min(pos, s.total)
	}
	frame := int64(s.channels) * 2
	return pos - pos%frame
}

func (s *pcmStream) moved(pos int64) {
	s.buf = nil
	s.pos = pos
}

func putSample(dst []byte, v int) {
	if v > math.MaxInt16 {
		v = math.MaxInt16
	} else if v < math.MinInt16 {
		v = math.MinInt16
	}
	binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
}

// MP3

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// WAV

type wavDecoder struct {
	pcmStream
	file       *os.File
	pcmStart   int64
	sampleRate int
	bitDepth   int
	srcFrame   int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d-bit WAV: %w", bitDepth, domain.ErrUnsupportedFormat)
	}
	if channels < 1 {
		return nil, fmt.Errorf("WAV with %d channels: %w", channels, domain.ErrUnsupportedFormat)
	}
	srcFrame := int64(channels * bitDepth / 8)

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating WAV PCM data: %w", err)
	}

	return &wavDecoder{
		pcmStream: pcmStream{
			total:    dec.PCMLen() / srcFrame * int64(channels) * 2,
			channels: channels,
		},
		file:       f,
		pcmStart:   pcmStart,
		sampleRate: int(dec.SampleRate),
		bitDepth:   bitDepth,
		srcFrame:   srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	if remaining := d.total - d.pos; remaining <= 0 {
		return 0, io.EOF
	} else if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	srcBytes := d.bitDepth / 8
	samples := max(len(p)/2, 1)
	src := make([]byte, samples*srcBytes)
	n, err := io.ReadFull(d.file, src)
	read := n / srcBytes
	if read == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, read*2)
	for i := 0; i < read; i++ {
		off := i * srcBytes
		var v int
		switch d.bitDepth {
		case 8:
			v = (int(src[off]) - 128) << 8
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			v = int(s >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		putSample(raw[i*2:], v)
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence)
	frame := pos / (int64(d.channels) * 2)
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *wavDecoder) Length() int64     { return d.total }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// FLAC

type flacDecoder struct {
	pcmStream
	stream     *flac.Stream
	sampleRate int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmStream: pcmStream{
			total:    int64(info.NSamples) * int64(channels) * 2,
			channels: channels,
		},
		stream:     stream,
		sampleRate: int(info.SampleRate),
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	samples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, samples*d.channels*2)
	for i := 0; i < samples; i++ {
		for ch := 0; ch < d.channels; ch++ {
			v := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				v >>= d.bps - 16
			case d.bps < 16:
				v <<= 16 - d.bps
			}
			putSample(raw[(i*d.channels+ch)*2:], v)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence)
	if _, err := d.stream.Seek(uint64(pos / (int64(d.channels) * 2))); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *flacDecoder) Length() int64     { return d.total }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// OGG Vorbis

type oggDecoder struct {
	pcmStream
	reader  *oggvorbis.Reader
	scratch []float32
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	total := int64(-1)
	if n := reader.Length(); n > 0 {
		total = n * int64(channels) * 2
	}
	return &oggDecoder{
		pcmStream: pcmStream{total: total, channels: channels},
		reader:    reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	want := max(len(p)/2, d.channels)
	if cap(d.scratch) < want {
		d.scratch = make([]float32, want)
	}
	n, err := d.reader.Read(d.scratch[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range d.scratch[:n] {
		putSample(raw[i*2:], int(math.Max(-1, math.Min(1, float64(s)))*math.MaxInt16))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence)
	if err := d.reader.SetPosition(pos / (int64(d.channels) * 2)); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *oggDecoder) Length() int64     { return d.total }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.channels }
