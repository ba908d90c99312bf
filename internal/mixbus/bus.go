// Package mixbus sums every open deck into the device stream.
package mixbus

import (
	"encoding/binary"
	"math"
	"slices"
	"sync/atomic"

	"github.com/olivier-w/decks/internal/dsp"
)

// Source renders frames into dst, overwriting it.
type Source interface {
	Process(dst []dsp.Frame)
}

// Bus is the output mixer. AddSource and RemoveSource run on the UI
// goroutine; Process runs on the audio goroutine and sees one consistent
// source list per call.
type Bus struct {
	sources atomic.Pointer[[]Source]

	blockSize int
	rate      float64
	scratch   []dsp.Frame
}

// New returns an empty bus prepared for blockSize frames.
func New(blockSize int, sampleRate float64) *Bus {
	b := &Bus{}
	empty := []Source{}
	b.sources.Store(&empty)
	b.Prepare(blockSize, sampleRate)
	return b
}

// Prepare sizes the mixing scratch buffer. It must not run concurrently with Process.
func (b *Bus) Prepare(blockSize int, sampleRate float64) {
	b.blockSize = max(blockSize, 1)
	b.rate = sampleRate
	b.scratch = make([]dsp.Frame, b.blockSize)
}

// BlockSize returns the prepared block size.
func (b *Bus) BlockSize() int { return b.blockSize }

// SampleRate returns the prepared rate.
func (b *Bus) SampleRate() float64 { return b.rate }

// AddSource adds s unless it is already on the bus.
func (b *Bus) AddSource(s Source) {
	cur := *b.sources.Load()
	if slices.Contains(cur, s) {
		return
	}
	next := make([]Source, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, s)
	b.sources.Store(&next)
}

// RemoveSource takes s off the bus and reports whether it was present.
func (b *Bus) RemoveSource(s Source) bool {
	cur := *b.sources.Load()
	i := slices.Index(cur, s)
	if i < 0 {
		return false
	}
	next := make([]Source, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)
	b.sources.Store(&next)
	return true
}

// Sources returns the current source list. The slice must not be modified.
func (b *Bus) Sources() []Source {
	return *b.sources.Load()
}

// Process writes the sum of every source into dst.
func (b *Bus) Process(dst []dsp.Frame) {
	clear(dst)
	srcs := *b.sources.Load()
	if len(srcs) == 0 {
		return
	}
	for len(dst) > 0 {
		n := min(len(dst), len(b.scratch))
		out, tmp := dst[:n], b.scratch[:n]
		for _, s := range srcs {
			s.Process(tmp)
			for i := range out {
				out[i][0] += tmp[i][0]
				out[i][1] += tmp[i][1]
			}
		}
		dst = dst[n:]
	}
}

// BytesPerFrame is the size of one interleaved float32 stereo frame.
const BytesPerFrame = 8

// Reader renders a bus as interleaved little-endian float32 stereo.
type Reader struct {
	bus    *Bus
	frames []dsp.Frame
}

// NewReader returns a Reader pulling from b. It must be created after b is prepared.
func NewReader(b *Bus) *Reader {
	return &Reader{bus: b, frames: make([]dsp.Frame, b.BlockSize())}
}

// Read fills p with whole frames and never returns an error. Samples are
// clamped to [-1, 1].
func (r *Reader) Read(p []byte) (int, error) {
	total := len(p) / BytesPerFrame
	written := 0
	for written < total {
		n := min(total-written, len(r.frames))
		buf := r.frames[:n]
		r.bus.Process(buf)
		off := written * BytesPerFrame
		for i, f := range buf {
			j := off + i*BytesPerFrame
			binary.LittleEndian.PutUint32(p[j:], math.Float32bits(clampUnit(f[0])))
			binary.LittleEndian.PutUint32(p[j+4:], math.Float32bits(clampUnit(f[1])))
		}
		written += n
	}
	return written * BytesPerFrame, nil
}

func clampUnit(v float64) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return float32(v)
}
