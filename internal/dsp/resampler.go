package dsp

import "math"

// Source produces frames on demand for the resampler.
type Source interface {
	Read(dst []Frame)
}

// Resampler changes playback speed by linear interpolation over a source.
// A ratio above 1 consumes source frames faster than it produces output.
//
// The resampler keeps the two most recent source frames between blocks so
// interpolation is continuous across block boundaries.
type Resampler struct {
	work  []Frame
	carry [2]Frame
	phase float64
	max   float64
}

// NewResampler sizes the resampler for blocks of up to blockSize output
// frames at ratios up to maxRatio.
func NewResampler(blockSize int, maxRatio float64) *Resampler {
	r := &Resampler{}
	r.Prepare(blockSize, maxRatio)
	return r
}

// Prepare resizes the scratch buffer and clears interpolation state.
func (r *Resampler) Prepare(blockSize int, maxRatio float64) {
	if blockSize < 1 {
		blockSize = 1
	}
	r.max = maxRatio
	r.work = make([]Frame, WorkFrames(blockSize, maxRatio))
	r.Reset()
}

// WorkFrames is the scratch size needed for blockSize output frames.
func WorkFrames(blockSize int, maxRatio float64) int {
	return int(math.Ceil(float64(blockSize)*maxRatio)) + 3
}

// Reset drops the carried frames and fractional phase.
func (r *Resampler) Reset() {
	r.Seed(Frame{}, Frame{})
}

// Seed replaces the carried frames with the two source frames that precede
// the next Read and zeroes the phase. After a jump in the source this keeps
// the first output frames on the new material.
func (r *Resampler) Seed(prev2, prev1 Frame) {
	r.carry = [2]Frame{prev2, prev1}
	r.phase = 0
}

// Process fills dst with frames pulled from src at the given ratio. dst must
// not exceed the prepared block size.
func (r *Resampler) Process(src Source, dst []Frame, ratio float64) {
	n := len(dst)
	if n == 0 {
		return
	}
	if ratio > r.max {
		ratio = r.max
	}

	end := r.phase + float64(n)*ratio
	advance := int(end)
	need := advance + 2
	if need > len(r.work) {
		need = len(r.work)
		advance = need - 2
	}

	work := r.work[:need]
	work[0] = r.carry[0]
	work[1] = r.carry[1]
	src.Read(work[2:])

	pos := r.phase
	for i := range dst {
		k := int(pos)
		if k+1 >= need {
			k = need - 2
		}
		frac := pos - float64(k)
		a, b := work[k], work[k+1]
		dst[i][0] = a[0] + (b[0]-a[0])*frac
		dst[i][1] = a[1] + (b[1]-a[1])*frac
		pos += ratio
	}

	r.carry[0] = work[advance]
	r.carry[1] = work[advance+1]
	r.phase = end - float64(advance)
	if r.phase < 0 || r.phase >= 1 {
		r.phase = end - math.Floor(end)
	}
}
