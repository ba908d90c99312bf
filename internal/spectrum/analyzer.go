// Package spectrum turns the sample stream of one deck into a log-skewed
// magnitude curve for display.
//
// Push runs on the audio goroutine; every other method runs on the UI
// goroutine. Full blocks move between the two through a triple buffer, so the
// producer never waits and the consumer always sees a complete block. Reset
// only bumps a generation; the producer drops its partial block when it sees
// the new one, and blocks from an older generation are never shown.
package spectrum

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// Order is log2 of the analysis block size.
	Order = 11
	// BlockSize is the number of samples per transform.
	BlockSize = 1 << Order
	// Bins is the number of points in the display curve.
	Bins = 512

	// MinDB and MaxDB bound the displayed level range.
	MinDB = -100.0
	MaxDB = 0.0

	skewFactor = 0.2
)

// The shared state word holds the middle buffer index in its low bits,
// freshBit for a block the consumer has not taken yet, and the generation the
// block was written under above genShift.
const (
	indexMask = 1<<2 - 1
	freshBit  = 1 << 2
	genShift  = 3
	genMask   = 1<<(32-genShift) - 1
)

// Analyzer accumulates samples into blocks and computes a spectrum curve on demand.
type Analyzer struct {
	bufs [3][BlockSize]float32

	middle atomic.Uint32
	gen    atomic.Uint32

	// Producer side.
	write   int
	fill    int
	pushGen uint32

	// Consumer side.
	read   int
	frame  []float64
	coeffs []complex128
	curve  []float64
	fft    *fourier.FFT
	norm   float64
}

// New returns an analyzer with a silent curve.
func New() *Analyzer {
	a := &Analyzer{
		frame:  make([]float64, BlockSize),
		coeffs: make([]complex128, BlockSize/2+1),
		curve:  make([]float64, Bins),
		fft:    fourier.NewFFT(BlockSize),
		norm:   GainToDecibels(BlockSize),
		read:   1,
	}
	a.middle.Store(2)
	return a
}

// Push appends one sample. A completed block replaces any block the consumer
// has not yet taken.
func (a *Analyzer) Push(sample float32) {
	if g := a.gen.Load(); g != a.pushGen {
		a.pushGen = g
		a.fill = 0
	}
	a.bufs[a.write][a.fill] = sample
	a.fill++
	if a.fill < BlockSize {
		return
	}
	a.fill = 0
	prev := a.middle.Swap(uint32(a.write) | freshBit | (a.pushGen&genMask)<<genShift)
	a.write = int(prev & indexMask)
}

// current reports whether state holds an untaken block of the live generation.
func (a *Analyzer) current(state uint32) bool {
	return state&freshBit != 0 && state>>genShift == a.gen.Load()&genMask
}

// Ready reports whether a full block is waiting.
func (a *Analyzer) Ready() bool {
	return a.current(a.middle.Load())
}

// Update consumes the newest block and recomputes the curve. It returns false
// and keeps the previous curve when no block is waiting.
func (a *Analyzer) Update() bool {
	if !a.Ready() {
		return false
	}
	prev := a.middle.Swap(uint32(a.read))
	a.read = int(prev & indexMask)
	if !a.current(prev) {
		return false
	}

	block := &a.bufs[a.read]
	for i, s := range block {
		a.frame[i] = float64(s)
	}
	window.Hann(a.frame)
	a.fft.Coefficients(a.coeffs, a.frame)

	for i := range a.curve {
		skew := 1 - math.Exp(math.Log(1-float64(i)/Bins)*skewFactor)
		idx := int(skew * BlockSize * 0.5)
		idx = max(0, min(BlockSize/2, idx))
		c := a.coeffs[idx]
		mag := math.Hypot(real(c), imag(c))
		a.curve[i] = Level(mag, a.norm)
	}
	return true
}

// Curve returns the current display curve, values in [0, 1]. The slice is
// reused by the next Update.
func (a *Analyzer) Curve() []float64 {
	return a.curve
}

// Reset clears the curve and discards any partial or pending block. It is
// safe while a producer is still pushing.
func (a *Analyzer) Reset() {
	a.gen.Add(1)
	clear(a.curve)
}

// GainToDecibels converts a linear magnitude to decibels, floored at MinDB.
func GainToDecibels(g float64) float64 {
	if g <= 0 {
		return MinDB
	}
	return max(MinDB, 20*math.Log10(g))
}

// Level maps a bin magnitude to the normalized display range given the
// reference level in decibels.
func Level(mag, refDB float64) float64 {
	db := GainToDecibels(mag) - refDB
	db = max(MinDB, min(MaxDB, db))
	return (db - MinDB) / (MaxDB - MinDB)
}
