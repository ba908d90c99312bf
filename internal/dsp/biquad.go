// Package dsp holds the per-deck processing stages that run on the audio
// goroutine. Stages work in place on stereo float64 frames and never
// allocate while processing.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Frame is one stereo sample pair.
type Frame = [2]float64

// butterworthQ gives a maximally flat second-order response.
const butterworthQ = 1 / math.Sqrt2

// maxCutoffRatio keeps the design frequency below Nyquist for low device rates.
const maxCutoffRatio = 0.499

// Identity passes the signal through unchanged.
var Identity = biquad.Coefficients{B0: 1}

func designFreq(sampleRate, cutoff float64) float64 {
	return max(1, min(cutoff, sampleRate*maxCutoffRatio))
}

// LowPass designs a second-order Butterworth low-pass.
func LowPass(sampleRate, cutoff float64) biquad.Coefficients {
	return design.Lowpass(designFreq(sampleRate, cutoff), butterworthQ, sampleRate)
}

// HighPass designs a second-order Butterworth high-pass.
func HighPass(sampleRate, cutoff float64) biquad.Coefficients {
	return design.Highpass(designFreq(sampleRate, cutoff), butterworthQ, sampleRate)
}

// Response returns the magnitude response of c at freq.
func Response(c biquad.Coefficients, sampleRate, freq float64) float64 {
	return cmplx.Abs(biquad.NewSection(c).Response(freq, sampleRate))
}

// Pair is an immutable low-pass/high-pass coefficient set. A deck publishes
// a new Pair whenever a cutoff changes, so both stages of one block always
// come from the same design.
type Pair struct {
	LowPass  biquad.Coefficients
	HighPass biquad.Coefficients
	// Low and High are the cutoffs the pair was designed for.
	Low, High float64
}

// NewPair designs the high-pass at low and the low-pass at high.
func NewPair(sampleRate, low, high float64) *Pair {
	return &Pair{
		LowPass:  LowPass(sampleRate, high),
		HighPass: HighPass(sampleRate, low),
		Low:      low,
		High:     high,
	}
}

// Response returns the magnitude response of both stages in series.
func (p *Pair) Response(sampleRate, freq float64) float64 {
	return Response(p.LowPass, sampleRate, freq) * Response(p.HighPass, sampleRate, freq)
}

// Filter is a stereo biquad stage. It is owned by the audio goroutine; the
// coefficients to run arrive with each Process call.
type Filter struct {
	sec [2]biquad.Section
}

// NewFilter returns a filter starting from c with a clear history.
func NewFilter(c biquad.Coefficients) *Filter {
	f := &Filter{}
	for ch := range f.sec {
		f.sec[ch] = *biquad.NewSection(c)
	}
	return f
}

// Coefficients returns the set the filter last ran with.
func (f *Filter) Coefficients() biquad.Coefficients {
	return f.sec[0].Coefficients
}

// Reset clears the filter history. Callers must not run it concurrently with Process.
func (f *Filter) Reset() {
	c := f.Coefficients()
	for ch := range f.sec {
		f.sec[ch] = *biquad.NewSection(c)
	}
}

// Process filters buf in place with c. The history carries over when c
// differs from the previous call.
func (f *Filter) Process(buf []Frame, c biquad.Coefficients) {
	if f.sec[0].Coefficients != c {
		f.sec[0].Coefficients = c
		f.sec[1].Coefficients = c
	}
	l, r := &f.sec[0], &f.sec[1]
	for i := range buf {
		buf[i][0] = l.ProcessSample(buf[i][0])
		buf[i][1] = r.ProcessSample(buf[i][1])
	}
}
