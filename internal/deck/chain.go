// Package deck implements the signal chain of one playback deck: transport,
// speed resampler, low-pass and high-pass, in that order.
//
// Control methods run on the UI goroutine. Process runs on the audio
// goroutine and takes a consistent snapshot of every parameter at the start
// of each call. Nothing on the audio path locks, allocates or logs.
package deck

import (
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/decks/internal/decoder"
	"github.com/olivier-w/decks/internal/dsp"
	"github.com/olivier-w/decks/internal/resample"
	"github.com/olivier-w/decks/internal/spectrum"
)

// Parameter ranges.
const (
	MinGain = 0.0
	MaxGain = 2.0

	MinSpeed = 0.5
	MaxSpeed = 10.0

	MinCutoff = 20.0
	MaxCutoff = 20000.0

	DefaultSampleRate = 44100.0
	DefaultBlockSize  = 512
)

// Decoder loads a file into memory.
type Decoder interface {
	Open(path string) (*decoder.PCM, error)
}

// Chain is one deck's processing chain.
type Chain struct {
	id  int
	dec Decoder

	// UI-goroutine state.
	rate      float64
	blockSize int
	native    *decoder.PCM
	path      string

	clip     atomic.Pointer[decoder.PCM]
	pos      atomic.Int64
	playing  atomic.Bool
	gain     atomic.Uint64
	speed    atomic.Uint64
	filters  atomic.Pointer[dsp.Pair]
	seeks    atomic.Uint64
	analyzer atomic.Pointer[spectrum.Analyzer]

	// Audio-goroutine state.
	block     blockParams
	seenSeek  uint64
	lastGain  float64
	resampler *dsp.Resampler
	lowPass   *dsp.Filter
	highPass  *dsp.Filter
}

// blockParams is the parameter snapshot taken at the start of Process.
type blockParams struct {
	clip    *decoder.PCM
	playing bool
	gain    float64
	speed   float64
	filters *dsp.Pair
}

// New returns an unloaded chain prepared with the default block size and rate.
func New(id int, dec Decoder) *Chain {
	c := &Chain{
		id:       id,
		dec:      dec,
		lowPass:  dsp.NewFilter(dsp.Identity),
		highPass: dsp.NewFilter(dsp.Identity),
	}
	storeFloat(&c.gain, 1)
	storeFloat(&c.speed, 1)
	c.lastGain = 1
	c.Prepare(DefaultBlockSize, DefaultSampleRate)
	return c
}

func storeFloat(v *atomic.Uint64, f float64) { v.Store(math.Float64bits(f)) }
func loadFloat(v *atomic.Uint64) float64    { return math.Float64frombits(v.Load()) }

func (c *Chain) log() *logrus.Entry {
	return logrus.WithField("slot", c.id)
}

// ID returns the deck's slot identity.
func (c *Chain) ID() int { return c.id }

// Prepare sizes every stage for blockSize frames at sampleRate. It may be
// called again, but never concurrently with Process. A loaded clip is
// converted to the new rate keeping its relative position.
func (c *Chain) Prepare(blockSize int, sampleRate float64) {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	rel := c.PositionRelative()
	rateChanged := sampleRate != c.rate

	c.blockSize = blockSize
	c.rate = sampleRate
	if c.resampler == nil {
		c.resampler = dsp.NewResampler(blockSize, MaxSpeed)
	} else {
		c.resampler.Prepare(blockSize, MaxSpeed)
	}
	c.lowPass.Reset()
	c.highPass.Reset()
	low, high := c.Cutoff()
	c.filters.Store(dsp.NewPair(sampleRate, low, high))

	if rateChanged && c.native != nil {
		matched, err := resample.ToRate(c.native, int(sampleRate))
		if err != nil {
			c.log().WithError(err).Warn("rate conversion failed, unloading")
			c.native, c.path = nil, ""
			c.clip.Store(nil)
			c.playing.Store(false)
			c.seek(0)
			return
		}
		c.clip.Store(matched)
		c.seek(int64(rel * float64(matched.Frames())))
	}
}

// seek stores a new playhead and tells the audio goroutine to reseed the
// resampler from it.
func (c *Chain) seek(frame int64) {
	c.pos.Store(frame)
	c.seeks.Add(1)
}

// Load decodes path and makes it the deck's source. On failure the previous
// source stays loaded and false is returned.
func (c *Chain) Load(path string) bool {
	entry := c.log().WithField("path", path)
	pcm, err := c.dec.Open(path)
	if err != nil {
		entry.WithError(err).Warn("load failed")
		return false
	}
	matched, err := resample.ToRate(pcm, int(c.rate))
	if err != nil {
		entry.WithError(err).Warn("rate conversion failed")
		return false
	}
	c.playing.Store(false)
	c.clip.Store(matched)
	c.seek(0)
	c.native, c.path = pcm, path
	entry.WithField("seconds", matched.Seconds()).Debug("loaded")
	return true
}

// Path returns the loaded file, or "" when nothing is loaded.
func (c *Chain) Path() string { return c.path }

// Loaded reports whether a source is attached.
func (c *Chain) Loaded() bool { return c.clip.Load() != nil }

// SampleRate returns the prepared device rate.
func (c *Chain) SampleRate() float64 { return c.rate }

// BlockSize returns the prepared block size.
func (c *Chain) BlockSize() int { return c.blockSize }

// SetGain sets the output gain. Values outside [0, 2] are rejected.
func (c *Chain) SetGain(v float64) bool {
	if !(v >= MinGain && v <= MaxGain) {
		c.log().WithField("value", v).Warn("gain out of range")
		return false
	}
	storeFloat(&c.gain, v)
	return true
}

// Gain returns the current gain.
func (c *Chain) Gain() float64 { return loadFloat(&c.gain) }

// SetSpeed sets the playback ratio. Values outside [0.5, 10] are rejected.
func (c *Chain) SetSpeed(r float64) bool {
	if !(r >= MinSpeed && r <= MaxSpeed) {
		c.log().WithField("value", r).Warn("speed out of range")
		return false
	}
	storeFloat(&c.speed, r)
	return true
}

// Speed returns the current playback ratio.
func (c *Chain) Speed() float64 { return loadFloat(&c.speed) }

// SetCutoffFrequency sets the high-pass cutoff to low and the low-pass cutoff
// to high. It requires 20 <= low <= high <= 20000.
func (c *Chain) SetCutoffFrequency(low, high float64) bool {
	if !(low >= MinCutoff && high <= MaxCutoff && low <= high) {
		c.log().WithFields(logrus.Fields{"low": low, "high": high}).Warn("cutoff out of range")
		return false
	}
	c.filters.Store(dsp.NewPair(c.rate, low, high))
	return true
}

// Cutoff returns the high-pass and low-pass cutoffs.
func (c *Chain) Cutoff() (low, high float64) {
	if p := c.filters.Load(); p != nil {
		return p.Low, p.High
	}
	return MinCutoff, MaxCutoff
}

// Duration returns the loaded clip length in seconds.
func (c *Chain) Duration() float64 {
	return c.clip.Load().Seconds()
}

// Position returns the playhead in seconds.
func (c *Chain) Position() float64 {
	if c.rate <= 0 {
		return 0
	}
	return float64(c.pos.Load()) / c.rate
}

// SetPosition moves the playhead. Positions outside [0, duration] are rejected.
func (c *Chain) SetPosition(sec float64) bool {
	dur := c.Duration()
	if !(sec >= 0 && sec <= dur) {
		c.log().WithFields(logrus.Fields{"value": sec, "duration": dur}).Warn("position out of range")
		return false
	}
	frame := int64(sec * c.rate)
	if clip := c.clip.Load(); clip != nil && frame > clip.Frames() {
		frame = clip.Frames()
	}
	c.seek(frame)
	return true
}

// SetPositionRelative moves the playhead to a fraction of the duration.
func (c *Chain) SetPositionRelative(r float64) bool {
	if !(r >= 0 && r <= 1) {
		c.log().WithField("value", r).Warn("relative position out of range")
		return false
	}
	return c.SetPosition(r * c.Duration())
}

// PositionRelative returns the playhead as a fraction of the duration, or 0
// for an empty clip.
func (c *Chain) PositionRelative() float64 {
	total := c.Duration()
	if math.Abs(total) < 1e-4 {
		return 0
	}
	return c.Position() / total
}

// Start resumes playback from the current position.
func (c *Chain) Start() {
	if c.clip.Load() == nil {
		return
	}
	c.playing.Store(true)
}

// Stop pauses playback and keeps the position.
func (c *Chain) Stop() { c.playing.Store(false) }

// Rewind stops playback and returns to the start.
func (c *Chain) Rewind() {
	c.playing.Store(false)
	c.seek(0)
}

// Playing reports whether the transport is running.
func (c *Chain) Playing() bool { return c.playing.Load() }

// FastForward jumps ahead by the speed ratio in seconds.
func (c *Chain) FastForward() bool {
	return c.SetPosition(c.Position() + c.Speed())
}

// FastReverse jumps back by the speed ratio in seconds.
func (c *Chain) FastReverse() bool {
	return c.SetPosition(c.Position() - c.Speed())
}

// AttachAnalyzer forwards the processed left channel to a.
func (c *Chain) AttachAnalyzer(a *spectrum.Analyzer) { c.analyzer.Store(a) }

// DetachAnalyzer stops forwarding samples.
func (c *Chain) DetachAnalyzer() { c.analyzer.Store(nil) }

// Process renders len(dst) frames. It never blocks or allocates.
func (c *Chain) Process(dst []dsp.Frame) {
	c.snapshot()
	an := c.analyzer.Load()
	f := c.block.filters

	for len(dst) > 0 {
		n := min(len(dst), c.blockSize)
		out := dst[:n]
		c.resampler.Process(c, out, c.block.speed)
		c.lowPass.Process(out, f.LowPass)
		c.highPass.Process(out, f.HighPass)
		if an != nil {
			for i := range out {
				an.Push(float32(out[i][0]))
			}
		}
		dst = dst[n:]
	}
}

// snapshot loads every parameter for the coming call and reseeds the
// resampler when the playhead was moved from outside.
func (c *Chain) snapshot() {
	c.block = blockParams{
		clip:    c.clip.Load(),
		playing: c.playing.Load(),
		gain:    loadFloat(&c.gain),
		speed:   loadFloat(&c.speed),
		filters: c.filters.Load(),
	}
	if g := c.seeks.Load(); g != c.seenSeek {
		c.seenSeek = g
		c.reseed()
	}
}

// reseed primes the resampler with the two clip frames before the playhead.
func (c *Chain) reseed() {
	var prev [2]dsp.Frame
	if clip := c.block.clip; clip != nil && c.block.playing {
		start := c.pos.Load() - int64(len(prev))
		for i := range prev {
			j := start + int64(i)
			if j < 0 || j >= clip.Frames() {
				continue
			}
			s := clip.Samples[j*decoder.Channels:]
			prev[i] = dsp.Frame{float64(s[0]) * c.lastGain, float64(s[1]) * c.lastGain}
		}
	}
	c.resampler.Seed(prev[0], prev[1])
}

// Read is the transport stage: it copies frames from the clip at the
// playhead, applies gain and advances the playhead. It is called by the
// resampler from within Process.
func (c *Chain) Read(dst []dsp.Frame) {
	p := &c.block
	target := p.gain
	if p.clip == nil || !p.playing {
		clear(dst)
		c.lastGain = target
		return
	}

	start := c.pos.Load()
	frames := p.clip.Frames()
	if start < 0 {
		start = 0
	}
	n := int64(len(dst))
	if start+n > frames {
		n = max(0, frames-start)
	}

	step := (target - c.lastGain) / float64(len(dst))
	g := c.lastGain
	s := p.clip.Samples
	for i := range n {
		g += step
		j := (start + i) * decoder.Channels
		dst[i] = dsp.Frame{float64(s[j]) * g, float64(s[j+1]) * g}
	}
	clear(dst[n:])
	c.lastGain = target

	end := start + n
	if c.pos.CompareAndSwap(start, end) && end >= frames {
		p.playing = false
		c.playing.CompareAndSwap(true, false)
	}
}
