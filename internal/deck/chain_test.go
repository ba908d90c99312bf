package deck

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/decks/internal/decoder"
	"github.com/olivier-w/decks/internal/dsp"
	"github.com/olivier-w/decks/internal/spectrum"
)

// stubDecoder serves generated clips keyed by path.
type stubDecoder struct {
	clips map[string]*decoder.PCM
}

func (s stubDecoder) Open(path string) (*decoder.PCM, error) {
	if p, ok := s.clips[path]; ok {
		return p, nil
	}
	return nil, errors.New("no such clip")
}

func tone(seconds, freq, amp float64, rate int) *decoder.PCM {
	n := int(seconds * float64(rate))
	s := make([]float32, n*decoder.Channels)
	for i := range n {
		v := float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		s[2*i], s[2*i+1] = v, v
	}
	return &decoder.PCM{Samples: s, Rate: rate}
}

func newLoaded(t *testing.T, clip *decoder.PCM) *Chain {
	t.Helper()
	c := New(3, stubDecoder{clips: map[string]*decoder.PCM{"a.wav": clip}})
	require.True(t, c.Load("a.wav"))
	return c
}

func peak(buf []dsp.Frame) float64 {
	m := 0.0
	for _, f := range buf {
		m = max(m, math.Abs(f[0]), math.Abs(f[1]))
	}
	return m
}

func TestDefaults(t *testing.T) {
	c := New(7, stubDecoder{})
	assert.Equal(t, 7, c.ID())
	assert.Equal(t, 1.0, c.Gain())
	assert.Equal(t, 1.0, c.Speed())
	low, high := c.Cutoff()
	assert.Equal(t, MinCutoff, low)
	assert.Equal(t, MaxCutoff, high)
	assert.Equal(t, DefaultSampleRate, c.SampleRate())
	assert.False(t, c.Loaded())
	assert.False(t, c.Playing())
	assert.Equal(t, 0.0, c.PositionRelative())
}

func TestSetterRanges(t *testing.T) {
	c := New(0, stubDecoder{})
	cases := []struct {
		name string
		set  func(float64) bool
		ok   []float64
		bad  []float64
	}{
		{"gain", c.SetGain, []float64{0, 1, 2}, []float64{-0.01, 2.01, math.NaN()}},
		{"speed", c.SetSpeed, []float64{0.5, 1, 10}, []float64{0.49, 10.1, 0, math.NaN()}},
	}
	for _, tc := range cases {
		for _, v := range tc.ok {
			assert.True(t, tc.set(v), "%s %v", tc.name, v)
		}
		for _, v := range tc.bad {
			assert.False(t, tc.set(v), "%s %v", tc.name, v)
		}
	}

	assert.True(t, c.SetGain(0.7))
	assert.False(t, c.SetGain(3))
	assert.Equal(t, 0.7, c.Gain())

	assert.True(t, c.SetCutoffFrequency(20, 20000))
	assert.True(t, c.SetCutoffFrequency(500, 500))
	assert.False(t, c.SetCutoffFrequency(19, 1000))
	assert.False(t, c.SetCutoffFrequency(100, 20001))
	assert.False(t, c.SetCutoffFrequency(2000, 1000))
	low, high := c.Cutoff()
	assert.Equal(t, 500.0, low)
	assert.Equal(t, 500.0, high)
}

func TestPositionRoundTrip(t *testing.T) {
	c := newLoaded(t, tone(10, 440, 0.5, 44100))
	assert.InDelta(t, 10.0, c.Duration(), 1e-9)

	require.True(t, c.SetPositionRelative(0.5))
	assert.InDelta(t, 0.5, c.PositionRelative(), 1e-4)
	assert.InDelta(t, 5.0, c.Position(), 1e-4)

	assert.False(t, c.SetPositionRelative(1.5))
	assert.False(t, c.SetPositionRelative(-0.1))
	assert.False(t, c.SetPosition(10.5))
	assert.False(t, c.SetPosition(-1))
	assert.InDelta(t, 0.5, c.PositionRelative(), 1e-4)

	assert.True(t, c.SetPosition(10))
	assert.True(t, c.SetPosition(0))
}

func TestPositionRejectedWhenEmpty(t *testing.T) {
	c := New(0, stubDecoder{})
	assert.True(t, c.SetPosition(0))
	assert.False(t, c.SetPosition(1))
	assert.Equal(t, 0.0, c.PositionRelative())
}

func TestFastForwardAndReverse(t *testing.T) {
	c := newLoaded(t, tone(10, 440, 0.5, 44100))
	require.True(t, c.SetSpeed(2))
	require.True(t, c.SetPosition(4))

	assert.True(t, c.FastForward())
	assert.InDelta(t, 6, c.Position(), 1e-4)
	assert.True(t, c.FastReverse())
	assert.InDelta(t, 4, c.Position(), 1e-4)

	require.True(t, c.SetPosition(9))
	assert.False(t, c.FastForward())
	assert.InDelta(t, 9, c.Position(), 1e-4)

	require.True(t, c.SetPosition(1))
	assert.False(t, c.FastReverse())
	assert.InDelta(t, 1, c.Position(), 1e-4)
}

func TestPlaybackAdvancesAtSpeed(t *testing.T) {
	c := newLoaded(t, tone(10, 440, 0.5, 44100))
	require.True(t, c.SetSpeed(2))
	c.Start()
	buf := make([]dsp.Frame, 512)
	for range 100 {
		c.Process(buf)
	}
	assert.InDelta(t, 2*51200/44100.0, c.Position(), 1e-6)

	require.True(t, c.SetSpeed(0.5))
	before := c.Position()
	for range 100 {
		c.Process(buf)
	}
	assert.InDelta(t, 0.5*51200/44100.0, c.Position()-before, 1.0/44100)
}

func TestStopKeepsPositionRewindResets(t *testing.T) {
	c := newLoaded(t, tone(5, 440, 0.5, 44100))
	c.Start()
	buf := make([]dsp.Frame, 512)
	c.Process(buf)
	c.Stop()
	pos := c.Position()
	assert.Greater(t, pos, 0.0)

	for range 10 {
		c.Process(buf)
	}
	assert.Equal(t, pos, c.Position())
	assert.Less(t, peak(buf), 0.01)

	c.Rewind()
	assert.False(t, c.Playing())
	assert.Equal(t, 0.0, c.Position())
}

func TestEndOfClipStops(t *testing.T) {
	c := newLoaded(t, tone(0.05, 440, 0.5, 44100))
	c.Start()
	buf := make([]dsp.Frame, 512)
	for range 10 {
		c.Process(buf)
	}
	assert.False(t, c.Playing())
	assert.InDelta(t, c.Duration(), c.Position(), 1e-9)
}

func TestSeekDuringPlaybackWins(t *testing.T) {
	c := newLoaded(t, tone(10, 440, 0.5, 44100))
	c.Start()
	buf := make([]dsp.Frame, 512)
	c.Process(buf)
	require.True(t, c.SetPosition(8))
	c.Process(buf)
	assert.InDelta(t, 8+512/44100.0, c.Position(), 1e-6)
}

func TestProcessFiltersInOrder(t *testing.T) {
	c := newLoaded(t, tone(5, 1000, 0.5, 44100))
	c.Start()
	buf := make([]dsp.Frame, 4096)

	c.Process(buf)
	assert.InDelta(t, 0.5, peak(buf[2048:]), 0.02)

	require.True(t, c.SetCutoffFrequency(20, 200))
	c.Process(buf)
	c.Process(buf)
	assert.Less(t, peak(buf), 0.05)

	require.True(t, c.SetCutoffFrequency(5000, 20000))
	c.Process(buf)
	c.Process(buf)
	assert.Less(t, peak(buf), 0.05)

	require.True(t, c.SetCutoffFrequency(20, 20000))
	require.True(t, c.SetGain(2))
	c.Process(buf)
	c.Process(buf)
	assert.InDelta(t, 1.0, peak(buf), 0.04)

	require.True(t, c.SetGain(0))
	c.Process(buf)
	c.Process(buf)
	assert.Less(t, peak(buf), 1e-3)
}

func TestUnloadedChainIsSilent(t *testing.T) {
	c := New(0, stubDecoder{})
	buf := make([]dsp.Frame, 1024)
	for i := range buf {
		buf[i] = dsp.Frame{1, 1}
	}
	c.Start()
	c.Process(buf)
	assert.Equal(t, 0.0, peak(buf))
	assert.False(t, c.Playing())
}

func TestLoadFailureKeepsPreviousSource(t *testing.T) {
	c := newLoaded(t, tone(3, 440, 0.5, 44100))
	require.True(t, c.SetPosition(1))
	assert.False(t, c.Load("missing.wav"))
	assert.True(t, c.Loaded())
	assert.Equal(t, "a.wav", c.Path())
	assert.InDelta(t, 3, c.Duration(), 1e-9)
	assert.InDelta(t, 1, c.Position(), 1e-4)
}

func TestPrepareNewRateKeepsRelativePosition(t *testing.T) {
	c := newLoaded(t, tone(2, 440, 0.5, 44100))
	require.True(t, c.SetPositionRelative(0.25))
	c.Prepare(256, 48000)
	assert.Equal(t, 48000.0, c.SampleRate())
	assert.Equal(t, 256, c.BlockSize())
	assert.InDelta(t, 2, c.Duration(), 0.02)
	assert.InDelta(t, 0.25, c.PositionRelative(), 0.01)
}

func TestAnalyzerReceivesSamples(t *testing.T) {
	c := newLoaded(t, tone(2, 1000, 0.5, 44100))
	a := spectrum.New()
	c.AttachAnalyzer(a)
	c.Start()
	buf := make([]dsp.Frame, 1024)
	c.Process(buf)
	assert.False(t, a.Ready())
	c.Process(buf)
	assert.True(t, a.Ready())

	c.DetachAnalyzer()
	assert.True(t, a.Update())
	c.Process(buf)
	c.Process(buf)
	assert.False(t, a.Ready())
}

func TestLargeBlocksAreChunked(t *testing.T) {
	c := newLoaded(t, tone(2, 440, 0.5, 44100))
	c.Prepare(128, 44100)
	c.Start()
	buf := make([]dsp.Frame, 1000)
	c.Process(buf)
	assert.InDelta(t, 1000/44100.0, c.Position(), 1e-9)
}

func TestProcessDoesNotAllocate(t *testing.T) {
	c := newLoaded(t, tone(30, 440, 0.5, 44100))
	c.AttachAnalyzer(spectrum.New())
	require.True(t, c.SetSpeed(1.3))
	c.Start()
	buf := make([]dsp.Frame, 512)
	allocs := testing.AllocsPerRun(200, func() { c.Process(buf) })
	if allocs != 0 {
		t.Fatalf("Process allocated %v times", allocs)
	}
}

func TestEnvelope(t *testing.T) {
	c := New(0, stubDecoder{})
	assert.Nil(t, c.Envelope(10))

	clip := tone(1, 440, 0.5, 44100)
	for i := 0; i < 22050*2; i++ {
		clip.Samples[i] = 0
	}
	c = newLoaded(t, clip)
	env := c.Envelope(4)
	require.Len(t, env, 4)
	assert.Equal(t, 0.0, env[0])
	assert.Equal(t, 0.0, env[1])
	assert.InDelta(t, 0.5, env[2], 0.01)
	assert.InDelta(t, 0.5, env[3], 0.01)
}

func ramp(frames, rate int) *decoder.PCM {
	s := make([]float32, frames*decoder.Channels)
	for i := range frames {
		v := float32(i) / 100000
		s[2*i], s[2*i+1] = v, v
	}
	return &decoder.PCM{Samples: s, Rate: rate}
}

func TestSeekReseedsResampler(t *testing.T) {
	c := newLoaded(t, ramp(44100, 44100))
	c.Start()
	out := make([]dsp.Frame, 64)
	c.snapshot()
	c.resampler.Process(c, out, 1)

	require.True(t, c.SetPosition(0.5))
	c.snapshot()
	c.resampler.Process(c, out, 1)
	// The first frames come from just before the new playhead, not from the
	// frames carried over from the old one.
	for i, f := range out {
		assert.InDelta(t, float64(22048+i)/100000, f[0], 1e-6, "frame %d", i)
	}
	assert.Equal(t, int64(22050+64), c.pos.Load())
}

func TestSeekWhilePausedKeepsSilentCarry(t *testing.T) {
	c := newLoaded(t, ramp(44100, 44100))
	require.True(t, c.SetPosition(0.5))
	out := make([]dsp.Frame, 64)
	c.Process(out)
	assert.Equal(t, 0.0, peak(out))
}

func TestBothFiltersRunFromOneSnapshot(t *testing.T) {
	c := newLoaded(t, tone(2, 1000, 0.5, 44100))
	c.Start()
	require.True(t, c.SetCutoffFrequency(200, 5000))
	buf := make([]dsp.Frame, 2048)
	c.Process(buf)

	used := c.block.filters
	require.NotNil(t, used)
	assert.Equal(t, 200.0, used.Low)
	assert.Equal(t, 5000.0, used.High)
	assert.Equal(t, used.LowPass, c.lowPass.Coefficients())
	assert.Equal(t, used.HighPass, c.highPass.Coefficients())

	// A change published after the call leaves the stages on the old pair
	// until the next call takes a new snapshot.
	require.True(t, c.SetCutoffFrequency(50, 10000))
	assert.Equal(t, used.LowPass, c.lowPass.Coefficients())
	assert.Equal(t, used.HighPass, c.highPass.Coefficients())
	low, high := c.Cutoff()
	assert.Equal(t, 50.0, low)
	assert.Equal(t, 10000.0, high)

	// Large blocks are chunked but still run from one snapshot.
	c.Process(make([]dsp.Frame, 4*c.BlockSize()))
	next := c.block.filters
	assert.Equal(t, next.LowPass, c.lowPass.Coefficients())
	assert.Equal(t, next.HighPass, c.highPass.Coefficients())
	assert.Equal(t, dsp.LowPass(44100, 10000), next.LowPass)
	assert.Equal(t, dsp.HighPass(44100, 50), next.HighPass)
}
