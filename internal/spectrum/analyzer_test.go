package spectrum

import (
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushSine(a *Analyzer, n int, freq, rate, amp float64) {
	for i := range n {
		a.Push(float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate)))
	}
}

func TestReadyOnlyAfterFullBlock(t *testing.T) {
	a := New()
	pushSine(a, BlockSize-1, 440, 44100, 0.5)
	assert.False(t, a.Ready())
	assert.False(t, a.Update())

	a.Push(0)
	assert.True(t, a.Ready())
	assert.True(t, a.Update())
	assert.False(t, a.Ready())
	assert.False(t, a.Update())
}

func TestSilenceIsFloor(t *testing.T) {
	a := New()
	for range BlockSize {
		a.Push(0)
	}
	require.True(t, a.Update())
	for i, v := range a.Curve() {
		if v != 0 {
			t.Fatalf("bin %d = %v, want 0", i, v)
		}
	}
}

func TestToneProducesPeak(t *testing.T) {
	a := New()
	pushSine(a, BlockSize, 1000, 44100, 1)
	require.True(t, a.Update())

	curve := a.Curve()
	require.Len(t, curve, Bins)
	peak := 0
	for i, v := range curve {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v > curve[peak] {
			peak = i
		}
	}
	assert.Greater(t, curve[peak], 0.5)
	// The floor of the lower bins sits well below the tone.
	assert.Less(t, curve[0], curve[peak])
}

func TestNewestBlockWins(t *testing.T) {
	a := New()
	pushSine(a, BlockSize, 1000, 44100, 1)
	for range BlockSize {
		a.Push(0)
	}
	require.True(t, a.Update())
	for _, v := range a.Curve() {
		assert.Equal(t, 0.0, v)
	}
}

func TestCurveKeptWhenNotReady(t *testing.T) {
	a := New()
	pushSine(a, BlockSize, 2000, 44100, 1)
	require.True(t, a.Update())
	before := append([]float64(nil), a.Curve()...)

	pushSine(a, BlockSize/2, 100, 44100, 1)
	assert.False(t, a.Update())
	assert.Equal(t, before, a.Curve())
}

func TestReset(t *testing.T) {
	a := New()
	pushSine(a, BlockSize+10, 1000, 44100, 1)
	a.Update()
	a.Reset()
	assert.False(t, a.Ready())
	for _, v := range a.Curve() {
		assert.Equal(t, 0.0, v)
	}
	pushSine(a, BlockSize-1, 1000, 44100, 1)
	assert.False(t, a.Ready())
}

func TestLevelMapping(t *testing.T) {
	ref := GainToDecibels(BlockSize)
	assert.Equal(t, 1.0, Level(BlockSize, ref))
	assert.Equal(t, 1.0, Level(4*BlockSize, ref))
	assert.Equal(t, 0.0, Level(0, ref))
	assert.InDelta(t, 0.5, Level(BlockSize*math.Pow(10, -50.0/20), ref), 1e-9)
	assert.Equal(t, MinDB, GainToDecibels(-1))
}

func TestPushDoesNotAllocate(t *testing.T) {
	a := New()
	allocs := testing.AllocsPerRun(10, func() {
		for range BlockSize + 7 {
			a.Push(0.25)
		}
	})
	if allocs != 0 {
		t.Fatalf("Push allocated %v times", allocs)
	}
}

func TestResetDiscardsPendingBlock(t *testing.T) {
	a := New()
	pushSine(a, BlockSize, 1000, 44100, 1)
	require.True(t, a.Ready())
	a.Reset()
	assert.False(t, a.Ready())
	assert.False(t, a.Update())

	// The next full block after the reset is shown.
	pushSine(a, BlockSize, 1000, 44100, 1)
	require.True(t, a.Update())
	assert.Greater(t, slices.Max(a.Curve()), 0.5)
}

func TestResetDropsPartialBlock(t *testing.T) {
	a := New()
	pushSine(a, BlockSize/2, 1000, 44100, 1)
	a.Reset()
	pushSine(a, BlockSize/2, 1000, 44100, 1)
	assert.False(t, a.Ready())
	pushSine(a, BlockSize/2, 1000, 44100, 1)
	assert.True(t, a.Ready())
}

func TestResetWhilePushing(t *testing.T) {
	a := New()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for range 256 {
				a.Push(0.5)
			}
		}
	}()
	for range 200 {
		a.Reset()
		a.Update()
		for _, v := range a.Curve() {
			require.False(t, math.IsNaN(v))
		}
	}
	close(done)
	wg.Wait()
}
