package deck

import (
	"math"

	"github.com/olivier-w/decks/internal/decoder"
)

// Envelope returns the peak level of the loaded clip in columns equal-width
// slices, for an overview display. It reads the immutable clip and may run on
// the UI goroutine at any time.
func (c *Chain) Envelope(columns int) []float64 {
	clip := c.clip.Load()
	if clip == nil || columns <= 0 {
		return nil
	}
	out := make([]float64, columns)
	frames := clip.Frames()
	if frames == 0 {
		return out
	}
	per := float64(frames) / float64(columns)
	for col := range columns {
		lo := int64(float64(col) * per)
		hi := max(int64(float64(col+1)*per), lo+1)
		hi = min(hi, frames)
		peak := 0.0
		for f := lo; f < hi; f++ {
			j := f * decoder.Channels
			peak = max(peak, math.Abs(float64(clip.Samples[j])), math.Abs(float64(clip.Samples[j+1])))
		}
		out[col] = peak
	}
	return out
}
