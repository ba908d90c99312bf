// Package visualizer renders deck state as terminal text: a spring-smoothed
// spectrum strip and a waveform overview with a playhead.
package visualizer

import (
	"strings"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// Strip renders a normalized spectrum curve as bars, one column per group
// of bins, smoothed over successive frames.
type Strip struct {
	springs springBank
	peaks   []float64
	cols    []float64
}

// NewStrip returns a strip animated at fps frames per second.
func NewStrip(fps int) *Strip {
	return &Strip{springs: newSpringBank(max(fps, 1), 12.0, 0.75)}
}

// Update folds curve (values in [0, 1]) into width columns, taking the
// loudest bin of each group, and advances the springs one frame.
func (s *Strip) Update(curve []float64, width int) {
	if width < 1 {
		width = 1
	}
	if len(s.cols) != width {
		s.cols = make([]float64, width)
		s.peaks = make([]float64, width)
	}
	per := float64(len(curve)) / float64(width)
	for c := range width {
		lo := int(float64(c) * per)
		hi := max(int(float64(c+1)*per), lo+1)
		peak := 0.0
		for i := lo; i < hi && i < len(curve); i++ {
			peak = max(peak, curve[i])
		}
		s.peaks[c] = clamp01(peak)
	}
	s.springs.advance(s.peaks, s.cols)
}

// Reset drops the smoothed state.
func (s *Strip) Reset() {
	s.springs.reset()
	clear(s.cols)
}

// Levels returns the smoothed column levels.
func (s *Strip) Levels() []float64 { return s.cols }

// View renders the strip height rows tall.
func (s *Strip) View(height int) string {
	return renderBars(s.cols, max(height, 1))
}

func renderBars(levels []float64, height int) string {
	steps := len(barChars) - 1
	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		for _, v := range levels {
			cell := v*float64(height) - float64(row)
			idx := int(clamp01(cell) * float64(steps))
			b.WriteRune(barChars[idx])
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
