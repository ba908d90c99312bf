package visualizer

import "github.com/charmbracelet/harmonica"

// springBank animates a row of bars toward their targets. Rising bars jump
// straight to the new level; falling bars settle on the spring.
type springBank struct {
	spring harmonica.Spring
	bars   []springBar
}

type springBar struct {
	pos, vel float64
}

func newSpringBank(fps int, frequency, damping float64) springBank {
	return springBank{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

// advance steps every bar one frame toward targets and writes the positions
// into out. The bank grows or shrinks to len(targets), keeping existing bars.
func (b *springBank) advance(targets, out []float64) {
	if n := len(targets); len(b.bars) != n {
		bars := make([]springBar, n)
		copy(bars, b.bars)
		b.bars = bars
	}
	for i, target := range targets {
		bar := &b.bars[i]
		if target >= bar.pos {
			bar.pos, bar.vel = target, 0
		} else {
			bar.pos, bar.vel = b.spring.Update(bar.pos, bar.vel, target)
		}
		out[i] = clamp01(bar.pos)
	}
}

func (b *springBank) reset() {
	clear(b.bars)
}
