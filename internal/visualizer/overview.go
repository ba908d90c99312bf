package visualizer

import "strings"

var (
	envelopeChars = []rune("⠀⣀⣤⣶⣿")
	playheadChar  = '│'
)

// Overview renders a clip's peak envelope (values in [0, 1], one per column)
// with a playhead at the relative position rel.
func Overview(envelope []float64, rel float64) string {
	if len(envelope) == 0 {
		return ""
	}
	head := int(clamp01(rel) * float64(len(envelope)-1))
	steps := len(envelopeChars) - 1
	var b strings.Builder
	for i, v := range envelope {
		if i == head {
			b.WriteRune(playheadChar)
			continue
		}
		idx := int(clamp01(v)*float64(steps) + 0.5)
		b.WriteRune(envelopeChars[idx])
	}
	return b.String()
}
