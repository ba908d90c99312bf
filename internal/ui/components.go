package ui

import (
	"fmt"
	"strings"
)

func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2 // leave some margin

	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	ratio = max(0, min(1, ratio))

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderGain(g float64) string {
	return fmt.Sprintf("gain %3d%%", int(g*100+0.5))
}

func renderSpeed(r float64) string {
	return fmt.Sprintf("speed %.2fx", r)
}

func formatHz(f float64) string {
	if f >= 1000 {
		return fmt.Sprintf("%.1fk", f/1000)
	}
	return fmt.Sprintf("%.0f", f)
}

func renderCutoff(low, high float64) string {
	return fmt.Sprintf("hp %sHz lp %sHz", formatHz(low), formatHz(high))
}

// truncate shortens s to at most w runes.
func truncate(s string, w int) string {
	r := []rune(s)
	if w <= 0 {
		return ""
	}
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}

// pad right-pads s with spaces to w runes.
func pad(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}
