package ui

import (
	"math"

	tea "github.com/charmbracelet/bubbletea"
)

// Parameter steps for one key press.
const (
	seekStep   = 0.10
	gainStep   = 0.05
	speedStep  = 0.10
	cutoffStep = 1.25 // multiplicative
)

// nudge moves v by steps increments of step and snaps the result to the step
// grid, so repeated presses land exactly on the range bounds.
func nudge(v float64, steps int, step float64) float64 {
	return math.Round(v/step+float64(steps)) * step
}

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func helpText(focus pane) string {
	s := "tab switch  / filter  a add  "
	if focus == playlistPane {
		s += "j/k move  enter open  x remove"
	} else {
		s += "j/k deck  space play  s stop  ←/→ seek  f/b ff/rew  +/- gain  [/] speed  ,/. hp  </> lp  c close"
	}
	return s + "  q quit"
}
