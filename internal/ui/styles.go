package ui

import "github.com/charmbracelet/lipgloss"

func fg(light, dark string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: light, Dark: dark})
}

// Playlist rows and deck rows share one palette; orange marks whatever the
// cursor or an open deck is on.
var (
	titleStyle    = fg("#333333", "#FFFFFF").Bold(true)
	artistStyle   = fg("#666666", "#AAAAAA")
	timeStyle     = fg("#888888", "#888888")
	statusStyle   = fg("#555555", "#BBBBBB")
	helpStyle     = fg("#999999", "#666666")
	headerStyle   = fg("#555555", "#888888").Bold(true)
	selectedStyle = fg("#000000", "#FF8C00").Bold(true)
	spectrumStyle = fg("#D35400", "#FF8C00")
	warnStyle     = fg("#B03A2E", "#FF5F5F")
)
