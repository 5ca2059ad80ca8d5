package feedview

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite).
	Background(colorAccent).
	Padding(0, 1)

var cardStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBorder)

var authorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorAccent)

var metaStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var helpStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Italic(true)
