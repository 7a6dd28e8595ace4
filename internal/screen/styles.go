package screen

import "github.com/charmbracelet/lipgloss"

const (
	statusBarHeight = 1
	errorTailRows   = 8
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}).
			Background(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#353533"})

	statusTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ECFD65")).
				Background(lipgloss.Color("#5A56E0")).
				Padding(0, 1)

	statusPositionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ECECEC")).
				Background(lipgloss.Color("#FF5F87")).
				Padding(0, 1)

	connectedDotStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575"))

	disconnectedDotStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"})

	errorTailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)
