package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Shield list styles
	listStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	listItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	listItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	listItemDisabledStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	listItemOverrideStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	// Detail panel styles
	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	detailHeaderStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true).
				Padding(0, 0, 1, 0)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Width(12)

	appliedStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	suggestedStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	disabledStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	// Conflict styles
	conflictWarnStyle = lipgloss.NewStyle().
				Foreground(colorOrange)

	conflictBlockStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusBusyStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Background(colorBgLight).
			Bold(true)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorRed).
				Bold(true).
				Padding(0, 1)

	// Help bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)
