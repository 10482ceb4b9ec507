// Package tui provides the interactive terminal interface: a tab-based
// controller with Scoreboard, Profile and Challenges pages, drill-down
// column stacks and modal dialogs.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent colors used throughout the TUI
var (
	PrimaryColor = lipgloss.Color("#00D7FF") // Cyan - brand, focused panels
	SuccessColor = lipgloss.Color("#5AF78E") // Green - solved challenges, confirmations
	WarningColor = lipgloss.Color("#F3F99D") // Yellow - points, places
	ErrorColor   = lipgloss.Color("#FF5C57") // Red - error dialogs
	MutedColor   = lipgloss.Color("#6C7086") // Gray - hints, empty states
	BorderColor  = lipgloss.Color("#45475A") // Dark gray - borders, dividers

	TextColor       = lipgloss.Color("#CDD6F4")
	TextBrightColor = lipgloss.Color("#FFFFFF")

	BgSelectedColor = lipgloss.Color("#313244")
)

// Header styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	// Selected tab
	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(BgSelectedColor).
			Background(PrimaryColor).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1)

	HeaderBorderStyle = lipgloss.NewStyle().
				Foreground(BorderColor)
)

// Footer styles
var (
	footerStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	ShortcutKeyStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	ShortcutDescStyle = lipgloss.NewStyle().
				Foreground(MutedColor)
)

// Panel styles
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// Panel holding the keyboard focus
	PanelActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(PrimaryColor).
				Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Row styles
var (
	selectedStyle = lipgloss.NewStyle().
			Background(BgSelectedColor).
			Foreground(TextBrightColor).
			Bold(true)

	unselectedStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	solvedStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	pointsStyle = lipgloss.NewStyle().Foreground(WarningColor)
)

// Text styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	textStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	emptyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	errorTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)
)

// Button styles
var (
	buttonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(BorderColor).
			Padding(0, 1)

	buttonFocusedStyle = lipgloss.NewStyle().
				Foreground(BgSelectedColor).
				Background(PrimaryColor).
				Bold(true).
				Padding(0, 1)
)

// Modal styles
var (
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 2)

	modalErrorStyle = modalStyle.BorderForeground(ErrorColor)
)

// DividerStyle is used for horizontal separators.
var DividerStyle = lipgloss.NewStyle().
	Foreground(BorderColor)

// Divider returns a horizontal divider of the given width.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return DividerStyle.Render(strings.Repeat("─", width))
}
