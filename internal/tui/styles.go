package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fsmiamoto/tasker/internal/planner"
)

// Color constants for the blue-accent theme.
var (
	ColorAccent  = lipgloss.Color("69")  // blue, primary accent
	colorSuccess = lipgloss.Color("114") // soft green
	colorWarn    = lipgloss.Color("214") // orange
	colorError   = lipgloss.Color("196") // red
	colorDim     = lipgloss.Color("242") // gray
	colorInfo    = lipgloss.Color("248") // light gray
)

// Pane border styles.
var (
	focusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent)

	unfocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)
)

var headerStyle = lipgloss.NewStyle().
	Background(ColorAccent).
	Foreground(lipgloss.Color("255")).
	Bold(true).
	Padding(0, 1)

// Selection styles.
var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	selectedIndicator = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)
)

// noticeStyle returns the status bar foreground for a notice level.
func noticeStyle(level planner.Level) lipgloss.Style {
	switch level {
	case planner.LevelSuccess:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case planner.LevelWarning:
		return lipgloss.NewStyle().Foreground(colorWarn)
	case planner.LevelError:
		return lipgloss.NewStyle().Foreground(colorError).Bold(true)
	case planner.LevelProgress:
		return lipgloss.NewStyle().Foreground(ColorAccent)
	default:
		return lipgloss.NewStyle().Foreground(colorInfo)
	}
}
