package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	// Color palette - Tokyo Night inspired
	primaryColor    = lipgloss.Color("#7aa2f7") // Tokyo Night blue
	secondaryColor  = lipgloss.Color("#9ece6a") // Tokyo Night green
	warningColor    = lipgloss.Color("#e0af68") // Tokyo Night yellow
	errorColor      = lipgloss.Color("#f7768e") // Tokyo Night red
	successColor    = lipgloss.Color("#9ece6a") // Tokyo Night green
	textColor       = lipgloss.Color("#c0caf5") // Tokyo Night foreground
	dimColor        = lipgloss.Color("#565f89") // Tokyo Night comment
	backgroundColor = lipgloss.Color("#1a1b26") // Tokyo Night background
	borderColor     = lipgloss.Color("#414868") // Tokyo Night border

	titleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true).
			Align(lipgloss.Center).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Align(lipgloss.Center).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(textColor)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(2, 3).
			Margin(1)

	warningStyle = lipgloss.NewStyle().
			Foreground(backgroundColor).
			Background(warningColor).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(backgroundColor).
			Background(errorColor).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor)

	successStyle = lipgloss.NewStyle().
			Foreground(backgroundColor).
			Background(successColor).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(successColor)

	progressStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Align(lipgloss.Center)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Align(lipgloss.Center).
			Italic(true).
			MarginTop(2)

	infoBoxStyle = lipgloss.NewStyle().
			Background(borderColor).
			Foreground(textColor).
			Padding(0, 1).
			Margin(0).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor)

	// Plain output uses foreground colors only so it stays readable in logs.
	plainOK   = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	plainWarn = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	plainErr  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	plainDim  = lipgloss.NewStyle().Foreground(dimColor)
)

// ErrorText renders a one-line error the way the interface shows failures.
func ErrorText(msg string) string {
	return plainErr.Render("❌ " + msg)
}
