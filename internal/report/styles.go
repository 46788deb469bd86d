package report

import "github.com/charmbracelet/lipgloss"

var (
	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("239"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)
