package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	clockStyle     = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	focusColor     = lipgloss.Color("203")
	breakColor     = lipgloss.Color("78")
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("241"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true)
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("240")).Foreground(lipgloss.Color("229"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginTop(1)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	panelStyle     = lipgloss.NewStyle().Padding(0, 2)

	statusStyles = map[FeedStatus]lipgloss.Style{
		StatusFocusing: lipgloss.NewStyle().Foreground(focusColor),
		StatusBreak:    lipgloss.NewStyle().Foreground(breakColor),
		StatusDone:     dimStyle,
	}
)
