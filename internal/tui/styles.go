package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	runningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	initializedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	loadedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	stoppedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	unloadedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// StateStyle returns the style used to render a lifecycle state.
func StateStyle(s plugin.State) lipgloss.Style {
	switch s {
	case plugin.StateRunning:
		return runningStyle
	case plugin.StateInitialized:
		return initializedStyle
	case plugin.StateLoaded:
		return loadedStyle
	case plugin.StateStopped:
		return stoppedStyle
	case plugin.StateError:
		return errorStyle
	default:
		return unloadedStyle
	}
}

// StateIcon returns the glyph representing a lifecycle state.
func StateIcon(s plugin.State) string {
	switch s {
	case plugin.StateRunning:
		return runningStyle.Render("●")
	case plugin.StateInitialized:
		return initializedStyle.Render("◐")
	case plugin.StateLoaded:
		return loadedStyle.Render("○")
	case plugin.StateStopped:
		return stoppedStyle.Render("■")
	case plugin.StateError:
		return errorStyle.Render("✗")
	default:
		return unloadedStyle.Render("·")
	}
}
