package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// View renders the current state of the model.
func (m Model) View() string {
	title := "Deskmate • plugins"
	if m.busy() && !m.closed {
		title = m.spinner.View() + " " + title
	}
	sections := []string{titleStyle.Render(title)}

	if len(m.plugins) == 0 {
		sections = append(sections, mutedStyle.Render("No plugins discovered."))
	} else {
		sections = append(sections, sectionStyle.Render("Plugins"), m.renderTable())
	}

	if len(m.warnings) > 0 {
		lines := make([]string, 0, len(m.warnings))
		for _, w := range m.warnings {
			lines = append(lines, warningStyle.Render("! ")+w.Error())
		}
		sections = append(sections, sectionStyle.Render("Warnings"), strings.Join(lines, "\n"))
	}

	if len(m.recent) > 0 {
		lines := make([]string, 0, len(m.recent))
		for _, ev := range m.recent {
			lines = append(lines, renderEvent(ev))
		}
		sections = append(sections, sectionStyle.Render("Events"), strings.Join(lines, "\n"))
	}

	sections = append(sections, helpStyle.Render("r refresh • q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTable() string {
	idWidth, versionWidth := len("ID"), len("VERSION")
	for _, d := range m.plugins {
		idWidth = max(idWidth, lipgloss.Width(d.ID))
		versionWidth = max(versionWidth, lipgloss.Width(d.Version))
	}

	rows := []string{headerStyle.Render(fmt.Sprintf("  %-*s  %-*s  %-11s  %s", idWidth, "ID", versionWidth, "VERSION", "STATE", "DETAILS"))}
	for _, d := range m.plugins {
		state := StateStyle(d.State).Render(fmt.Sprintf("%-11s", d.State))
		rows = append(rows, fmt.Sprintf("%s %-*s  %-*s  %s  %s",
			StateIcon(d.State), idWidth, d.ID, versionWidth, d.Version, state, details(d)))
	}
	return strings.Join(rows, "\n")
}

func details(d plugin.Descriptor) string {
	switch {
	case d.State == plugin.StateError && d.ErrorMessage != "":
		return errorStyle.Render(d.ErrorMessage)
	case !d.MissingPermissions().IsEmpty():
		return warningStyle.Render("missing " + d.MissingPermissions().String())
	case d.IsBuiltIn:
		return mutedStyle.Render("builtin")
	default:
		return mutedStyle.Render(string(d.Runtime))
	}
}

func renderEvent(ev events.Event) string {
	line := fmt.Sprintf("%s %-28s %s", mutedStyle.Render(ev.Time.Format("15:04:05")), ev.Type, ev.PluginID)
	if ev.Message != "" {
		line += " " + mutedStyle.Render(ev.Message)
	}
	if ev.Type == events.PluginError || ev.Type == events.CircularDependency {
		return errorStyle.Render("✗ ") + line
	}
	return "  " + line
}
