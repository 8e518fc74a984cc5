package tui

import "github.com/charmbracelet/lipgloss"

// styles groups the lipgloss styles used by the widget.
type styles struct {
	Box         lipgloss.Style
	Live        lipgloss.Style
	Title       lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	Highlighted lipgloss.Style
	Divider     lipgloss.Style
	Help        lipgloss.Style
}

func defaultStyles() styles {
	accent := lipgloss.Color("#764ba2")
	return styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Live:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4d4f")),
		Title: lipgloss.NewStyle().Bold(true),
		Label: lipgloss.NewStyle().Faint(true),
		Value: lipgloss.NewStyle().Bold(true),
		Highlighted: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(accent),
		Divider: lipgloss.NewStyle().Foreground(accent),
		Help:    lipgloss.NewStyle().Faint(true),
	}
}
