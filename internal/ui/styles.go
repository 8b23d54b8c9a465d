package ui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent = "39"  // cyan accent
	colorDim    = "240" // dimmed text
	colorOK     = "42"  // success green
	colorWarn   = "214" // warning amber
)

// styles groups the lipgloss styles used by the TUI renderer.
type styles struct {
	header lipgloss.Style
	stage  lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		stage:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorOK)),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn)),
	}
}
