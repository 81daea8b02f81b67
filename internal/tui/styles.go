// Package tui: Lipgloss style constants for the "Speedbuild Dark" theme.
package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all theme-aware Lipgloss styles.
type Styles struct {
	// Colors
	Background lipgloss.Color
	Surface    lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Danger     lipgloss.Color
	Warning    lipgloss.Color
	Success    lipgloss.Color
	Muted      lipgloss.Color
	Text       lipgloss.Color

	// Component styles
	Title      lipgloss.Style
	Message    lipgloss.Style
	Hint       lipgloss.Style
	StatusOK   lipgloss.Style
	StatusWarn lipgloss.Style
	StatusErr  lipgloss.Style
	Spinner    lipgloss.Style
}

// newStyles returns the "Speedbuild Dark" theme styles. The palette matches
// the pprint colours so the interactive and line-oriented paths look related.
func newStyles() Styles {
	bg := lipgloss.Color("#10131C")
	surface := lipgloss.Color("#171A2B")
	primary := lipgloss.Color("#5AA7E4")
	accent := lipgloss.Color("#9CDB43")
	danger := lipgloss.Color("#FC8181")
	warning := lipgloss.Color("#F6AD55")
	success := lipgloss.Color("#48BB78")
	muted := lipgloss.Color("#4A5568")
	text := lipgloss.Color("#E2E8F0")

	return Styles{
		Background: bg, Surface: surface, Primary: primary,
		Accent: accent, Danger: danger, Warning: warning,
		Success: success, Muted: muted, Text: text,

		Title: lipgloss.NewStyle().
			Foreground(primary).Bold(true).Padding(0, 1),

		Message: lipgloss.NewStyle().
			Foreground(text).Bold(true),

		Hint: lipgloss.NewStyle().Foreground(muted),

		StatusOK:   lipgloss.NewStyle().Foreground(success),
		StatusWarn: lipgloss.NewStyle().Foreground(warning),
		StatusErr:  lipgloss.NewStyle().Foreground(danger),

		Spinner: lipgloss.NewStyle().Foreground(primary),
	}
}
