// Package components: TUI sub-components for the speedbuild build view.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ─────────────────────────────────────────────────────────────────────────────
// Header component
// ─────────────────────────────────────────────────────────────────────────────

// Header renders the top status bar.
type Header struct {
	project string
	profile string
	entry   string
	strict  bool
}

// NewHeader creates a Header for the named project.
func NewHeader(project, profile, entry string, strict bool) Header {
	return Header{project: project, profile: profile, entry: entry, strict: strict}
}

// View renders the header bar. Accepts total terminal width.
func (h *Header) View(width int) string {
	left := fmt.Sprintf(" ◉ SPEEDBUILD  %s ", h.project)
	mode := h.profile + " profile"
	if h.strict {
		mode += " · strict"
	}
	right := fmt.Sprintf(" %s · %s ", h.entry, mode)
	gap := width - len(left) - len(right)
	if gap < 0 {
		gap = 0
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color("#5AA7E4")).
		Foreground(lipgloss.Color("#10131C")).
		Bold(true).
		Width(width).
		Render(left + spaces(gap) + right)
}

// ─────────────────────────────────────────────────────────────────────────────
// Footer component
// ─────────────────────────────────────────────────────────────────────────────

// Footer renders the bottom hint bar.
type Footer struct {
	waiting bool
	err     error
}

// NewFooter creates a Footer.
func NewFooter() Footer { return Footer{} }

// SetWaiting toggles the acknowledgment hints shown while the pipeline
// pauses for Enter.
func (f *Footer) SetWaiting(w bool) { f.waiting = w }

// SetError sets an error message to display.
func (f *Footer) SetError(err error) { f.err = err }

// View renders the footer.
func (f *Footer) View(width int) string {
	hints := []struct{ key, desc string }{
		{"q", "cancel"}, {"ctrl+c", "force quit"},
	}
	if f.waiting {
		hints = []struct{ key, desc string }{
			{"enter", "close"}, {"ctrl+c", "abort"},
		}
	}

	content := ""
	for _, h := range hints {
		content += lipgloss.NewStyle().Foreground(lipgloss.Color("#5AA7E4")).Bold(true).Render(h.key)
		content += lipgloss.NewStyle().Foreground(lipgloss.Color("#4A5568")).Render(" " + h.desc + "  ")
	}

	if f.err != nil {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("#FC8181")).
			Render("Error: " + f.err.Error())
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#171A2B")).
		Width(width).Padding(0, 1).
		Render(content)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func spaces(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += " "
	}
	return s
}
