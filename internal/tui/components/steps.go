// Package components: pipeline step table rendering.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	v1 "github.com/f9-o/speedbuild/api/v1"
)

// ─────────────────────────────────────────────────────────────────────────────
// Step table
// ─────────────────────────────────────────────────────────────────────────────

// StepRow is one rendered pipeline row.
type StepRow struct {
	Name       string
	Command    string // full command line; only set for external commands
	Status     v1.StepStatus
	DurationMS int64
	Err        string
}

// RenderSteps renders the pipeline table. spinnerView is the current spinner
// frame, shown as the icon of the running step.
func RenderSteps(rows []StepRow, spinnerView string, width int) string {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#48BB78"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FC8181"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#4A5568"))
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E2E8F0"))

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5AA7E4")).Bold(true).
		Padding(0, 1).
		Render("PIPELINE")

	// Room left for the detail column after icon and name.
	avail := width - 32
	if avail < 12 {
		avail = 12
	}

	rendered := ""
	for _, row := range rows {
		icon := mutedStyle.Render("○")
		name := textStyle.Render(fmt.Sprintf("%-24s", truncate(row.Name, 24)))
		detail := ""

		switch row.Status {
		case v1.StepPending:
			name = mutedStyle.Render(fmt.Sprintf("%-24s", truncate(row.Name, 24)))
		case v1.StepRunning:
			icon = spinnerView
			if row.Command != "" {
				detail = mutedStyle.Render("$ " + truncate(row.Command, avail))
			}
		case v1.StepOK:
			icon = okStyle.Render("✓")
			detail = mutedStyle.Render(fmtDuration(row.DurationMS))
		case v1.StepFailed:
			icon = errStyle.Render("✗")
			detail = errStyle.Render(truncate(row.Err, avail))
		case v1.StepSkipped:
			icon = mutedStyle.Render("·")
			detail = mutedStyle.Render("skipped")
		}

		rendered += fmt.Sprintf("  %s %s %s\n", icon, name, detail)
	}

	if len(rows) == 0 {
		rendered = mutedStyle.Padding(1, 2).Render("Preparing the plan...") + "\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, rendered)
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func fmtDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
