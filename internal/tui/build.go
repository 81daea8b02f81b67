// Package tui defines the Bubble Tea model for the interactive build view.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/builder"
	"github.com/f9-o/speedbuild/internal/core/config"
	"github.com/f9-o/speedbuild/internal/core/logger"
	"github.com/f9-o/speedbuild/internal/core/state"
	"github.com/f9-o/speedbuild/internal/tui/components"
	"github.com/f9-o/speedbuild/pkg/errs"
)

// Config carries build metadata into the TUI.
type Config struct {
	Project string
	Profile v1.Profile
	Entry   string
	Strict  bool
}

// Model is the root Bubble Tea model for one build run (Elm architecture).
type Model struct {
	cfg Config

	// Dimensions
	width  int
	height int

	// Pipeline state
	rows    []components.StepRow
	message string
	failed  bool

	// Terminal interaction
	waitingAck bool
	done       bool
	quitting   bool

	// Final outcome
	rec *v1.BuildRecord
	err error

	// Sub-components
	spinner spinner.Model
	header  components.Header
	footer  components.Footer

	// Theme
	styles Styles
	keys   Keymap

	ack    chan struct{}
	cancel context.CancelFunc
}

// plannedMsg carries the full step plan before execution starts.
type plannedMsg []builder.Step

// stepStartedMsg marks step n (1-based) as running.
type stepStartedMsg struct {
	n     int
	total int
	step  builder.Step
}

// stepFinishedMsg carries the recorded outcome of step n.
type stepFinishedMsg struct {
	n   int
	res v1.StepResult
}

// completedMsg carries the completion line. An empty message means a strict
// run aborted and no artifact claim is made.
type completedMsg struct {
	message string
	failed  bool
}

// pauseMsg asks the view to wait for Enter.
type pauseMsg struct{}

// DoneMsg ends the view once the build goroutine returns.
type DoneMsg struct {
	Rec *v1.BuildRecord
	Err error
}

// New constructs the build view model. ack is signalled when the user
// acknowledges the pause; cancel aborts the running build.
func New(cfg Config, ack chan struct{}, cancel context.CancelFunc) *Model {
	styles := newStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		cfg:     cfg,
		spinner: sp,
		styles:  styles,
		keys:    defaultKeymap(),
		header:  components.NewHeader(cfg.Project, string(cfg.Profile), cfg.Entry, cfg.Strict),
		footer:  components.NewFooter(),
		ack:     ack,
		cancel:  cancel,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Init
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// ─────────────────────────────────────────────────────────────────────────────
// Update
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case plannedMsg:
		m.rows = make([]components.StepRow, len(msg))
		for i, s := range msg {
			m.rows[i] = components.StepRow{
				Name:    s.Name,
				Command: strings.Join(s.Argv, " "),
				Status:  v1.StepPending,
			}
		}

	case stepStartedMsg:
		m.ensureRows(msg.total)
		row := &m.rows[msg.n-1]
		row.Name = msg.step.Name
		row.Command = strings.Join(msg.step.Argv, " ")
		row.Status = v1.StepRunning

	case stepFinishedMsg:
		m.ensureRows(msg.n)
		row := &m.rows[msg.n-1]
		row.Status = msg.res.Status
		row.DurationMS = msg.res.DurationMS
		row.Err = msg.res.Error

	case completedMsg:
		m.message = msg.message
		m.failed = msg.failed

	case pauseMsg:
		m.waitingAck = true
		m.footer.SetWaiting(true)

	case DoneMsg:
		m.done = true
		m.rec = msg.Rec
		m.err = msg.Err
		if msg.Err != nil {
			m.footer.SetError(msg.Err)
		}
		return m, tea.Quit
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case m.keys.Ack:
		if m.waitingAck {
			m.waitingAck = false
			m.footer.SetWaiting(false)
			select {
			case m.ack <- struct{}{}:
			default:
			}
		}

	case m.keys.Quit, m.keys.ForceQuit:
		m.quitting = true
		m.cancel()
		return tea.Quit
	}
	return nil
}

// ensureRows grows the row list when progress arrives before the plan.
func (m *Model) ensureRows(n int) {
	for len(m.rows) < n {
		m.rows = append(m.rows, components.StepRow{Status: v1.StepPending})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// View
// ─────────────────────────────────────────────────────────────────────────────

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Starting build...\n"
	}

	var b strings.Builder
	b.WriteString(m.header.View(m.width))
	b.WriteString("\n\n")
	b.WriteString(components.RenderSteps(m.rows, m.spinner.View(), m.width))
	b.WriteString("\n")

	if m.failed && m.message == "" {
		b.WriteString(m.styles.StatusErr.Render("  build aborted; the artifact was not produced"))
		b.WriteString("\n")
	}
	if m.message != "" {
		if m.failed {
			b.WriteString(m.styles.StatusWarn.Render("  ⚠ one or more steps failed"))
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Message.Render("  " + m.message))
		b.WriteString("\n")
	}
	if m.done {
		b.WriteString(m.summaryLine())
		b.WriteString("\n")
	}
	if m.waitingAck {
		b.WriteString(m.styles.Hint.Render("  Press Enter to close..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer.View(m.width))
	return b.String()
}

// summaryLine renders the final result line once the build goroutine returns.
func (m *Model) summaryLine() string {
	if m.err != nil {
		return m.styles.StatusErr.Render("  ✗ " + m.err.Error())
	}
	if m.rec == nil {
		return ""
	}

	dur := fmt.Sprintf("%.1fs", float64(m.rec.DurationMS)/1000)
	switch m.rec.Result {
	case v1.ResultSuccess:
		line := "✓ success in " + dur
		if m.rec.ArtifactBytes > 0 {
			line += " · " + fmtBytes(m.rec.ArtifactBytes)
		}
		return m.styles.StatusOK.Render("  " + line)
	case v1.ResultCompleted:
		return m.styles.StatusWarn.Render("  ⚠ completed with errors in " + dur)
	default:
		return m.styles.StatusErr.Render("  ✗ failed in " + dur)
	}
}

func fmtBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Drive
// ─────────────────────────────────────────────────────────────────────────────

// RunBuild executes one build behind the interactive view. The build runs on
// its own goroutine and feeds the model through a Reporter; cancellation flows
// both ways, so quitting the view aborts the build and the view exits once the
// build goroutine returns.
func RunBuild(ctx context.Context, cfg *config.Config, log *logger.Logger, db *state.DB, opts builder.Options) (*v1.BuildRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ack := make(chan struct{}, 1)
	m := New(Config{
		Project: cfg.DisplayName(),
		Profile: opts.Profile,
		Entry:   cfg.Project.Entry,
		Strict:  opts.Strict,
	}, ack, cancel)

	// WithInput/WithOutput avoids a hard TTY requirement; callers gate on
	// IsTTY before choosing this path.
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	b := builder.New(cfg, log, db, NewReporter(ctx, p, ack))

	type outcome struct {
		rec *v1.BuildRecord
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		rec, err := b.Run(ctx, opts)
		done <- outcome{rec, err}
		p.Send(DoneMsg{Rec: rec, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, errs.Wrap(err, errs.ErrInternal, "tui.build")
	}
	cancel()
	out := <-done
	return out.rec, out.err
}
