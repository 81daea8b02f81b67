package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/builder"
)

// Reporter adapts builder progress callbacks into program messages. The
// callbacks arrive on the build goroutine; Program.Send is safe to call from
// there.
type Reporter struct {
	prog *tea.Program
	ack  <-chan struct{}
	ctx  context.Context
}

// NewReporter returns a Reporter feeding the given program. ack delivers the
// user's pause acknowledgment; ctx cancellation unblocks a pending pause when
// the view exits without one.
func NewReporter(ctx context.Context, prog *tea.Program, ack <-chan struct{}) *Reporter {
	return &Reporter{prog: prog, ack: ack, ctx: ctx}
}

// PlanOnly renders a dry run. Dry runs never enter the interactive view, so
// delegate to the line-oriented renderer.
func (r *Reporter) PlanOnly(steps []builder.Step) {
	builder.NewPlainReporter().PlanOnly(steps)
}

func (r *Reporter) Planned(steps []builder.Step) {
	r.prog.Send(plannedMsg(steps))
}

func (r *Reporter) StepStarted(n, total int, step builder.Step) {
	r.prog.Send(stepStartedMsg{n: n, total: total, step: step})
}

func (r *Reporter) StepFinished(n, total int, step builder.Step, res v1.StepResult) {
	r.prog.Send(stepFinishedMsg{n: n, res: res})
}

func (r *Reporter) Completed(message string, failed bool) {
	r.prog.Send(completedMsg{message: message, failed: failed})
}

// Pause blocks the build goroutine until the user acknowledges or the run is
// cancelled.
func (r *Reporter) Pause() {
	r.prog.Send(pauseMsg{})
	select {
	case <-r.ack:
	case <-r.ctx.Done():
	}
}
