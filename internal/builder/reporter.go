package builder

import (
	"bufio"
	"fmt"
	"io"
	"os"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/pkg/pprint"
)

// Reporter presents pipeline progress. Implementations own the terminal
// while a build runs, so the blocking acknowledgment wait lives here too.
type Reporter interface {
	// PlanOnly renders a dry run: the numbered plan, nothing executed.
	PlanOnly(steps []Step)
	// Planned announces the full step list once, before execution starts.
	Planned(steps []Step)
	// StepStarted fires before a step runs. n is 1-based.
	StepStarted(n, total int, step Step)
	// StepFinished fires after a step completes, fails, or is skipped.
	StepFinished(n, total int, step Step, res v1.StepResult)
	// Completed ends the run on the terminal. A non-empty message is the
	// fixed completion line naming the expected artifact; in the default
	// mode it arrives even for failed runs. An empty message means a strict
	// run aborted and no artifact claim should be made.
	Completed(message string, failed bool)
	// Pause blocks until the user acknowledges. Only called when the
	// resolved pause mode applies.
	Pause()
}

// ─────────────────────────────────────────────────────────────────────────────
// Plain reporter
// ─────────────────────────────────────────────────────────────────────────────

// PlainReporter renders line-oriented progress with pprint. It is the
// non-TUI path: pipelines in CI logs, redirected output, --no-ui runs.
type PlainReporter struct {
	Stdin io.Reader // acknowledgment source; defaults to os.Stdin
}

// NewPlainReporter returns a PlainReporter reading acknowledgments from stdin.
func NewPlainReporter() *PlainReporter {
	return &PlainReporter{Stdin: os.Stdin}
}

func (r *PlainReporter) PlanOnly(steps []Step) {
	pprint.Header("build plan (dry run)")
	for i, s := range steps {
		switch s.Kind {
		case KindCommand:
			pprint.Step(i+1, len(steps), "%s", s.Name)
			fmt.Println("  " + pprint.Cmdline(s.Argv))
		case KindVerify:
			pprint.Step(i+1, len(steps), "%s (verify venv interpreter)", s.Name)
		case KindReport:
			pprint.Step(i+1, len(steps), "%s (print completion message)", s.Name)
		case KindPause:
			pprint.Step(i+1, len(steps), "%s (wait for Enter)", s.Name)
		}
	}
	pprint.Info("no changes made")
}

func (r *PlainReporter) Planned([]Step) {
	// Progressive step lines render the plan as it runs.
}

func (r *PlainReporter) StepStarted(n, total int, step Step) {
	// Report and pause render through Completed and Pause; a progress line
	// for them would just repeat the output.
	if step.Kind == KindReport || step.Kind == KindPause {
		return
	}
	pprint.Step(n, total, "%s", step.Name)
	if step.Kind == KindCommand {
		fmt.Println("  " + pprint.Cmdline(step.Argv))
	}
}

func (r *PlainReporter) StepFinished(n, total int, step Step, res v1.StepResult) {
	if step.Kind == KindReport || step.Kind == KindPause {
		return
	}
	switch res.Status {
	case v1.StepOK:
		pprint.Success("%s (%.1fs)", res.Name, float64(res.DurationMS)/1000)
	case v1.StepFailed:
		pprint.Error("%s: %s", res.Name, res.Error)
	case v1.StepSkipped:
		pprint.Info("%s skipped", res.Name)
	}
}

func (r *PlainReporter) Completed(message string, failed bool) {
	if message == "" {
		pprint.Error("build failed; the artifact was not produced")
		return
	}
	if failed {
		pprint.Warn("one or more steps failed; the artifact may be stale or missing")
	}
	// The completion line stays unstyled: callers parse it.
	pprint.Plain("%s", message)
}

func (r *PlainReporter) Pause() {
	pprint.Plain("Press Enter to close...")
	in := r.Stdin
	if in == nil {
		in = os.Stdin
	}
	_, _ = bufio.NewReader(in).ReadString('\n')
}

// ─────────────────────────────────────────────────────────────────────────────
// Nop reporter
// ─────────────────────────────────────────────────────────────────────────────

// NopReporter discards all events. Used by tests and by callers that only
// want the returned record.
type NopReporter struct{}

func (NopReporter) PlanOnly([]Step) {}

func (NopReporter) Planned([]Step) {}

func (NopReporter) StepStarted(int, int, Step) {}

func (NopReporter) StepFinished(int, int, Step, v1.StepResult) {}

func (NopReporter) Completed(string, bool) {}

func (NopReporter) Pause() {}
