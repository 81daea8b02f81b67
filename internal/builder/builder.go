package builder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/core/config"
	"github.com/f9-o/speedbuild/internal/core/logger"
	"github.com/f9-o/speedbuild/internal/core/state"
	"github.com/f9-o/speedbuild/internal/packager"
	"github.com/f9-o/speedbuild/internal/python"
	"github.com/f9-o/speedbuild/pkg/errs"
)

// historyKeep bounds the retained build history; older records and their
// log files are pruned after each run.
const historyKeep = 100

// Options holds per-build settings resolved by the command layer. Pause is
// already gated there (mode plus TTY detection), so the builder only sees
// the final decision.
type Options struct {
	Profile v1.Profile
	Strict  bool
	DryRun  bool
	Pause   bool
	Target  string // artifact platform (GOOS name)
}

// Builder orchestrates one packaging pipeline run.
type Builder struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *state.DB // nil disables history
	rep    Reporter
	runner *python.Runner
}

// New constructs a Builder. db may be nil; history is then skipped with a
// logged warning, never a failed build.
func New(cfg *config.Config, log *logger.Logger, db *state.DB, rep Reporter) *Builder {
	if rep == nil {
		rep = NopReporter{}
	}
	return &Builder{
		cfg:    cfg,
		log:    log,
		db:     db,
		rep:    rep,
		runner: python.NewRunner("", cfg.Build.StepTimeout),
	}
}

// Run executes the pipeline and returns the recorded outcome.
//
// In the default mode a failing step is recorded and the run carries on,
// still printing the completion message and pausing at the end; the returned
// error stays nil. The packaging script this replaces behaved that way, and
// downstream habits depend on it. Strict mode stops at the first failure
// instead and marks the record failed.
func (b *Builder) Run(ctx context.Context, opts Options) (*v1.BuildRecord, error) {
	prof, err := packager.Lookup(opts.Profile)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrValidation, "build.profile")
	}
	if opts.Target == "" {
		opts.Target = b.cfg.Project.Target
	}

	env := python.NewEnv(b.cfg.Project.Venv)

	// Base interpreter: explicit override, then PATH probing. Discovery
	// failure is not fatal here; the create step then fails on its own
	// terms, exactly like the original script with no interpreter present.
	base, err := python.Discover(ctx, b.runner, b.cfg.Project.Python)
	if err != nil {
		b.log.Warn("build.discovery_failed", "err", err)
		base = "python"
	}

	steps := plan(prof, env, base, b.cfg.Project.Entry, b.cfg.Project.Requirements)

	if opts.DryRun {
		b.log.Info("build.dryrun", "profile", prof.Name, "steps", len(steps))
		b.rep.PlanOnly(steps)
		return nil, nil
	}

	started := time.Now().UTC()
	rec := &v1.BuildRecord{
		ID:        newBuildID(started),
		Profile:   prof.Name,
		Entry:     b.cfg.Project.Entry,
		Strict:    opts.Strict,
		StartedAt: started,
		Artifact:  packager.DisplayPath(b.cfg.Project.Dist, b.cfg.Project.Entry, opts.Target),
	}
	b.log.Info("build.start",
		"id", rec.ID, "profile", prof.Name,
		"entry", rec.Entry, "strict", opts.Strict,
	)
	b.rep.Planned(steps)

	// Commands after venv creation run with the venv activated: tool paths
	// resolved inside it and the env overlay applied.
	venvRunner := b.runner.WithEnv(env.Environ())

	var outLog strings.Builder
	total := len(steps)
	failed := false
	aborted := false

	for i, step := range steps {
		n := i + 1

		if aborted {
			// A strict abort still pauses, so a double-clicked console
			// window stays open long enough to read the failure.
			if step.Kind == KindPause && ctx.Err() == nil {
				b.rep.StepStarted(n, total, step)
				res := b.runStep(ctx, venvRunner, env, step, opts, failed, &outLog)
				rec.Steps = append(rec.Steps, res)
				b.rep.StepFinished(n, total, step, res)
				continue
			}
			res := skippedResult(step)
			rec.Steps = append(rec.Steps, res)
			b.rep.StepFinished(n, total, step, res)
			continue
		}

		runner := venvRunner
		if i == 0 {
			runner = b.runner // venv creation uses the base interpreter
		}

		b.rep.StepStarted(n, total, step)
		res := b.runStep(ctx, runner, env, step, opts, failed, &outLog)
		rec.Steps = append(rec.Steps, res)
		b.rep.StepFinished(n, total, step, res)

		if res.Status == v1.StepFailed {
			failed = true
			b.log.Warn("build.step_failed", "step", step.Name, "err", res.Error)
			if opts.Strict || ctx.Err() != nil {
				aborted = true
				b.rep.Completed("", true)
			}
		}
	}

	rec.CompletedAt = time.Now().UTC()
	rec.DurationMS = rec.CompletedAt.Sub(rec.StartedAt).Milliseconds()
	switch {
	case aborted && failed:
		rec.Result = v1.ResultFailed
	case failed:
		rec.Result = v1.ResultCompleted
	default:
		rec.Result = v1.ResultSuccess
	}

	// Artifact size is informational only; a missing file is not an error
	// here because nothing in the default contract verifies outputs.
	if fi, err := os.Stat(packager.ArtifactPath(b.cfg.Project.Dist, b.cfg.Project.Entry, opts.Target)); err == nil {
		rec.ArtifactBytes = fi.Size()
	}

	b.persist(rec, outLog.String())

	b.log.Audit(logger.AuditEntry{
		Timestamp: rec.CompletedAt,
		Op:        "build",
		User:      currentUser(),
		Profile:   string(rec.Profile),
		Artifact:  rec.Artifact,
		Result:    string(rec.Result),
	})
	b.log.Info("build.complete", "id", rec.ID, "result", rec.Result, "duration_ms", rec.DurationMS)

	return rec, nil
}

// runStep executes one step and returns its recorded result.
func (b *Builder) runStep(ctx context.Context, r *python.Runner, env *python.Env, step Step, opts Options, failedSoFar bool, outLog *strings.Builder) v1.StepResult {
	res := v1.StepResult{
		Name:      step.Name,
		Command:   step.Argv,
		Status:    v1.StepOK,
		StartedAt: time.Now().UTC(),
	}

	switch step.Kind {
	case KindCommand:
		out, err := r.Run(ctx, step.Argv[0], step.Argv[1:]...)
		fmt.Fprintf(outLog, "$ %s\n", strings.Join(out.Argv, " "))
		outLog.WriteString(out.Combined())
		outLog.WriteString("\n")
		res.ExitCode = out.ExitCode
		if err != nil {
			res.Status = v1.StepFailed
			res.Error = err.Error()
		}

	case KindVerify:
		if err := env.Verify(ctx, r); err != nil {
			fmt.Fprintf(outLog, "activate %s: %v\n", env.Root, err)
			res.Status = v1.StepFailed
			res.Error = err.Error()
		} else {
			fmt.Fprintf(outLog, "activated %s\n", env.Root)
		}

	case KindReport:
		msg := packager.CompletionMessage(b.cfg.Project.Dist, b.cfg.Project.Entry, opts.Target)
		b.rep.Completed(msg, failedSoFar)
		fmt.Fprintln(outLog, msg)

	case KindPause:
		if opts.Pause {
			b.rep.Pause()
		} else {
			res.Status = v1.StepSkipped
		}
	}

	res.CompletedAt = time.Now().UTC()
	res.DurationMS = res.CompletedAt.Sub(res.StartedAt).Milliseconds()
	return res
}

// persist writes the per-build log file and the history record. Neither can
// fail the build.
func (b *Builder) persist(rec *v1.BuildRecord, output string) {
	logPath := filepath.Join(LogDir(), rec.ID+".log")
	if err := os.MkdirAll(LogDir(), 0750); err == nil {
		if err := os.WriteFile(logPath, []byte(output), 0640); err == nil {
			rec.LogFile = logPath
		} else {
			b.log.Warn("build.logfile_write_failed", "path", logPath, "err", err)
		}
	}

	if b.db == nil {
		b.log.Warn("build.history_disabled", "id", rec.ID)
		return
	}
	if err := b.db.PutBuild(*rec); err != nil {
		b.log.Warn("build.state_persist_failed", "err", err)
		return
	}
	removed, err := b.db.PruneBuilds(historyKeep)
	if err != nil {
		b.log.Warn("build.history_prune_failed", "err", err)
		return
	}
	for _, old := range removed {
		if old.LogFile != "" {
			_ = os.Remove(old.LogFile)
		}
	}
}

// LogDir returns the directory holding per-build output logs.
func LogDir() string {
	return filepath.Join(config.Home(), "logs")
}

func skippedResult(step Step) v1.StepResult {
	now := time.Now().UTC()
	return v1.StepResult{
		Name:        step.Name,
		Command:     step.Argv,
		Status:      v1.StepSkipped,
		StartedAt:   now,
		CompletedAt: now,
	}
}

// newBuildID yields a sortable identifier: UTC timestamp plus random suffix.
func newBuildID(t time.Time) string {
	var suffix [2]byte
	_, _ = rand.Read(suffix[:])
	return t.Format("20060102-150405") + "-" + hex.EncodeToString(suffix[:])
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
