// speedbuild build — run the local packaging pipeline.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/builder"
	"github.com/f9-o/speedbuild/internal/tui"
	"github.com/f9-o/speedbuild/pkg/errs"
)

func NewBuildCmd() *cobra.Command {
	var (
		profile   string
		strict    bool
		target    string
		pauseMode string
		noPause   bool
		noUI      bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the packaging pipeline: venv, dependencies, frozen executable",
		Example: `  speedbuild build
  speedbuild build --profile lite
  speedbuild build --strict --no-ui
  speedbuild build --pause never`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			if profile == "" {
				profile = rt.Config.Build.Profile
			}
			if pauseMode == "" {
				pauseMode = rt.Config.Build.Pause
			}
			if noPause {
				pauseMode = "never"
			}
			switch pauseMode {
			case "auto", "always", "never":
			default:
				return errs.Newf(errs.ErrValidation, "cli.build", "pause must be auto, always or never, got %q", pauseMode)
			}

			strictRun := rt.Config.Build.Strict
			if cmd.Flags().Changed("strict") {
				strictRun = strict
			}

			opts := builder.Options{
				Profile: v1.Profile(profile),
				Strict:  strictRun,
				DryRun:  rt.Flags.DryRun,
				Pause:   resolvePause(pauseMode),
				Target:  target,
			}

			interactive := tui.IsTTY() && !noUI && !opts.DryRun && !rt.Flags.JSONOutput

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Handle Ctrl+C: cancel the pipeline so the in-flight step fails
			// with the context error and the run is recorded as aborted.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs
				cancel()
			}()

			var (
				rec *v1.BuildRecord
				err error
			)
			if interactive {
				rec, err = tui.RunBuild(ctx, rt.Config, rt.Log, rt.State, opts)
			} else {
				// Dry runs keep the plain reporter even under --json so the
				// plan remains visible; nothing is recorded to encode.
				rep := builder.Reporter(builder.NewPlainReporter())
				if rt.Flags.JSONOutput && !opts.DryRun {
					rep = builder.NopReporter{}
				}
				rec, err = builder.New(rt.Config, rt.Log, rt.State, rep).Run(ctx, opts)
			}
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}

			if rt.Flags.JSONOutput {
				if err := json.NewEncoder(os.Stdout).Encode(rec); err != nil {
					return err
				}
			}

			// Strict aborts and cancelled runs surface as a non-zero exit.
			// The default mode reports completion regardless of step failures.
			if rec.Result == v1.ResultFailed {
				return fmt.Errorf("build %s failed", rec.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Packaging profile: full | lite (default from config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first failing step and exit non-zero")
	cmd.Flags().StringVar(&target, "target", "", "Artifact platform, a GOOS name (default from config)")
	cmd.Flags().StringVar(&pauseMode, "pause", "", "Pause for Enter when the run ends: auto | always | never")
	cmd.Flags().BoolVar(&noPause, "no-pause", false, "Never pause (shorthand for --pause never)")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the interactive view; print plain step lines")
	return cmd
}

// resolvePause maps the configured pause mode to a final decision for this run.
func resolvePause(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return tui.IsTTY()
	}
}
