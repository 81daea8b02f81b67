// speedbuild history — inspect recorded builds.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/pkg/pprint"
)

func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds, newest first",
		Example: `  speedbuild history
  speedbuild history -n 5
  speedbuild history show 20250501-100000-4af2`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			if rt.State == nil {
				return fmt.Errorf("build history is unavailable (state.db could not be opened)")
			}

			recs, err := rt.State.ListBuilds(limit)
			if err != nil {
				return err
			}

			if rt.Flags.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(recs)
			}

			if len(recs) == 0 {
				pprint.Info("no builds recorded yet; run `speedbuild build` first")
				return nil
			}

			tbl := pprint.NewTable("ID", "PROFILE", "RESULT", "STEPS", "ARTIFACT", "SIZE", "AGE")
			for _, r := range recs {
				ok := 0
				for _, s := range r.Steps {
					if s.Status == v1.StepOK {
						ok++
					}
				}
				size := "-"
				if r.ArtifactBytes > 0 {
					size = fmtSize(r.ArtifactBytes)
				}
				tbl.AddRow(
					r.ID,
					string(r.Profile),
					resultBadge(r.Result),
					fmt.Sprintf("%d/%d", ok, len(r.Steps)),
					r.Artifact,
					size,
					fmtAge(time.Since(r.StartedAt)),
				)
			}
			tbl.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to list (0 = all)")

	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one build record in full (latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		Example: `  speedbuild history show
  speedbuild history show 20250501-100000-4af2`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			rec, err := lookupBuild(rt, args)
			if err != nil {
				return err
			}

			if rt.Flags.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(rec)
			}

			pprint.Header("build " + rec.ID)
			pprint.KV("Profile  ", string(rec.Profile))
			pprint.KV("Entry    ", rec.Entry)
			pprint.KV("Result   ", resultBadge(rec.Result))
			pprint.KV("Duration ", fmt.Sprintf("%.1fs", float64(rec.DurationMS)/1000))
			pprint.KV("Artifact ", rec.Artifact)
			if rec.ArtifactBytes > 0 {
				pprint.KV("Size     ", fmtSize(rec.ArtifactBytes))
			}
			if rec.LogFile != "" {
				pprint.KV("Log      ", rec.LogFile)
			}
			fmt.Println()

			for i, s := range rec.Steps {
				switch s.Status {
				case v1.StepOK:
					pprint.Step(i+1, len(rec.Steps), "%s (%.1fs)", s.Name, float64(s.DurationMS)/1000)
				case v1.StepFailed:
					pprint.Step(i+1, len(rec.Steps), "%s FAILED: %s", s.Name, s.Error)
				case v1.StepSkipped:
					pprint.Step(i+1, len(rec.Steps), "%s (skipped)", s.Name)
				default:
					pprint.Step(i+1, len(rec.Steps), "%s (%s)", s.Name, s.Status)
				}
			}
			return nil
		},
	}
}

// lookupBuild resolves args[0] to a record, or the latest one when no id was
// given.
func lookupBuild(rt *Runtime, args []string) (*v1.BuildRecord, error) {
	if rt.State == nil {
		return nil, fmt.Errorf("build history is unavailable (state.db could not be opened)")
	}

	var (
		rec *v1.BuildRecord
		err error
	)
	if len(args) == 1 {
		rec, err = rt.State.GetBuild(args[0])
	} else {
		rec, err = rt.State.LatestBuild()
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("no matching build record; see `speedbuild history`")
	}
	return rec, nil
}

func resultBadge(r v1.BuildResult) string {
	switch r {
	case v1.ResultSuccess:
		return "✓ success"
	case v1.ResultCompleted:
		return "⚠ completed"
	default:
		return "✗ failed"
	}
}

func fmtAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func fmtSize(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%dB", b)
	}
}
