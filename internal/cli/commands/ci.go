// speedbuild ci — drive the hosted build workflow.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/f9-o/speedbuild/internal/ci"
	"github.com/f9-o/speedbuild/pkg/pprint"
)

func NewCICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ci",
		Short: "Drive the hosted build workflow",
		Long: `Dispatch the hosted workflow, inspect its runs, and download the
executable it built. The workflow itself lives in the repository; these
commands only talk to it.`,
	}

	cmd.AddCommand(
		newCIRunCmd(),
		newCIStatusCmd(),
		newCIDownloadCmd(),
	)
	return cmd
}

func newCIRunCmd() *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch the hosted workflow",
		Example: `  speedbuild ci run
  speedbuild ci run --ref main`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			client, err := ci.New(cmd.Context(), rt.Config.CI, rt.Log)
			if err != nil {
				return err
			}

			usedRef, err := client.Dispatch(cmd.Context(), ref)
			if err != nil {
				return err
			}

			pprint.Success("dispatched %s on %s (ref %s)", rt.Config.CI.Workflow, client.Repo(), usedRef)
			pprint.Info("watch it with `speedbuild ci status`")
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Git ref to build (default: current branch)")
	return cmd
}

func newCIStatusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List recent runs of the workflow",
		Example: `  speedbuild ci status
  speedbuild ci status -n 3`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			client, err := ci.New(cmd.Context(), rt.Config.CI, rt.Log)
			if err != nil {
				return err
			}

			runs, err := client.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if rt.Flags.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				pprint.Info("no runs of %s on %s yet", rt.Config.CI.Workflow, client.Repo())
				return nil
			}

			tbl := pprint.NewTable("RUN", "STATUS", "CONCLUSION", "BRANCH", "SHA", "AGE")
			for _, r := range runs {
				conclusion := r.Conclusion
				if conclusion == "" {
					conclusion = "-"
				}
				sha := r.HeadSHA
				if len(sha) > 7 {
					sha = sha[:7]
				}
				tbl.AddRow(
					fmt.Sprintf("%d", r.ID),
					r.Status,
					conclusion,
					r.Branch,
					sha,
					fmtAge(time.Since(r.CreatedAt)),
				)
			}
			tbl.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum runs to list")
	return cmd
}

func newCIDownloadCmd() *cobra.Command {
	var (
		runID int64
		dest  string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the artifact a workflow run built",
		Example: `  speedbuild ci download
  speedbuild ci download --run 123456789 --dest out`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			client, err := ci.New(cmd.Context(), rt.Config.CI, rt.Log)
			if err != nil {
				return err
			}

			bar := pprint.NewProgress("downloading "+rt.Config.CI.Artifact, 100, 32)
			path, err := client.Download(cmd.Context(), runID, dest, func(done, total int64) {
				if total > 0 {
					bar.Set(int(done * 100 / total))
				}
			})
			if err != nil {
				return err
			}

			pprint.Success("saved %s", path)
			pprint.Info("unzip it to get the executable the workflow built")
			return nil
		},
	}

	cmd.Flags().Int64Var(&runID, "run", 0, "Workflow run id (default: newest successful run)")
	cmd.Flags().StringVar(&dest, "dest", "dist", "Directory to write the artifact archive into")
	return cmd
}
