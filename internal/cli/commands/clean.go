// speedbuild clean — remove generated build outputs.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/f9-o/speedbuild/internal/packager"
	"github.com/f9-o/speedbuild/pkg/pprint"
)

func NewCleanCmd() *cobra.Command {
	var (
		yes      bool
		keepVenv bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the venv, dist output and packager scratch files",
		Example: `  speedbuild clean              # prompt, then remove everything generated
  speedbuild clean --yes        # no prompt
  speedbuild clean --keep-venv  # keep the environment, drop the outputs`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			targets := []string{rt.Config.Project.Dist}
			if !keepVenv {
				targets = append(targets, rt.Config.Project.Venv)
			}
			targets = append(targets, packager.ScratchPaths(rt.Config.Project.Entry)...)

			var existing []string
			for _, t := range targets {
				if _, err := os.Stat(t); err == nil {
					existing = append(existing, t)
				}
			}
			if len(existing) == 0 {
				pprint.Info("nothing to clean")
				return nil
			}

			if rt.Flags.DryRun {
				for _, t := range existing {
					fmt.Printf("[dry-run] would remove %s\n", t)
				}
				return nil
			}

			if !yes {
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Remove %s?", strings.Join(existing, ", ")),
					Default: false,
				}
				var confirmed bool
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return fmt.Errorf("canceled")
				}
				if !confirmed {
					pprint.Info("nothing removed")
					return nil
				}
			}

			for _, t := range existing {
				if err := os.RemoveAll(t); err != nil {
					return fmt.Errorf("remove %s: %w", t, err)
				}
				rt.Log.Info("clean.removed", "path", t)
				pprint.Success("removed %s", t)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&keepVenv, "keep-venv", false, "Keep the virtual environment; remove outputs only")
	return cmd
}
