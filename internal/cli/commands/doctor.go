// speedbuild doctor — diagnose the packaging environment.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/f9-o/speedbuild/internal/doctor"
	"github.com/f9-o/speedbuild/pkg/pprint"
)

func NewDoctorCmd() *cobra.Command {
	var (
		skipNetwork bool
		skipCI      bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the local packaging environment",
		Example: `  speedbuild doctor
  speedbuild doctor --skip-network`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			report := doctor.NewChecker(rt.Config, rt.Log).Run(cmd.Context(), doctor.Options{
				SkipNetwork: skipNetwork,
				SkipCI:      skipCI,
			})

			if rt.Flags.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(report)
			}

			pprint.Header("environment")
			for _, c := range report.Checks {
				switch c.Severity {
				case doctor.SeverityOK:
					pprint.Success("%-14s %s", c.Name, c.Detail)
				case doctor.SeverityWarn:
					pprint.Warn("%-14s %s", c.Name, c.Detail)
					if c.Advice != "" {
						pprint.Info("→ %s", c.Advice)
					}
				case doctor.SeverityFail:
					pprint.Error("%-14s %s", c.Name, c.Detail)
					if c.Advice != "" {
						pprint.Info("→ %s", c.Advice)
					}
				}
			}
			fmt.Println()

			// Warnings keep the exit code at zero; only hard failures block a build.
			if failures := report.Failures(); len(failures) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failures), len(report.Checks))
			}
			if warnings := report.Warnings(); len(warnings) > 0 {
				pprint.Warn("ready, with %d warning(s)", len(warnings))
				return nil
			}
			pprint.Success("environment is ready")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNetwork, "skip-network", false, "Skip the package-index reachability probe")
	cmd.Flags().BoolVar(&skipCI, "skip-ci", false, "Skip hosted workflow checks")
	return cmd
}
