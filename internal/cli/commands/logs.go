// speedbuild logs — print the captured output of a recorded build.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs [id]",
		Short: "Print the captured step output of a build (latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		Example: `  speedbuild logs
  speedbuild logs 20250501-100000-4af2`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			rec, err := lookupBuild(rt, args)
			if err != nil {
				return err
			}
			if rec.LogFile == "" {
				return fmt.Errorf("build %s has no saved log", rec.ID)
			}

			data, err := os.ReadFile(rec.LogFile)
			if err != nil {
				return fmt.Errorf("read log %s: %w", rec.LogFile, err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
