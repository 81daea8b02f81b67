// Package cli defines the root Cobra command and global flag/context setup.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/f9-o/speedbuild/internal/cli/commands"
	"github.com/f9-o/speedbuild/internal/core/config"
	"github.com/f9-o/speedbuild/internal/core/logger"
	"github.com/f9-o/speedbuild/internal/core/state"
	"github.com/f9-o/speedbuild/pkg/errs"
	"github.com/f9-o/speedbuild/pkg/pprint"
)

// globalFlags holds values bound to persistent global flags.
var globalFlags struct {
	configFile string
	debug      bool
	jsonOutput bool
	dryRun     bool
}

// rootCmd is the base command for speedbuild.
var rootCmd = &cobra.Command{
	Use:           "speedbuild",
	Short:         "Speedbuild — Desktop Python Packaging from the Terminal",
	Long:          ``, // overridden by SetHelpTemplate below
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare `speedbuild` — help func already prints banner
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "completion" {
			return nil
		}
		return initRuntime(cmd)
	},
}

// Execute runs the CLI. Called by main().
func Execute() {
	// Show banner before every help screen
	origHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		pprint.PrintBanner(commands.Version, commands.BuildDate)
		origHelp(cmd, args)
	})

	if err := rootCmd.Execute(); err != nil {
		if be := errs.AsBuild(err); be != nil {
			pprint.Error("%s", be.UserMessage())
		} else {
			pprint.Error("%s", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.configFile, "config", "c", "", "Path to speedbuild.yaml (defaults to auto-discovery)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.debug, "debug", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.jsonOutput, "json", false, "Output in machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.dryRun, "dry-run", false, "Print planned actions without executing")

	// Register all subcommands
	rootCmd.AddCommand(
		commands.NewInitCmd(),
		commands.NewBuildCmd(),
		commands.NewCleanCmd(),
		commands.NewDoctorCmd(),
		commands.NewHistoryCmd(),
		commands.NewLogsCmd(),
		commands.NewCICmd(),
		commands.NewVersionCmd(),
	)
}

// initRuntime loads config, logger, and state before each command runs.
func initRuntime(cmd *cobra.Command) error {
	cfg, err := config.Load(globalFlags.configFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Initialise logger
	home := config.Home()
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = filepath.Join(home, "logs", "speedbuild.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	log, err := logger.Init(cfg.Log.Level, cfg.Log.Format, logFile, home, globalFlags.debug)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	// Open state DB. History never gates a build: a locked or unreadable
	// DB downgrades to a warning and the commands that need it say so.
	if err := os.MkdirAll(home, 0750); err != nil {
		return fmt.Errorf("create speedbuild home: %w", err)
	}
	db, err := state.Open(filepath.Join(home, "state.db"))
	if err != nil {
		log.Warn("state.unavailable", "err", err)
		db = nil
	}

	// Store in command context
	cmd.SetContext(commands.NewContext(cmd.Context(), &commands.Runtime{
		Config: cfg,
		Log:    log,
		State:  db,
		Flags: commands.GlobalFlags{
			Debug:      globalFlags.debug,
			JSONOutput: globalFlags.jsonOutput,
			DryRun:     globalFlags.dryRun,
		},
	}))

	return nil
}
