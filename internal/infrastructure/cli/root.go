package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/internal/infrastructure/config"
	"github.com/agentroi/runrate/internal/infrastructure/logging"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	logLevel    string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "runrate",
	Version: Version,
	Short:   "Run-rate and ROI projections for AI agent deployments",
	Long: `Runrate turns agent assumptions and time & motion studies into
projected and measured savings. It answers:
1. What is each agent worth per year?
2. Are we on track for our goals?
3. Where is the trend heading?`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return MapError(fmt.Errorf("load config: %w", err))
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err == nil {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&projectPath, "project", "C", "", "Workspace root (defaults to the current directory)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}
