package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homebudget/internal/cli"
	"homebudget/internal/config"
	"homebudget/internal/log"
)

var (
	envFile string
	version = "dev"

	// Populated by setup before any subcommand runs.
	cfg    *config.Config
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:   "homebudget",
		Short: "Personal budget ledger with reports, alerts and exports",
		Long: `homebudget keeps a ledger of income and expense transactions and
per-category budgets. It serves a JSON API, consumes budget alerts from
AMQP and renders shareable reports.

Configuration comes from the environment; a .env file is loaded when present.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: .env when present)")
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := cli.LoadEnvFile(files...); err != nil {
		return err
	}

	c, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	cfg = c
	// Logs go to stderr so report output on stdout stays clean.
	logger = cli.SetupLogger(cfg, cmd.ErrOrStderr(), cmd.Name())
	return nil
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
