package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homebudget/internal/cli"
	"homebudget/internal/core"
	"homebudget/internal/importer/ofx"
	"homebudget/internal/report"
)

var importPeriod string

func init() {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Load OFX/QFX statements into the ledger and print the result",
		Long: `Parse one or more OFX or QFX bank statements, add their entries to the
seeded ledger and print the resulting report. Debits become expenses and
credits become income; categories are guessed from the payee.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().StringVarP(&importPeriod, "period", "p", string(core.PeriodAll), "period of the printed report")
	rootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	period, err := core.ParsePeriod(importPeriod)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svc, err := cli.NewLedgerService(cfg, nil, logger)
	if err != nil {
		return err
	}
	parser := ofx.NewParser(logger)
	out := cmd.OutOrStdout()

	var failed []error
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			failed = append(failed, err)
			continue
		}
		res, err := parser.Parse(ctx, f)
		f.Close()
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
			continue
		}

		added, err := svc.ImportTransactions(ctx, res.Inputs)
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
		}
		fmt.Fprintf(out, "%s: %d added, %d skipped, %d rejected (accounts %v)\n",
			path, added, res.Skipped, len(res.Inputs)-added, res.Accounts)
	}
	fmt.Fprintln(out)

	if err := report.Write(out, report.FormatText, svc.Ledger().ReportSummary(period)); err != nil {
		return err
	}
	return errors.Join(failed...)
}
