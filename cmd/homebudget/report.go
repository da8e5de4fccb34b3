package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"homebudget/internal/cli"
	"homebudget/internal/core"
	"homebudget/internal/log"
	"homebudget/internal/report"
)

var (
	reportPeriod string
	reportFormat string
	reportExport bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a financial summary for a period",
		Example: `  homebudget report --period 1M
  homebudget report --period 1Y --format csv > year.csv
  EXPORT_BACKEND=sheets homebudget report --export`,
		Args: cobra.NoArgs,
		RunE: runReport,
	}
	cmd.Flags().StringVarP(&reportPeriod, "period", "p", string(core.DefaultPeriod), "report period: 1M, 3M, 6M, 1Y or ALL")
	cmd.Flags().StringVarP(&reportFormat, "format", "f", string(report.FormatText), "output format: text or csv")
	cmd.Flags().BoolVar(&reportExport, "export", false, "also push the summary to the export backend")
	rootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	period, err := core.ParsePeriod(reportPeriod)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	svc, err := cli.NewLedgerService(cfg, nil, logger)
	if err != nil {
		return err
	}
	summary := svc.Ledger().ReportSummary(period)

	if err := report.Write(cmd.OutOrStdout(), format, summary); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if !reportExport {
		return nil
	}
	return exportSummary(cmd.Context(), summary)
}

func exportSummary(ctx context.Context, s core.ReportSummary) error {
	res, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(res)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	ref, err := res.Backend.Export(ctx, s)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	logger.Info("Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldPeriod, string(s.Period),
		log.FieldExportRef, ref,
		"backend", cfg.ExportBackend)
	return nil
}
