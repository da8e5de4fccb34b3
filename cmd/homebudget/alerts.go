package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"homebudget/internal/cli"
)

func init() {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Budget alert commands",
	}
	alertsCmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Publish an alert for every budget at warning or over",
		Long: `Check every budget against its spending and publish a budget alert for
each one in the warning or over tier. Alerts go to AMQP when AMQP_URL is set;
the flagged budgets are always printed.`,
		Args: cobra.NoArgs,
		RunE: runAlertsScan,
	})
	rootCmd.AddCommand(alertsCmd)
}

func runAlertsScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	res, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(res)

	svc, err := cli.NewLedgerService(cfg, publisher(res), logger)
	if err != nil {
		return err
	}
	flagged := svc.ScanBudgets(ctx)

	out := cmd.OutOrStdout()
	if len(flagged) == 0 {
		fmt.Fprintln(out, "All budgets on track.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSPENT\tALLOCATED\tPROGRESS\tTIER")
	for _, st := range flagged {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%s\n",
			st.Category, st.Spent, st.Allocated, st.Progress.StringFixed(1), st.Tier)
	}
	return tw.Flush()
}
