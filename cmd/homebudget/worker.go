package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"homebudget/internal/backend"
	"homebudget/internal/cache"
	"homebudget/internal/log"
	"homebudget/internal/sheets"
	"homebudget/internal/worker"
)

var dedupeWindow time.Duration

func init() {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume budget alerts from AMQP",
		Long: `Consume budget alerts from AMQP_QUEUE and record them.

With EXPORT_BACKEND=sheets alerts are appended to the alerts tab of the
spreadsheet; otherwise they are written to the log.`,
		Args: cobra.NoArgs,
		RunE: runWorker,
	}
	cmd.Flags().DurationVar(&dedupeWindow, "dedupe", worker.DefaultDedupe, "ignore repeats of the same budget and tier within this window (0 disables)")
	rootCmd.AddCommand(cmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if cfg.AMQPURL == "" {
		return errors.New("worker requires AMQP_URL")
	}
	ctx := cmd.Context()

	res, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(res)
	if res.AMQP == nil {
		return errors.New("AMQP broker unavailable")
	}

	var sink sheets.AlertSink = worker.NewLogSink(logger)
	if backend.BackendType(cfg.ExportBackend) == backend.SheetsBackend {
		sink = res.Backend
	}

	w := worker.NewAlertWorker(sink, dedupeWindow, logger)
	if d := w.Dedupe(); d != nil {
		caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
		caches.Register(d)
		caches.StartCleanup(dedupeWindow)
		defer caches.Stop()
	}

	logger.Info("Alert worker started",
		"queue", cfg.AMQPQueue,
		"sink", cfg.ExportBackend,
		"dedupe", dedupeWindow.String())
	err = w.Run(ctx, res.AMQP)
	logger.Info("Alert worker stopped", log.FieldOperation, log.OpShutdown)
	return err
}
